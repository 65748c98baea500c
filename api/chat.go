package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

func responseError(message, fallback string) error {
	if message != "" {
		return errors.New(message)
	}
	return errors.New(fallback)
}

// History reads assistant playground history.
func (c *Client) History(ctx context.Context, assistantID, conversationID string, limit, offset int) (*HistoryResponse, error) {
	query := url.Values{}
	query.Set("assistantId", assistantID)
	if conversationID != "" {
		query.Set("conversationId", conversationID)
	}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var resp HistoryResponse
	if err := c.Call(ctx, http.MethodGet, "/chat/history?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, responseError(resp.Message, "failed to load chat history")
	}
	return &resp, nil
}

// Messages reads one page of a conversation's messages.
func (c *Client) Messages(ctx context.Context, conversationID string, limit, offset int) (*HistoryResponse, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	path := fmt.Sprintf("/chat/%s/messages?%s", url.PathEscape(conversationID), query.Encode())

	var resp HistoryResponse
	if err := c.Call(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, responseError(resp.Message, "failed to load messages")
	}
	return &resp, nil
}

// Send posts a new turn to an assistant, creating a conversation when
// req.ConversationID is empty.
func (c *Client) Send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	var resp SendResponse
	if err := c.Call(ctx, http.MethodPost, "/chat/send", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, responseError(resp.Message, "failed to send message")
	}
	return &resp, nil
}

// Reply posts a reply into an existing conversation.
func (c *Client) Reply(ctx context.Context, conversationID string, req ReplyRequest) (*SendResponse, error) {
	path := fmt.Sprintf("/chat/%s/reply", url.PathEscape(conversationID))

	var resp SendResponse
	if err := c.Call(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, responseError(resp.Message, "failed to send reply")
	}
	return &resp, nil
}

// SetAutoReply toggles auto-reply and returns the confirmed value.
func (c *Client) SetAutoReply(ctx context.Context, conversationID string, enabled bool) (bool, error) {
	path := fmt.Sprintf("/chat/%s/auto-reply", url.PathEscape(conversationID))

	var resp AutoReplyResponse
	if err := c.Call(ctx, http.MethodPut, path, AutoReplyRequest{AutoReply: enabled}, &resp); err != nil {
		return false, err
	}
	return resp.Confirmed(enabled), nil
}

// Conversations lists the conversations of an assistant.
func (c *Client) Conversations(ctx context.Context, assistantID string) ([]Conversation, error) {
	query := url.Values{}
	if assistantID != "" {
		query.Set("assistantId", assistantID)
	}
	path := "/chat/conversations"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp ConversationsResponse
	if err := c.Call(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
