package api

import (
	"encoding/json"
	"time"
)

// ConnectResponse is returned by the connect and restart endpoints.
type ConnectResponse struct {
	Status  string `json:"status"`
	QRCode  string `json:"qrCode,omitempty"`
	Message string `json:"message,omitempty"`
}

// StatusResponse is returned by the channel status endpoint.
type StatusResponse struct {
	Status   string         `json:"status"`
	QRCode   string         `json:"qrCode,omitempty"`
	Message  string         `json:"message,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}

// Message is the wire form of both chat turn shapes. User turns carry
// Content and type "user"; assistant turns carry Message and type
// "assistant".
type Message struct {
	ID                string         `json:"id,omitempty"`
	ConversationID    string         `json:"conversationId,omitempty"`
	Content           string         `json:"content,omitempty"`
	Message           string         `json:"message,omitempty"`
	Type              string         `json:"type,omitempty"`
	Role              string         `json:"role,omitempty"`
	IsNewConversation bool           `json:"isNewConversation,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// ChatRoom is conversation-level metadata attached to a history page.
type ChatRoom struct {
	ID            string     `json:"id"`
	AssistantID   string     `json:"assistantId,omitempty"`
	PhoneNumber   string     `json:"phoneNumber,omitempty"`
	AutoReply     *bool      `json:"autoReply,omitempty"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
}

type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

type HistoryData struct {
	Messages   []Message  `json:"messages"`
	ChatRoom   *ChatRoom  `json:"chatRoom,omitempty"`
	Pagination Pagination `json:"pagination"`
}

type HistoryResponse struct {
	Success bool        `json:"success"`
	Data    HistoryData `json:"data"`
	Message string      `json:"message,omitempty"`
}

// SendData is the payload of a send or reply response.
type SendData struct {
	ID                string         `json:"id,omitempty"`
	Message           string         `json:"message,omitempty"`
	ConversationID    string         `json:"conversationId"`
	CreatedAt         time.Time      `json:"createdAt"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	IsNewConversation bool           `json:"isNewConversation,omitempty"`
}

type SendResponse struct {
	Success bool     `json:"success"`
	Data    SendData `json:"data"`
	Message string   `json:"message,omitempty"`
}

type SendRequest struct {
	AssistantID    string `json:"assistantId"`
	ConversationID string `json:"conversationId,omitempty"`
	Message        string `json:"message"`
}

type ReplyRequest struct {
	Message   string `json:"message"`
	AutoReply bool   `json:"autoReply,omitempty"`
}

type AutoReplyRequest struct {
	AutoReply bool `json:"autoReply"`
}

// AutoReplyResponse accepts the confirmed flag either at the top level or
// inside the data envelope.
type AutoReplyResponse struct {
	Success   bool  `json:"success"`
	AutoReply *bool `json:"autoReply,omitempty"`
	Data      *struct {
		AutoReply *bool `json:"autoReply,omitempty"`
	} `json:"data,omitempty"`
}

// Confirmed returns the server-confirmed value, falling back to requested
// when the server echoes nothing.
func (r AutoReplyResponse) Confirmed(requested bool) bool {
	if r.Data != nil && r.Data.AutoReply != nil {
		return *r.Data.AutoReply
	}
	if r.AutoReply != nil {
		return *r.AutoReply
	}
	return requested
}

type Conversation struct {
	ID            string     `json:"id"`
	AssistantID   string     `json:"assistantId"`
	PhoneNumber   string     `json:"phoneNumber"`
	AutoReply     bool       `json:"autoReply"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
}

type ConversationsResponse struct {
	Success bool           `json:"success"`
	Data    []Conversation `json:"data"`
}

// UnmarshalJSON accepts both {"data": [...]} and {"data": {"conversations": [...]}}.
func (r *ConversationsResponse) UnmarshalJSON(b []byte) error {
	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Success = raw.Success
	if len(raw.Data) == 0 || string(raw.Data) == "null" {
		return nil
	}
	if raw.Data[0] == '[' {
		return json.Unmarshal(raw.Data, &r.Data)
	}
	var nested struct {
		Conversations []Conversation `json:"conversations"`
	}
	if err := json.Unmarshal(raw.Data, &nested); err != nil {
		return err
	}
	r.Data = nested.Conversations
	return nil
}
