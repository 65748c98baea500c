package channels

import (
	"context"
	"errors"
	"fmt"

	"github.com/NextMind-AI/dashsync/api"
	"github.com/NextMind-AI/dashsync/chat"
	"github.com/rs/zerolog/log"
)

var ErrConversationRequired = errors.New("whatsapp replies need an existing conversation")

// WhatsApp serves conversations with WhatsApp contacts. Conversations are
// opened by the contact, so every send targets an existing one.
type WhatsApp struct {
	client *api.Client
}

func NewWhatsApp(client *api.Client) *WhatsApp {
	return &WhatsApp{client: client}
}

func (w *WhatsApp) FetchHistory(ctx context.Context, req chat.HistoryRequest) (chat.HistoryPage, error) {
	if req.ConversationID == "" {
		return chat.HistoryPage{}, ErrConversationRequired
	}

	resp, err := w.client.Messages(ctx, req.ConversationID, req.Limit, req.Offset)
	if err != nil {
		return chat.HistoryPage{}, fmt.Errorf("whatsapp messages: %w", err)
	}
	return historyPage(resp), nil
}

func (w *WhatsApp) SendTurn(ctx context.Context, req chat.TurnRequest) (chat.TurnResult, error) {
	if req.ConversationID == "" {
		return chat.TurnResult{}, ErrConversationRequired
	}

	resp, err := w.client.Reply(ctx, req.ConversationID, api.ReplyRequest{
		Message:   req.Text,
		AutoReply: req.Mode == chat.ModeAutoReply,
	})
	if err != nil {
		return chat.TurnResult{}, fmt.Errorf("whatsapp reply: %w", err)
	}

	log.Info().
		Str("conversation_id", req.ConversationID).
		Str("mode", string(req.Mode)).
		Msg("WhatsApp reply sent")

	return turnResult(resp, req.ConversationID), nil
}

func (w *WhatsApp) ToggleAutoReply(ctx context.Context, conversationID string, enabled bool) (bool, error) {
	confirmed, err := w.client.SetAutoReply(ctx, conversationID, enabled)
	if err != nil {
		return false, fmt.Errorf("whatsapp auto-reply: %w", err)
	}
	return confirmed, nil
}

func (w *WhatsApp) ListConversations(ctx context.Context, assistantID string) ([]chat.Conversation, error) {
	raw, err := w.client.Conversations(ctx, assistantID)
	if err != nil {
		return nil, fmt.Errorf("whatsapp conversations: %w", err)
	}

	conversations := make([]chat.Conversation, 0, len(raw))
	for _, c := range raw {
		conversations = append(conversations, chat.Conversation{
			ID:              c.ID,
			AssistantID:     c.AssistantID,
			ContactIdentity: c.PhoneNumber,
			AutoReply:       c.AutoReply,
			LastMessageAt:   c.LastMessageAt,
		})
	}
	return conversations, nil
}

var (
	_ chat.Channel            = (*WhatsApp)(nil)
	_ chat.AutoReplyToggler   = (*WhatsApp)(nil)
	_ chat.ConversationLister = (*WhatsApp)(nil)
)
