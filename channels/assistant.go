package channels

import (
	"context"
	"errors"
	"fmt"

	"github.com/NextMind-AI/dashsync/api"
	"github.com/NextMind-AI/dashsync/chat"
	"github.com/rs/zerolog/log"
)

var ErrAutoReplySend = errors.New("assistant playground does not send auto-replies")

// Assistant is the assistant playground: history is scoped by assistant and
// a send without a conversation starts a new one.
type Assistant struct {
	client *api.Client
}

func NewAssistant(client *api.Client) *Assistant {
	return &Assistant{client: client}
}

func (a *Assistant) FetchHistory(ctx context.Context, req chat.HistoryRequest) (chat.HistoryPage, error) {
	if req.AssistantID == "" {
		return chat.HistoryPage{}, chat.ErrNoAssistant
	}

	resp, err := a.client.History(ctx, req.AssistantID, req.ConversationID, req.Limit, req.Offset)
	if err != nil {
		return chat.HistoryPage{}, fmt.Errorf("assistant history: %w", err)
	}

	log.Debug().
		Str("assistant_id", req.AssistantID).
		Str("conversation_id", req.ConversationID).
		Int("count", len(resp.Data.Messages)).
		Msg("Assistant history loaded")

	return historyPage(resp), nil
}

func (a *Assistant) SendTurn(ctx context.Context, req chat.TurnRequest) (chat.TurnResult, error) {
	if req.Mode == chat.ModeAutoReply {
		return chat.TurnResult{}, ErrAutoReplySend
	}

	resp, err := a.client.Send(ctx, api.SendRequest{
		AssistantID:    req.AssistantID,
		ConversationID: req.ConversationID,
		Message:        req.Text,
	})
	if err != nil {
		return chat.TurnResult{}, fmt.Errorf("assistant send: %w", err)
	}
	return turnResult(resp, req.ConversationID), nil
}
