package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NextMind-AI/dashsync/chat"
	"github.com/NextMind-AI/dashsync/redis"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrAutoReplySend = errors.New("local assistant does not send auto-replies")

// Replier generates the next assistant turn. Client implements it.
type Replier interface {
	Reply(ctx context.Context, assistantID string, chatHistory []redis.ChatMessage) (MessageList, error)
}

// Assistant is a chat.Channel that keeps history in a History store and
// answers with a Replier.
type Assistant struct {
	replier Replier
	history History
	now     func() time.Time
}

func NewAssistant(replier Replier, history History) *Assistant {
	if history == nil {
		history = NewMemoryHistory()
	}
	return &Assistant{replier: replier, history: history, now: time.Now}
}

func (a *Assistant) FetchHistory(ctx context.Context, req chat.HistoryRequest) (chat.HistoryPage, error) {
	if req.ConversationID == "" {
		return chat.HistoryPage{}, nil
	}

	stored, hasMore, err := a.history.GetChatHistoryPage(ctx, req.ConversationID, req.Offset, req.Limit)
	if err != nil {
		return chat.HistoryPage{}, fmt.Errorf("read history: %w", err)
	}

	page := chat.HistoryPage{
		Messages: make([]chat.Message, 0, len(stored)),
		HasMore:  hasMore,
	}
	for _, msg := range stored {
		page.Messages = append(page.Messages, toChatMessage(req.ConversationID, msg))
	}
	return page, nil
}

// SendTurn stores the user turn, generates a reply from the full history and
// stores it. A send without a conversation id starts a new conversation.
func (a *Assistant) SendTurn(ctx context.Context, req chat.TurnRequest) (chat.TurnResult, error) {
	if req.Mode == chat.ModeAutoReply {
		return chat.TurnResult{}, ErrAutoReplySend
	}

	conversationID := req.ConversationID
	isNew := conversationID == ""
	if isNew {
		conversationID = uuid.NewString()
	}

	userMsg := redis.ChatMessage{
		Role:        roleUser,
		Content:     req.Text,
		Timestamp:   a.now(),
		MessageUUID: uuid.NewString(),
	}
	if err := a.history.AddMessage(ctx, conversationID, userMsg); err != nil {
		return chat.TurnResult{}, fmt.Errorf("store user turn: %w", err)
	}

	chatHistory, err := a.history.GetChatHistory(ctx, conversationID)
	if err != nil {
		return chat.TurnResult{}, fmt.Errorf("read history: %w", err)
	}

	list, err := a.replier.Reply(ctx, req.AssistantID, chatHistory)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", conversationID).Msg("Error generating assistant reply")
		return chat.TurnResult{}, fmt.Errorf("generate reply: %w", err)
	}

	botMsg := redis.ChatMessage{
		Role:        roleAssistant,
		Content:     joinMessages(list),
		Timestamp:   a.now(),
		MessageUUID: uuid.NewString(),
	}
	if err := a.history.AddMessage(ctx, conversationID, botMsg); err != nil {
		return chat.TurnResult{}, fmt.Errorf("store assistant turn: %w", err)
	}

	reply := toChatMessage(conversationID, botMsg)
	reply.IsNewConversation = isNew
	return chat.TurnResult{
		Reply:             reply,
		ConversationID:    conversationID,
		IsNewConversation: isNew,
	}, nil
}
