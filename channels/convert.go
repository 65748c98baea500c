// Package channels adapts the dashboard backend's chat endpoints to the
// chat.Channel capability set: the assistant playground and WhatsApp
// conversations.
package channels

import (
	"strings"
	"time"

	"github.com/NextMind-AI/dashsync/api"
	"github.com/NextMind-AI/dashsync/chat"
	"github.com/google/uuid"
)

// ToChatMessage maps a wire message onto the tagged chat variant. User turns
// carry their text in content, assistant turns in message; either field is
// accepted as a fallback.
func ToChatMessage(m api.Message) chat.Message {
	out := chat.Message{
		ID:                m.ID,
		ConversationID:    m.ConversationID,
		CreatedAt:         m.CreatedAt,
		Metadata:          m.Metadata,
		IsNewConversation: m.IsNewConversation,
	}

	if isUserTurn(m) {
		out.Kind = chat.KindUserTurn
		out.Content = firstNonEmpty(m.Content, m.Message)
	} else {
		out.Kind = chat.KindAssistantTurn
		out.Content = firstNonEmpty(m.Message, m.Content)
	}
	if out.ID == "" {
		out.ID = derivedID(out)
	}
	return out
}

// derivedID gives id-less wire messages a stable id so the same message
// fetched twice is recognised as already shown.
func derivedID(m chat.Message) string {
	key := m.ConversationID + "|" + string(m.Kind) + "|" + m.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + m.Content
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

func isUserTurn(m api.Message) bool {
	kind := strings.ToLower(firstNonEmpty(m.Type, m.Role))
	switch kind {
	case "user", "human", "customer", "inbound":
		return true
	case "":
		return m.Message == "" && m.Content != ""
	}
	return false
}

func historyPage(resp *api.HistoryResponse) chat.HistoryPage {
	page := chat.HistoryPage{
		Messages: make([]chat.Message, 0, len(resp.Data.Messages)),
		HasMore:  resp.Data.Pagination.HasMore,
	}
	for _, m := range resp.Data.Messages {
		page.Messages = append(page.Messages, ToChatMessage(m))
	}
	if resp.Data.ChatRoom != nil && resp.Data.ChatRoom.AutoReply != nil {
		autoReply := *resp.Data.ChatRoom.AutoReply
		page.AutoReply = &autoReply
	}
	return page
}

func turnResult(resp *api.SendResponse, conversationID string) chat.TurnResult {
	data := resp.Data
	if data.ConversationID != "" {
		conversationID = data.ConversationID
	}
	return chat.TurnResult{
		Reply: chat.Message{
			ID:                data.ID,
			ConversationID:    conversationID,
			Kind:              chat.KindAssistantTurn,
			Content:           data.Message,
			CreatedAt:         data.CreatedAt,
			Metadata:          data.Metadata,
			IsNewConversation: data.IsNewConversation,
		},
		ConversationID:    conversationID,
		IsNewConversation: data.IsNewConversation,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
