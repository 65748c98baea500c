package openai

import (
	"strings"

	"github.com/NextMind-AI/dashsync/chat"
	"github.com/NextMind-AI/dashsync/redis"
	"github.com/openai/openai-go"
)

const (
	roleUser      = "user"
	roleAssistant = "assistant"
)

// convertChatHistory turns stored history into completion messages, led by
// the system prompt.
func convertChatHistory(chatHistory []redis.ChatMessage, prompt string) []openai.ChatCompletionMessageParamUnion {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(prompt),
	}
	for _, msg := range chatHistory {
		switch msg.Role {
		case roleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case roleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}
	return messages
}

func toChatMessage(conversationID string, msg redis.ChatMessage) chat.Message {
	kind := chat.KindAssistantTurn
	if msg.Role == roleUser {
		kind = chat.KindUserTurn
	}
	return chat.Message{
		ID:             msg.MessageUUID,
		ConversationID: conversationID,
		Kind:           kind,
		Content:        msg.Content,
		CreatedAt:      msg.Timestamp,
	}
}

// joinMessages flattens a structured reply into one turn, one bubble per
// paragraph.
func joinMessages(list MessageList) string {
	parts := make([]string, 0, len(list.Messages))
	for _, m := range list.Messages {
		if text := strings.TrimSpace(m.Content); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}
