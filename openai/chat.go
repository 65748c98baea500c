package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NextMind-AI/dashsync/redis"
	"github.com/openai/openai-go"
	"github.com/rs/zerolog/log"
)

var ErrEmptyCompletion = errors.New("completion returned no choices")

// Reply generates the assistant's next turn for the given history as a
// structured message list.
func (c *Client) Reply(ctx context.Context, assistantID string, chatHistory []redis.ChatMessage) (MessageList, error) {
	messages := convertChatHistory(chatHistory, createSystemPrompt(assistantID))

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: createSchemaParam()},
		},
		Model: c.model,
	})
	if err != nil {
		return MessageList{}, err
	}
	if len(completion.Choices) == 0 {
		return MessageList{}, ErrEmptyCompletion
	}

	content := completion.Choices[0].Message.Content
	list, err := parseMessageList(content)
	if err != nil {
		log.Error().
			Err(err).
			Str("assistant_id", assistantID).
			Str("content", content).
			Msg("Error parsing structured reply")
		return MessageList{}, err
	}

	log.Info().
		Str("assistant_id", assistantID).
		Int("bubbles", len(list.Messages)).
		Int64("total_tokens", completion.Usage.TotalTokens).
		Msg("Assistant reply generated")

	return list, nil
}

// parseMessageList decodes a structured reply. Plain text that is not JSON
// is taken as a single bubble.
func parseMessageList(content string) (MessageList, error) {
	var list MessageList
	if err := json.Unmarshal([]byte(content), &list); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) && content != "" && content[0] != '{' {
			return MessageList{Messages: []Message{{Content: content}}}, nil
		}
		return MessageList{}, fmt.Errorf("decode message list: %w", err)
	}
	return list, nil
}
