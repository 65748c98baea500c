package redis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	historyPrefix = "chat_history:"
	historyTTL    = 24 * time.Hour
)

type ChatMessage struct {
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	MessageUUID string    `json:"message_uuid,omitempty"`
}

func historyKey(conversationID string) string {
	return historyPrefix + conversationID
}

func (c *Client) AddMessage(ctx context.Context, conversationID string, message ChatMessage) error {
	key := historyKey(conversationID)

	messageJSON, err := json.Marshal(message)
	if err != nil {
		return err
	}

	if err := c.rdb.RPush(ctx, key, messageJSON).Err(); err != nil {
		return err
	}

	c.rdb.Expire(ctx, key, historyTTL)

	return nil
}

func (c *Client) GetChatHistory(ctx context.Context, conversationID string) ([]ChatMessage, error) {
	messages, err := c.rdb.LRange(ctx, historyKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return decodeMessages(conversationID, messages), nil
}

// GetChatHistoryPage returns up to limit messages ending offset messages
// before the newest one, oldest first.
func (c *Client) GetChatHistoryPage(ctx context.Context, conversationID string, offset, limit int) ([]ChatMessage, bool, error) {
	key := historyKey(conversationID)

	total, err := c.rdb.LLen(ctx, key).Result()
	if err != nil {
		return nil, false, err
	}

	start, stop, hasMore, ok := pageRange(total, offset, limit)
	if !ok {
		return []ChatMessage{}, false, nil
	}

	messages, err := c.rdb.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, false, err
	}
	return decodeMessages(conversationID, messages), hasMore, nil
}

func (c *Client) ClearChatHistory(ctx context.Context, conversationID string) error {
	return c.rdb.Del(ctx, historyKey(conversationID)).Err()
}

// ListConversations returns the ids of every conversation with history.
func (c *Client) ListConversations(ctx context.Context) ([]string, error) {
	var ids []string
	iter := c.rdb.Scan(ctx, 0, historyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if id := strings.TrimPrefix(iter.Val(), historyPrefix); id != "" {
			ids = append(ids, id)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// pageRange converts a newest-first offset/limit window into LRANGE indexes
// over a list stored oldest first.
func pageRange(total int64, offset, limit int) (start, stop int64, hasMore, ok bool) {
	if limit <= 0 || int64(offset) >= total {
		return 0, 0, false, false
	}
	stop = total - int64(offset) - 1
	start = stop - int64(limit) + 1
	if start < 0 {
		start = 0
	}
	return start, stop, start > 0, true
}

func decodeMessages(conversationID string, raw []string) []ChatMessage {
	history := make([]ChatMessage, 0, len(raw))
	for _, message := range raw {
		var msg ChatMessage
		if err := json.Unmarshal([]byte(message), &msg); err != nil {
			log.Warn().Err(err).Str("conversation_id", conversationID).Msg("Skipping undecodable chat message")
			continue
		}
		history = append(history, msg)
	}
	return history
}
