package openai

import (
	"context"
	"sync"

	"github.com/NextMind-AI/dashsync/redis"
)

// History stores playground conversations. *redis.Client implements it.
type History interface {
	AddMessage(ctx context.Context, conversationID string, message redis.ChatMessage) error
	GetChatHistory(ctx context.Context, conversationID string) ([]redis.ChatMessage, error)
	GetChatHistoryPage(ctx context.Context, conversationID string, offset, limit int) ([]redis.ChatMessage, bool, error)
}

// MemoryHistory is the History used when Redis is not configured.
type MemoryHistory struct {
	mu            sync.RWMutex
	conversations map[string][]redis.ChatMessage
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{conversations: make(map[string][]redis.ChatMessage)}
}

func (h *MemoryHistory) AddMessage(_ context.Context, conversationID string, message redis.ChatMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conversations[conversationID] = append(h.conversations[conversationID], message)
	return nil
}

func (h *MemoryHistory) GetChatHistory(_ context.Context, conversationID string) ([]redis.ChatMessage, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]redis.ChatMessage, len(h.conversations[conversationID]))
	copy(out, h.conversations[conversationID])
	return out, nil
}

func (h *MemoryHistory) GetChatHistoryPage(_ context.Context, conversationID string, offset, limit int) ([]redis.ChatMessage, bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	all := h.conversations[conversationID]
	end := len(all) - offset
	if limit <= 0 || end <= 0 {
		return []redis.ChatMessage{}, false, nil
	}
	start := end - limit
	if start < 0 {
		start = 0
	}
	out := make([]redis.ChatMessage, end-start)
	copy(out, all[start:end])
	return out, start > 0, nil
}

var (
	_ History = (*MemoryHistory)(nil)
	_ History = (*redis.Client)(nil)
)
