package chat

import (
	"context"
	"sort"
	"time"
)

// Kind discriminates the two chat turn shapes.
type Kind string

const (
	KindUserTurn      Kind = "userTurn"
	KindAssistantTurn Kind = "assistantTurn"
)

// Message is one chat turn. Temp marks the "Typing…" placeholder shown while
// a send is in flight; it never carries server data.
type Message struct {
	ID                string         `json:"id"`
	ConversationID    string         `json:"conversationId,omitempty"`
	Kind              Kind           `json:"kind"`
	Content           string         `json:"content"`
	CreatedAt         time.Time      `json:"createdAt"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	IsNewConversation bool           `json:"isNewConversation,omitempty"`
	Temp              bool           `json:"temp,omitempty"`
}

type Conversation struct {
	ID              string     `json:"id"`
	AssistantID     string     `json:"assistantId,omitempty"`
	ContactIdentity string     `json:"contactIdentity,omitempty"`
	AutoReply       bool       `json:"autoReply"`
	LastMessageAt   *time.Time `json:"lastMessageAt,omitempty"`
}

// Cursor tracks backward pagination. Offset counts messages already loaded
// from the newest end.
type Cursor struct {
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"hasMore"`
}

type Status string

const (
	StatusStandby    Status = "standby"
	StatusListening  Status = "listening"
	StatusGenerating Status = "generating"
)

type SendMode string

const (
	ModeNewTurn   SendMode = "newTurn"
	ModeAutoReply SendMode = "autoReply"
)

type HistoryRequest struct {
	AssistantID    string
	ConversationID string
	Offset         int
	Limit          int
}

// HistoryPage is one page of history. AutoReply is set when the channel
// reports the conversation's current auto-reply flag.
type HistoryPage struct {
	Messages  []Message
	HasMore   bool
	AutoReply *bool
}

type TurnRequest struct {
	AssistantID    string
	ConversationID string
	Text           string
	Mode           SendMode
}

// TurnResult is the confirmed outcome of a send. ConversationID is the
// conversation the turn landed in, which may have just been created.
type TurnResult struct {
	Reply             Message
	ConversationID    string
	IsNewConversation bool
}

// Channel is the capability set a chat backend supplies.
type Channel interface {
	FetchHistory(ctx context.Context, req HistoryRequest) (HistoryPage, error)
	SendTurn(ctx context.Context, req TurnRequest) (TurnResult, error)
}

// AutoReplyToggler is implemented by channels whose conversations carry a
// server-side auto-reply flag.
type AutoReplyToggler interface {
	ToggleAutoReply(ctx context.Context, conversationID string, enabled bool) (bool, error)
}

// ConversationLister is implemented by channels that can enumerate their
// conversations.
type ConversationLister interface {
	ListConversations(ctx context.Context, assistantID string) ([]Conversation, error)
}

// Viewport is the scrollable message pane. ScrollHeight must reflect the
// current message list when it is read.
type Viewport interface {
	ScrollHeight() float64
	ScrollTop() float64
	SetScrollTop(top float64)
	SetAutoScroll(enabled bool)
}

// Snapshot is a copy of the synchronizer's observable state.
type Snapshot struct {
	AssistantID    string    `json:"assistantId,omitempty"`
	ConversationID string    `json:"conversationId,omitempty"`
	Messages       []Message `json:"messages"`
	Cursor         Cursor    `json:"cursor"`
	Status         Status    `json:"status"`
	AutoReply      bool      `json:"autoReply"`
	Draft          string    `json:"draft,omitempty"`
	Loading        bool      `json:"loading"`
	LoadingMore    bool      `json:"loadingMore"`
	Refreshing     bool      `json:"refreshing"`
}

// SortMessages orders messages ascending by CreatedAt, keeping the relative
// order of equal timestamps.
func SortMessages(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}
