// Package chat keeps the message list of one selected conversation in sync
// with a chat backend: optimistic sends, auto-reply toggling, silent
// periodic refresh and backward pagination with scroll anchoring.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/NextMind-AI/dashsync/clock"
	"github.com/NextMind-AI/dashsync/execution"
	"github.com/NextMind-AI/dashsync/notify"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPageSize        = 20
	DefaultRefreshInterval = 3 * time.Second
	// TopThreshold is how close to the top of the pane, in pixels, a scroll
	// must get before older history is requested.
	TopThreshold = 50.0
)

var (
	ErrEmptyMessage         = errors.New("message text is empty")
	ErrNoAssistant          = errors.New("no assistant selected")
	ErrNoConversation       = errors.New("auto-reply requires an existing conversation")
	ErrSendInProgress       = errors.New("a message is already being sent")
	ErrAutoReplyUnsupported = errors.New("channel does not support auto-reply")
	ErrToggleInProgress     = errors.New("auto-reply update already in progress")
	ErrClosed               = errors.New("synchronizer is closed")
)

type Options struct {
	Clock           clock.Clock
	Notifier        notify.Notifier
	Tasks           *execution.Manager
	PageSize        int
	RefreshInterval time.Duration
	// OnConversationCreated receives the id of a conversation created by a
	// send so the caller can adopt it as the active one.
	OnConversationCreated func(conversationID string)
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = clock.Real{}
	}
	if o.Notifier == nil {
		o.Notifier = notify.Logger{Component: "chat"}
	}
	if o.Tasks == nil {
		o.Tasks = execution.NewManager()
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.RefreshInterval <= 0 {
		o.RefreshInterval = DefaultRefreshInterval
	}
	return o
}

// LoadOptions selects between a reset load (replace the list with the newest
// page) and an older-page load (prepend the page before the current head).
type LoadOptions struct {
	Reset  bool
	Offset int
	Limit  int
	// Silent suppresses failure notices. Used by the refresh loop.
	Silent bool
}

type Synchronizer struct {
	channel Channel
	opts    Options
	// key identifies this synchronizer's refresh loop in opts.Tasks.
	key string

	mu             sync.Mutex
	assistantID    string
	conversationID string
	messages       []Message
	cursor         Cursor
	status         Status
	autoReply      bool
	draft          string
	loading        bool
	loadingMore    bool
	sending        bool
	toggling       bool
	closed         bool
	// generation changes whenever the list is re-established (conversation
	// switch, reset load, close). Responses fetched under an older
	// generation are discarded.
	generation int
	// selection changes on conversation switch and close only.
	selection int
	// pending holds the optimistic turns of the in-flight send so a reset
	// load does not drop them.
	pending []Message

	refreshWanted bool
	refreshCtx    context.Context
	refreshTimer  clock.Timer
}

func NewSynchronizer(channel Channel, opts Options) *Synchronizer {
	opts = opts.withDefaults()
	return &Synchronizer{
		channel: channel,
		opts:    opts,
		key:     "refresh:" + uuid.NewString(),
		status:  StatusStandby,
		cursor:  Cursor{Limit: opts.PageSize},
	}
}

func (s *Synchronizer) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messagesLocked()
}

func (s *Synchronizer) messagesLocked() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Synchronizer) Cursor() Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

func (s *Synchronizer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Synchronizer) AutoReply() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoReply
}

func (s *Synchronizer) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

func (s *Synchronizer) AssistantID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assistantID
}

func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		AssistantID:    s.assistantID,
		ConversationID: s.conversationID,
		Messages:       s.messagesLocked(),
		Cursor:         s.cursor,
		Status:         s.status,
		AutoReply:      s.autoReply,
		Draft:          s.draft,
		Loading:        s.loading,
		LoadingMore:    s.loadingMore,
		Refreshing:     s.opts.Tasks.Active(s.key),
	}
}

// SelectAssistant switches the assistant context. Changing assistant drops
// the selected conversation.
func (s *Synchronizer) SelectAssistant(assistantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.assistantID == assistantID {
		return
	}
	s.assistantID = assistantID
	s.clearConversationLocked("")
}

// SelectConversation switches the active conversation, reloads its newest
// page and recreates the refresh loop. An empty id clears the pane.
func (s *Synchronizer) SelectConversation(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.clearConversationLocked(conversationID)
	s.mu.Unlock()

	log.Debug().Str("conversation_id", conversationID).Msg("Conversation selected")

	_, err := s.LoadMessages(ctx, LoadOptions{Reset: true})

	s.mu.Lock()
	if s.refreshWanted && s.conversationID == conversationID {
		s.startRefreshLocked()
	}
	s.mu.Unlock()
	return err
}

func (s *Synchronizer) clearConversationLocked(conversationID string) {
	s.stopRefreshLocked()
	s.generation++
	s.selection++
	s.conversationID = conversationID
	s.messages = nil
	s.cursor = Cursor{Limit: s.opts.PageSize}
	s.autoReply = false
	s.loading = false
	s.loadingMore = false
	s.sending = false
	s.toggling = false
	s.pending = nil
	if s.status == StatusGenerating {
		s.status = StatusStandby
	}
}

// SetDraft records the composer text. A non-empty draft means the user is
// typing, which suspends the silent refresh.
func (s *Synchronizer) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = text
	switch {
	case text != "" && s.status == StatusStandby:
		s.status = StatusListening
	case text == "" && s.status == StatusListening:
		s.status = StatusStandby
	}
}

func (s *Synchronizer) typingLocked() bool {
	return s.draft != ""
}

// Close stops the refresh loop and discards every in-flight response.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshWanted = false
	s.stopRefreshLocked()
	s.generation++
	s.selection++
	s.closed = true
	s.loading = false
	s.loadingMore = false
}

// LoadMessages fetches a page of the selected conversation and returns the
// resulting list. A reset load replaces the list and always wins over an
// older-page load fetched across it. Older-page loads are no-ops once the
// cursor reports no more history.
func (s *Synchronizer) LoadMessages(ctx context.Context, opts LoadOptions) ([]Message, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.conversationID == "" {
		s.messages = nil
		s.cursor.Offset = 0
		s.cursor.HasMore = false
		s.mu.Unlock()
		return nil, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.opts.PageSize
	}

	var offset int
	if opts.Reset {
		if s.loading {
			current := s.messagesLocked()
			s.mu.Unlock()
			return current, nil
		}
		s.loading = true
		s.generation++
		s.loadingMore = false
	} else {
		if s.loading || s.loadingMore {
			current := s.messagesLocked()
			s.mu.Unlock()
			return current, nil
		}
		if !s.cursor.HasMore {
			current := s.messagesLocked()
			s.mu.Unlock()
			return current, nil
		}
		s.loadingMore = true
		offset = opts.Offset
		if offset <= 0 {
			offset = s.cursor.Offset
		}
	}
	generation := s.generation
	req := HistoryRequest{
		AssistantID:    s.assistantID,
		ConversationID: s.conversationID,
		Offset:         offset,
		Limit:          limit,
	}
	s.mu.Unlock()

	page, err := s.channel.FetchHistory(ctx, req)

	s.mu.Lock()
	if s.generation != generation || s.conversationID != req.ConversationID {
		current := s.messagesLocked()
		s.mu.Unlock()
		log.Debug().
			Str("conversation_id", req.ConversationID).
			Bool("reset", opts.Reset).
			Msg("Discarding stale history response")
		return current, nil
	}

	if opts.Reset {
		s.loading = false
	} else {
		s.loadingMore = false
	}

	if err != nil {
		s.mu.Unlock()
		log.Warn().Err(err).
			Str("conversation_id", req.ConversationID).
			Bool("reset", opts.Reset).
			Msg("Failed to load messages")
		if !opts.Silent {
			if opts.Reset {
				s.opts.Notifier.Notify(notify.KindError, fmt.Sprintf("Failed to load messages: %v", err))
			} else {
				s.opts.Notifier.Notify(notify.KindError, fmt.Sprintf("Failed to load older messages: %v", err))
			}
		}
		return nil, fmt.Errorf("load messages: %w", err)
	}

	fetched := make([]Message, len(page.Messages))
	copy(fetched, page.Messages)
	SortMessages(fetched)

	if opts.Reset {
		s.messages = appendMissing(fetched, s.pending)
		s.cursor.Offset = limit
	} else {
		s.messages = prependOlder(s.messages, fetched)
		s.cursor.Offset = offset + limit
	}
	s.cursor.Limit = limit
	s.cursor.HasMore = page.HasMore
	if page.AutoReply != nil {
		s.autoReply = *page.AutoReply
	}
	current := s.messagesLocked()
	s.mu.Unlock()

	return current, nil
}

func appendMissing(list, extra []Message) []Message {
	if len(extra) == 0 {
		return list
	}
	seen := make(map[string]struct{}, len(list))
	for _, m := range list {
		seen[m.ID] = struct{}{}
	}
	for _, m := range extra {
		if _, ok := seen[m.ID]; !ok {
			list = append(list, m)
		}
	}
	return list
}

// prependOlder puts the older page in front of the current list, skipping
// messages that are already shown.
func prependOlder(current, older []Message) []Message {
	seen := make(map[string]struct{}, len(current))
	for _, m := range current {
		if m.ID != "" {
			seen[m.ID] = struct{}{}
		}
	}

	merged := make([]Message, 0, len(current)+len(older))
	for _, m := range older {
		if _, ok := seen[m.ID]; ok && m.ID != "" {
			continue
		}
		merged = append(merged, m)
	}
	return append(merged, current...)
}
