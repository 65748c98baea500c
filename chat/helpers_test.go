package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/NextMind-AI/dashsync/clock"
	"github.com/NextMind-AI/dashsync/notify"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeChannel serves history from an in-memory list per conversation,
// newest last, the way the backend pages from the newest end.
type fakeChannel struct {
	mu sync.Mutex

	history   map[string][]Message
	autoReply map[string]bool
	fetchErr  error

	sendReply   string
	sendConvID  string
	sendErr     error
	sendRequest TurnRequest

	requests []HistoryRequest

	onFetch func(req HistoryRequest)
	onSend  func()
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		history:   make(map[string][]Message),
		autoReply: make(map[string]bool),
	}
}

func (f *fakeChannel) seed(conversationID string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		f.history[conversationID] = append(f.history[conversationID], Message{
			ID:             fmt.Sprintf("%s-m%d", conversationID, i),
			ConversationID: conversationID,
			Kind:           KindUserTurn,
			Content:        fmt.Sprintf("message %d", i),
			CreatedAt:      baseTime.Add(time.Duration(i) * time.Minute),
		})
	}
}

func (f *fakeChannel) FetchHistory(ctx context.Context, req HistoryRequest) (HistoryPage, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	hook := f.onFetch
	f.onFetch = nil
	err := f.fetchErr
	all := f.history[req.ConversationID]
	auto, hasAuto := f.autoReply[req.ConversationID]
	f.mu.Unlock()

	if hook != nil {
		hook(req)
	}
	if err != nil {
		return HistoryPage{}, err
	}

	end := len(all) - req.Offset
	if end < 0 {
		end = 0
	}
	start := end - req.Limit
	if start < 0 {
		start = 0
	}
	page := HistoryPage{HasMore: start > 0}
	// newest first, the order the backend returns
	for i := end - 1; i >= start; i-- {
		page.Messages = append(page.Messages, all[i])
	}
	if hasAuto {
		page.AutoReply = &auto
	}
	return page, nil
}

func (f *fakeChannel) SendTurn(ctx context.Context, req TurnRequest) (TurnResult, error) {
	f.mu.Lock()
	f.sendRequest = req
	hook := f.onSend
	f.onSend = nil
	reply, convID, err := f.sendReply, f.sendConvID, f.sendErr
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return TurnResult{}, err
	}
	if convID == "" {
		convID = req.ConversationID
	}
	return TurnResult{
		Reply:             Message{ID: "reply-1", Content: reply, CreatedAt: baseTime.Add(time.Hour)},
		ConversationID:    convID,
		IsNewConversation: req.ConversationID == "",
	}, nil
}

func (f *fakeChannel) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeChannel) lastRequest() HistoryRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

// togglingChannel adds the auto-reply capability.
type togglingChannel struct {
	*fakeChannel
	confirmed bool
	toggleErr error
	toggles   int
}

func (c *togglingChannel) ToggleAutoReply(ctx context.Context, conversationID string, enabled bool) (bool, error) {
	c.toggles++
	if c.toggleErr != nil {
		return false, c.toggleErr
	}
	return c.confirmed, nil
}

type fakeViewport struct {
	owner      *Synchronizer
	rowHeight  float64
	top        float64
	autoScroll []bool
}

func (v *fakeViewport) ScrollHeight() float64 {
	return float64(len(v.owner.Messages())) * v.rowHeight
}

func (v *fakeViewport) ScrollTop() float64 { return v.top }

func (v *fakeViewport) SetScrollTop(top float64) { v.top = top }

func (v *fakeViewport) SetAutoScroll(enabled bool) {
	v.autoScroll = append(v.autoScroll, enabled)
}

func newTestSynchronizer(channel Channel, pageSize int) (*Synchronizer, *clock.Fake, *notify.Recorder) {
	fake := clock.NewFake(baseTime)
	recorder := notify.NewRecorder()
	s := NewSynchronizer(channel, Options{
		Clock:    fake,
		Notifier: recorder,
		PageSize: pageSize,
	})
	s.SelectAssistant("assistant-1")
	return s, fake, recorder
}

func countTemp(messages []Message) int {
	n := 0
	for _, m := range messages {
		if m.Temp {
			n++
		}
	}
	return n
}
