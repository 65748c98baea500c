package chat

import (
	"context"

	"github.com/NextMind-AI/dashsync/metrics"
	"github.com/rs/zerolog/log"
)

// StartSilentRefresh reloads the newest page of the selected conversation
// every RefreshInterval. Ticks are skipped while the user is typing or a
// send is in flight, and failures are only logged. The loop follows
// conversation switches until StopSilentRefresh or Close.
func (s *Synchronizer) StartSilentRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.refreshWanted = true
	if s.refreshCtx == nil {
		s.startRefreshLocked()
	}
}

func (s *Synchronizer) StopSilentRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshWanted = false
	s.stopRefreshLocked()
}

// startRefreshLocked (re)creates the loop for the current conversation.
func (s *Synchronizer) startRefreshLocked() {
	s.stopRefreshLocked()
	if s.conversationID == "" {
		return
	}
	s.refreshCtx = s.opts.Tasks.Start(s.key)
	s.armRefreshLocked(s.refreshCtx)
	log.Debug().
		Str("conversation_id", s.conversationID).
		Dur("interval", s.opts.RefreshInterval).
		Msg("Silent refresh started")
}

func (s *Synchronizer) armRefreshLocked(ctx context.Context) {
	s.refreshTimer = s.opts.Clock.AfterFunc(s.opts.RefreshInterval, func() {
		s.refreshTick(ctx)
	})
}

func (s *Synchronizer) stopRefreshLocked() {
	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
		s.refreshTimer = nil
	}
	if s.refreshCtx != nil {
		s.opts.Tasks.Cleanup(s.key, s.refreshCtx)
		s.refreshCtx = nil
	}
}

func (s *Synchronizer) refreshTick(ctx context.Context) {
	s.mu.Lock()
	if s.refreshCtx != ctx || !s.opts.Tasks.Current(s.key, ctx) {
		s.mu.Unlock()
		return
	}
	s.armRefreshLocked(ctx)

	if s.typingLocked() || s.sending {
		s.mu.Unlock()
		metrics.RecordRefresh("skipped")
		return
	}
	if s.loading || s.loadingMore {
		s.mu.Unlock()
		metrics.RecordRefresh("busy")
		return
	}

	limit := s.opts.PageSize
	if visible := s.confirmedCountLocked(); visible > limit {
		limit = visible
	}
	s.mu.Unlock()

	if _, err := s.LoadMessages(ctx, LoadOptions{Reset: true, Limit: limit, Silent: true}); err != nil {
		metrics.RecordRefresh("error")
		return
	}
	metrics.RecordRefresh("ok")
}

func (s *Synchronizer) confirmedCountLocked() int {
	n := 0
	for _, m := range s.messages {
		if !m.Temp {
			n++
		}
	}
	return n
}
