package chat

import (
	"context"

	"github.com/rs/zerolog/log"
)

// OnScroll loads older history once the pane is scrolled within
// TopThreshold pixels of the top.
func (s *Synchronizer) OnScroll(ctx context.Context, vp Viewport) error {
	if vp.ScrollTop() > TopThreshold {
		return nil
	}
	return s.OnReachTop(ctx, vp)
}

// OnReachTop prepends the next older page and restores the scroll offset so
// the messages that were on screen stay where they were.
func (s *Synchronizer) OnReachTop(ctx context.Context, vp Viewport) error {
	s.mu.Lock()
	ready := !s.closed && s.conversationID != "" && s.cursor.HasMore && !s.loadingMore && !s.loading
	s.mu.Unlock()
	if !ready {
		return nil
	}

	vp.SetAutoScroll(false)
	defer vp.SetAutoScroll(true)

	oldHeight := vp.ScrollHeight()
	oldTop := vp.ScrollTop()

	if _, err := s.LoadMessages(ctx, LoadOptions{}); err != nil {
		return err
	}

	newHeight := vp.ScrollHeight()
	vp.SetScrollTop(oldTop + (newHeight - oldHeight))

	log.Debug().
		Float64("old_height", oldHeight).
		Float64("new_height", newHeight).
		Msg("Older messages loaded, scroll position restored")
	return nil
}
