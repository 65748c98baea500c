package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/NextMind-AI/dashsync/metrics"
	"github.com/NextMind-AI/dashsync/notify"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const typingPlaceholder = "Typing…"

// SendMessage submits text to the selected conversation. New turns are
// shown optimistically: the user turn and a temporary assistant placeholder
// are appended before the channel is called, and the placeholder is swapped
// for the confirmed reply once it arrives. Auto-reply sends require an
// existing conversation and only touch the list after confirmation.
func (s *Synchronizer) SendMessage(ctx context.Context, text string, mode SendMode) error {
	text = strings.TrimSpace(text)
	if mode == "" {
		mode = ModeNewTurn
	}

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	case text == "":
		s.mu.Unlock()
		s.opts.Notifier.Notify(notify.KindWarning, "Please enter a message")
		return ErrEmptyMessage
	case s.assistantID == "":
		s.mu.Unlock()
		s.opts.Notifier.Notify(notify.KindWarning, "Please select an assistant first")
		return ErrNoAssistant
	case mode == ModeAutoReply && s.conversationID == "":
		s.mu.Unlock()
		s.opts.Notifier.Notify(notify.KindWarning, "Auto-reply requires an existing conversation")
		return ErrNoConversation
	case s.sending:
		s.mu.Unlock()
		return ErrSendInProgress
	}

	now := s.opts.Clock.Now()
	req := TurnRequest{
		AssistantID:    s.assistantID,
		ConversationID: s.conversationID,
		Text:           text,
		Mode:           mode,
	}
	selection := s.selection

	userTurn := Message{
		ID:             uuid.NewString(),
		ConversationID: s.conversationID,
		Kind:           KindUserTurn,
		Content:        text,
		CreatedAt:      now,
	}
	var placeholder Message
	if mode == ModeNewTurn {
		placeholder = Message{
			ID:             "temp-" + uuid.NewString(),
			ConversationID: s.conversationID,
			Kind:           KindAssistantTurn,
			Content:        typingPlaceholder,
			CreatedAt:      now,
			Temp:           true,
		}
		s.pending = []Message{userTurn, placeholder}
		s.messages = append(s.messages, userTurn, placeholder)
	}
	s.sending = true
	s.status = StatusGenerating
	s.draft = ""
	s.mu.Unlock()

	log.Info().
		Str("assistant_id", req.AssistantID).
		Str("conversation_id", req.ConversationID).
		Str("mode", string(mode)).
		Msg("Sending chat message")

	result, err := s.channel.SendTurn(ctx, req)

	s.mu.Lock()
	if s.selection != selection {
		s.mu.Unlock()
		log.Debug().Str("conversation_id", req.ConversationID).Msg("Discarding send result for abandoned conversation")
		return nil
	}
	s.sending = false
	s.pending = nil
	s.status = StatusStandby
	s.messages = removeMessage(s.messages, placeholder.ID)

	if err != nil {
		s.mu.Unlock()
		metrics.RecordSend(string(mode), "error")
		log.Error().Err(err).Str("conversation_id", req.ConversationID).Msg("Failed to send chat message")
		s.opts.Notifier.Notify(notify.KindError, fmt.Sprintf("Failed to send message: %v", err))
		return fmt.Errorf("send message: %w", err)
	}

	conversationID := result.ConversationID
	if conversationID == "" {
		conversationID = req.ConversationID
	}
	created := req.ConversationID == "" && conversationID != ""
	if created {
		s.conversationID = conversationID
		userTurn.ConversationID = conversationID
		s.messages = replaceMessage(s.messages, userTurn)
	}

	if mode == ModeAutoReply {
		s.messages = append(s.messages, userTurn)
	}
	if reply := s.confirmedReply(result, conversationID); reply.Content != "" {
		s.messages = append(s.messages, reply)
	}
	if created && s.refreshWanted {
		s.startRefreshLocked()
	}
	s.mu.Unlock()

	metrics.RecordSend(string(mode), "ok")
	if created {
		log.Info().Str("conversation_id", conversationID).Msg("Conversation created by send")
		if s.opts.OnConversationCreated != nil {
			s.opts.OnConversationCreated(conversationID)
		}
	}
	return nil
}

func (s *Synchronizer) confirmedReply(result TurnResult, conversationID string) Message {
	reply := result.Reply
	reply.Kind = KindAssistantTurn
	reply.Temp = false
	if reply.ID == "" {
		reply.ID = uuid.NewString()
	}
	if reply.ConversationID == "" {
		reply.ConversationID = conversationID
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = s.opts.Clock.Now()
	}
	if result.IsNewConversation {
		reply.IsNewConversation = true
	}
	return reply
}

// ToggleAutoReply sets the conversation's auto-reply flag. Without a
// conversation only local state changes; otherwise the flag follows the
// server's confirmed value and is left untouched on failure.
func (s *Synchronizer) ToggleAutoReply(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.conversationID == "" {
		s.autoReply = enabled
		s.mu.Unlock()
		return nil
	}
	toggler, ok := s.channel.(AutoReplyToggler)
	if !ok {
		s.mu.Unlock()
		s.opts.Notifier.Notify(notify.KindWarning, "Auto-reply is not available for this channel")
		return ErrAutoReplyUnsupported
	}
	if s.toggling {
		s.mu.Unlock()
		return ErrToggleInProgress
	}
	s.toggling = true
	conversationID := s.conversationID
	selection := s.selection
	s.mu.Unlock()

	confirmed, err := toggler.ToggleAutoReply(ctx, conversationID, enabled)

	s.mu.Lock()
	if s.selection != selection {
		s.mu.Unlock()
		return nil
	}
	s.toggling = false
	if err != nil {
		s.mu.Unlock()
		log.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to toggle auto-reply")
		s.opts.Notifier.Notify(notify.KindError, fmt.Sprintf("Failed to update auto-reply: %v", err))
		return fmt.Errorf("toggle auto-reply: %w", err)
	}
	s.autoReply = confirmed
	s.mu.Unlock()

	log.Info().Str("conversation_id", conversationID).Bool("auto_reply", confirmed).Msg("Auto-reply updated")
	return nil
}

func removeMessage(messages []Message, id string) []Message {
	if id == "" {
		return messages
	}
	out := messages[:0:0]
	for _, m := range messages {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}

func replaceMessage(messages []Message, replacement Message) []Message {
	for i, m := range messages {
		if m.ID == replacement.ID {
			messages[i] = replacement
		}
	}
	return messages
}
