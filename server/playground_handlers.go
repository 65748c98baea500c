package server

import (
	"errors"

	"github.com/NextMind-AI/dashsync/chat"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

const defaultChannel = "assistant"

func (s *Server) createPlaygroundHandler(c fiber.Ctx) error {
	var req CreatePlaygroundRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
	}
	if req.Channel == "" {
		req.Channel = defaultChannel
	}

	channel, ok := s.channels[req.Channel]
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "UNKNOWN_CHANNEL", "Unknown channel: "+req.Channel)
	}

	synchronizer := chat.NewSynchronizer(channel, s.chatOptions)
	synchronizer.SelectAssistant(req.AssistantID)
	pg := s.playgrounds.add(req.Channel, synchronizer)

	log.Info().
		Str("playground_id", pg.id).
		Str("channel", req.Channel).
		Str("assistant_id", req.AssistantID).
		Msg("Playground opened")

	if req.ConversationID != "" {
		// A failed first load is already reported as a notice.
		synchronizer.SelectConversation(c.Context(), req.ConversationID)
	}
	synchronizer.StartSilentRefresh()

	return c.Status(fiber.StatusCreated).JSON(pg.response())
}

func (s *Server) getPlaygroundHandler(c fiber.Ctx) error {
	pg, ok := s.playgrounds.get(c.Params("id"))
	if !ok {
		return playgroundNotFound(c)
	}
	return c.JSON(pg.response())
}

func (s *Server) deletePlaygroundHandler(c fiber.Ctx) error {
	pg, ok := s.playgrounds.remove(c.Params("id"))
	if !ok {
		return playgroundNotFound(c)
	}
	pg.synchronizer.Close()
	log.Info().Str("playground_id", pg.id).Msg("Playground closed")
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) selectConversationHandler(c fiber.Ctx) error {
	pg, ok := s.playgrounds.get(c.Params("id"))
	if !ok {
		return playgroundNotFound(c)
	}

	var req SelectConversationRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
	}

	if err := pg.synchronizer.SelectConversation(c.Context(), req.ConversationID); err != nil {
		return chatError(c, err)
	}
	return c.JSON(pg.response())
}

func (s *Server) listConversationsHandler(c fiber.Ctx) error {
	pg, ok := s.playgrounds.get(c.Params("id"))
	if !ok {
		return playgroundNotFound(c)
	}

	lister, ok := s.channels[pg.channel].(chat.ConversationLister)
	if !ok {
		return errorJSON(c, fiber.StatusNotImplemented, "UNSUPPORTED", "Channel cannot list conversations")
	}

	conversations, err := lister.ListConversations(c.Context(), pg.synchronizer.AssistantID())
	if err != nil {
		return chatError(c, err)
	}
	return c.JSON(conversations)
}

func (s *Server) sendMessageHandler(c fiber.Ctx) error {
	pg, ok := s.playgrounds.get(c.Params("id"))
	if !ok {
		return playgroundNotFound(c)
	}

	var req SendMessageRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
	}

	if err := pg.synchronizer.SendMessage(c.Context(), req.Text, req.Mode); err != nil {
		return chatError(c, err)
	}
	return c.JSON(pg.response())
}

func (s *Server) loadOlderHandler(c fiber.Ctx) error {
	pg, ok := s.playgrounds.get(c.Params("id"))
	if !ok {
		return playgroundNotFound(c)
	}

	if _, err := pg.synchronizer.LoadMessages(c.Context(), chat.LoadOptions{}); err != nil {
		return chatError(c, err)
	}
	return c.JSON(pg.response())
}

func (s *Server) autoReplyHandler(c fiber.Ctx) error {
	pg, ok := s.playgrounds.get(c.Params("id"))
	if !ok {
		return playgroundNotFound(c)
	}

	var req AutoReplyRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
	}

	if err := pg.synchronizer.ToggleAutoReply(c.Context(), req.Enabled); err != nil {
		return chatError(c, err)
	}
	return c.JSON(pg.response())
}

func (s *Server) draftHandler(c fiber.Ctx) error {
	pg, ok := s.playgrounds.get(c.Params("id"))
	if !ok {
		return playgroundNotFound(c)
	}

	var req DraftRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
	}

	pg.synchronizer.SetDraft(req.Text)
	return c.JSON(pg.response())
}

func (s *Server) refreshHandler(c fiber.Ctx) error {
	pg, ok := s.playgrounds.get(c.Params("id"))
	if !ok {
		return playgroundNotFound(c)
	}

	var req RefreshRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
	}

	if req.Enabled {
		pg.synchronizer.StartSilentRefresh()
	} else {
		pg.synchronizer.StopSilentRefresh()
	}
	return c.JSON(pg.response())
}

func playgroundNotFound(c fiber.Ctx) error {
	return errorJSON(c, fiber.StatusNotFound, "NOT_FOUND", "Playground not found")
}

func chatError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrNoAssistant),
		errors.Is(err, chat.ErrNoConversation),
		errors.Is(err, chat.ErrAutoReplyUnsupported):
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, chat.ErrSendInProgress),
		errors.Is(err, chat.ErrToggleInProgress):
		return errorJSON(c, fiber.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, chat.ErrClosed):
		return errorJSON(c, fiber.StatusGone, "CLOSED", err.Error())
	}
	return errorJSON(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", err.Error())
}
