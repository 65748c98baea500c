package server

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRoutes() {
	s.app.Get("/health", s.healthCheckHandler)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	s.app.Get("/notices", s.noticesHandler)

	s.app.Get("/connections", s.listConnectionsHandler)
	s.app.Post("/connections/:settingId", s.initiateConnectionHandler)
	s.app.Get("/connections/:settingId", s.getConnectionHandler)
	s.app.Delete("/connections/:settingId", s.cancelConnectionHandler)

	s.app.Post("/playgrounds", s.createPlaygroundHandler)
	s.app.Get("/playgrounds/:id", s.getPlaygroundHandler)
	s.app.Delete("/playgrounds/:id", s.deletePlaygroundHandler)
	s.app.Put("/playgrounds/:id/conversation", s.selectConversationHandler)
	s.app.Get("/playgrounds/:id/conversations", s.listConversationsHandler)
	s.app.Post("/playgrounds/:id/messages", s.sendMessageHandler)
	s.app.Post("/playgrounds/:id/older", s.loadOlderHandler)
	s.app.Put("/playgrounds/:id/auto-reply", s.autoReplyHandler)
	s.app.Put("/playgrounds/:id/draft", s.draftHandler)
	s.app.Put("/playgrounds/:id/refresh", s.refreshHandler)
}

func (s *Server) healthCheckHandler(c fiber.Ctx) error {
	connections, polling := 0, 0
	if s.connections != nil {
		connections = len(s.connections.Sessions())
		polling = s.connections.ActiveLoops()
	}
	return c.JSON(fiber.Map{
		"status":      "ok",
		"connections": connections,
		"polling":     polling,
		"playgrounds": s.playgrounds.count(),
	})
}

// noticesHandler returns and clears the notices raised since the last call.
func (s *Server) noticesHandler(c fiber.Ctx) error {
	notices := s.notices.Drain()
	if notices == nil {
		return c.JSON([]any{})
	}
	return c.JSON(notices)
}

func errorJSON(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}
