// Package server is the local HTTP bridge that exposes connection pollers and
// chat playgrounds to a browser dashboard.
package server

import (
	"time"

	"github.com/NextMind-AI/dashsync/chat"
	"github.com/NextMind-AI/dashsync/connection"
	"github.com/NextMind-AI/dashsync/notify"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// Deps are the collaborators the bridge serves.
type Deps struct {
	Connections *connection.Registry
	// Channels maps a channel name ("assistant", "whatsapp", ...) to the
	// capability set playgrounds of that kind use.
	Channels     map[string]chat.Channel
	ChatOptions  chat.Options
	Notices      *notify.Recorder
	QRCodes      *QRTracker
	AllowOrigins []string
	// PlaygroundIdleTTL closes playgrounds nobody has touched for this
	// long. Zero keeps them until deleted.
	PlaygroundIdleTTL time.Duration
}

type Server struct {
	app         *fiber.App
	connections *connection.Registry
	channels    map[string]chat.Channel
	chatOptions chat.Options
	playgrounds *playgrounds
	notices     *notify.Recorder
	qrCodes     *QRTracker
	stopReaper  chan struct{}
}

func New(deps Deps) *Server {
	app := fiber.New()

	if deps.Notices == nil {
		deps.Notices = notify.NewRecorder()
	}

	server := &Server{
		app:         app,
		connections: deps.Connections,
		channels:    deps.Channels,
		chatOptions: deps.ChatOptions,
		playgrounds: newPlaygrounds(),
		notices:     deps.Notices,
		qrCodes:     deps.QRCodes,
		stopReaper:  make(chan struct{}),
	}

	server.setupMiddleware(deps.AllowOrigins)
	server.setupRoutes()

	if deps.PlaygroundIdleTTL > 0 {
		go server.reapIdlePlaygrounds(deps.PlaygroundIdleTTL)
	}

	return server
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Start(port string) error {
	log.Info().Str("port", port).Msg("Starting dashsync bridge")

	return s.app.Listen(":"+port, fiber.ListenConfig{
		DisableStartupMessage: true,
	})
}

func (s *Server) reapIdlePlaygrounds(ttl time.Duration) {
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopReaper:
			return
		case <-ticker.C:
			for _, id := range s.playgrounds.closeIdle(ttl) {
				log.Info().Str("playground_id", id).Dur("idle_ttl", ttl).Msg("Idle playground closed")
			}
		}
	}
}

// Shutdown stops every poll loop and playground, then the HTTP listener.
func (s *Server) Shutdown() error {
	select {
	case <-s.stopReaper:
	default:
		close(s.stopReaper)
	}
	if s.connections != nil {
		s.connections.CancelAll()
	}
	s.playgrounds.closeAll()
	return s.app.Shutdown()
}
