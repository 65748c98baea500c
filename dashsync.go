// Package dashsync wires the dashboard backend client, the connection
// pollers and the chat channels into the local bridge server.
package dashsync

import (
	"context"
	"net/http"
	"time"

	"github.com/NextMind-AI/dashsync/api"
	"github.com/NextMind-AI/dashsync/aws"
	"github.com/NextMind-AI/dashsync/channels"
	"github.com/NextMind-AI/dashsync/chat"
	"github.com/NextMind-AI/dashsync/config"
	"github.com/NextMind-AI/dashsync/connection"
	"github.com/NextMind-AI/dashsync/notify"
	"github.com/NextMind-AI/dashsync/openai"
	"github.com/NextMind-AI/dashsync/redis"
	"github.com/NextMind-AI/dashsync/server"
	"github.com/rs/zerolog/log"
)

// App is the assembled bridge.
type App struct {
	config      *config.Config
	api         *api.Client
	redis       *redis.Client
	connections *connection.Registry
	channels    map[string]chat.Channel
	notices     *notify.Recorder
	server      *server.Server
}

// New builds every client from cfg. Redis, S3 and OpenAI are optional: when
// they are not configured the bridge runs with in-memory stores, raw QR data
// URIs and without the local assistant channel.
func New(cfg *config.Config) *App {
	httpClient := http.Client{Timeout: cfg.HTTPTimeout}

	apiClient := api.NewClient(cfg.APIBaseURL, api.StaticTenant{
		OrganizationID: cfg.OrganizationID,
		BranchID:       cfg.BranchID,
		Token:          cfg.APIToken,
	}, &httpClient)

	app := &App{
		config:  cfg,
		api:     apiClient,
		notices: notify.NewRecorder(),
		channels: map[string]chat.Channel{
			"assistant": channels.NewAssistant(apiClient),
			"whatsapp":  channels.NewWhatsApp(apiClient),
		},
	}

	var store connection.Store = connection.NewMemoryStore()
	var history openai.History = openai.NewMemoryHistory()
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, falling back to in-memory stores")
		} else {
			app.redis = redisClient
			store = redis.NewSessionStore(redisClient)
			history = redisClient
		}
	}

	if cfg.OpenAIKey != "" {
		openAIClient := openai.NewClient(cfg.OpenAIKey, httpClient)
		app.channels["local"] = openai.NewAssistant(&openAIClient, history)
	}

	var qrCodes *server.QRTracker
	if cfg.S3Bucket != "" {
		awsClient, err := aws.NewClient(cfg.S3Region, cfg.S3Bucket)
		if err != nil {
			log.Warn().Err(err).Msg("S3 unavailable, QR codes will not be published")
		} else {
			qrCodes = server.NewQRTracker(awsClient)
		}
	}

	notifier := notify.Multi{app.notices, notify.Logger{Component: "dashsync"}}

	app.connections = connection.NewRegistry(apiClient, connection.Options{
		Notifier: notifier,
		Store:    store,
		Interval: cfg.PollInterval,
		OnChange: qrCodes.Observe,
	})

	app.server = server.New(server.Deps{
		Connections: app.connections,
		Channels:    app.channels,
		ChatOptions: chat.Options{
			Notifier:        notifier,
			PageSize:        cfg.PageSize,
			RefreshInterval: cfg.RefreshInterval,
		},
		Notices:           app.notices,
		QRCodes:           qrCodes,
		AllowOrigins:      cfg.CORSOrigins,
		PlaygroundIdleTTL: cfg.PlaygroundIdleTTL,
	})

	log.Info().
		Str("api_base_url", cfg.APIBaseURL).
		Bool("redis", app.redis != nil).
		Bool("s3", qrCodes != nil).
		Bool("local_assistant", cfg.OpenAIKey != "").
		Msg("Dashsync initialized")

	return app
}

func (a *App) API() *api.Client {
	return a.api
}

func (a *App) Connections() *connection.Registry {
	return a.connections
}

// Channel returns the named chat channel.
func (a *App) Channel(name string) (chat.Channel, bool) {
	channel, ok := a.channels[name]
	return channel, ok
}

func (a *App) Server() *server.Server {
	return a.server
}

// Start serves the bridge on the configured port and blocks.
func (a *App) Start() error {
	return a.server.Start(a.config.Port)
}

func (a *App) Shutdown() error {
	err := a.server.Shutdown()
	if a.redis != nil {
		if closeErr := a.redis.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close redis client")
		}
	}
	return err
}
