package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/NextMind-AI/dashsync"
	"github.com/NextMind-AI/dashsync/chat"
	"github.com/NextMind-AI/dashsync/config"
	"github.com/NextMind-AI/dashsync/connection"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	cfg.SetupLogging()

	root := &cobra.Command{
		Use:           "dashsync",
		Short:         "Channel pairing and chat playground bridge for the dashboard backend",
		SilenceUsage:  true,
	}
	root.AddCommand(newServeCmd(cfg), newConnectCmd(cfg), newHistoryCmd(cfg))
	return root
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				cfg.Port = port
			}
			app := dashsync.New(cfg)

			ctx, stop := signalContext()
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- app.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				log.Info().Msg("Shutting down")
				return app.Shutdown()
			}
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (defaults to PORT)")
	return cmd
}

func newConnectCmd(cfg *config.Config) *cobra.Command {
	var restart bool

	cmd := &cobra.Command{
		Use:   "connect <setting-id>",
		Short: "Pair a WhatsApp channel and poll until it settles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := dashsync.New(cfg)

			ctx, stop := signalContext()
			defer stop()

			done := make(chan struct{})
			var once sync.Once
			var lastQR string
			poller := connection.NewPoller(args[0], app.API(), connection.Options{
				Interval: cfg.PollInterval,
				OnChange: func(s connection.Session) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", s.Status, s.Message)
					if s.QRCode != "" && s.QRCode != lastQR {
						lastQR = s.QRCode
						fmt.Fprintf(cmd.OutOrStdout(), "QR code: %s\n", s.QRCode)
					}
					if s.Status.Terminal() {
						once.Do(func() { close(done) })
					}
				},
			})

			var err error
			if restart {
				_, err = poller.Reconnect(ctx)
			} else {
				_, err = poller.Initiate(ctx, connection.ModeConnect)
			}
			if err != nil {
				return err
			}

			select {
			case <-done:
			case <-ctx.Done():
				poller.Cancel()
				return ctx.Err()
			}

			session := poller.Session()
			if !session.Connected {
				return fmt.Errorf("connection ended with status %s: %s", session.Status, session.Error)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&restart, "restart", false, "use the restart endpoint instead of connect")
	return cmd
}

func newHistoryCmd(cfg *config.Config) *cobra.Command {
	var (
		channelName string
		assistantID string
		pages       int
	)

	cmd := &cobra.Command{
		Use:   "history <conversation-id>",
		Short: "Print a conversation's messages, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := dashsync.New(cfg)

			channel, ok := app.Channel(channelName)
			if !ok {
				return fmt.Errorf("unknown channel %q", channelName)
			}

			ctx, stop := signalContext()
			defer stop()

			synchronizer := chat.NewSynchronizer(channel, chat.Options{PageSize: cfg.PageSize})
			defer synchronizer.Close()

			synchronizer.SelectAssistant(assistantID)
			if err := synchronizer.SelectConversation(ctx, args[0]); err != nil {
				return err
			}
			for i := 1; i < pages && synchronizer.Cursor().HasMore; i++ {
				if _, err := synchronizer.LoadMessages(ctx, chat.LoadOptions{}); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			for _, m := range synchronizer.Messages() {
				who := "assistant"
				if m.Kind == chat.KindUserTurn {
					who = "user"
				}
				fmt.Fprintf(out, "[%s] %-9s %s\n", m.CreatedAt.Format("2006-01-02 15:04"), who, strings.TrimSpace(m.Content))
			}
			if synchronizer.Cursor().HasMore {
				fmt.Fprintln(out, "(older messages available, raise --pages)")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&channelName, "channel", "whatsapp", "channel to read from (assistant, whatsapp, local)")
	cmd.Flags().StringVar(&assistantID, "assistant", "", "assistant id, required by the assistant channel")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load")
	return cmd
}
