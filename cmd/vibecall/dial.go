package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/univibe/vibecall/internal/adapters/rtc"
	"github.com/univibe/vibecall/internal/adapters/signalws"
	"github.com/univibe/vibecall/internal/call"
	"github.com/univibe/vibecall/internal/config"
	"github.com/univibe/vibecall/internal/core"
	"github.com/univibe/vibecall/internal/domain"
)

var dialCmd = &cobra.Command{
	Use:   "dial <peer-user-id>",
	Short: "Call a peer and stay connected until either side hangs up",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		self := domain.UserID(localUser())
		client, err := signalws.Dial(ctx, cfg.RelayURL, self)
		if err != nil {
			return err
		}
		defer client.Close()

		sess, err := newSession(cfg, client, self, domain.UserID(args[0]), cancel)
		if err != nil {
			return err
		}
		if err := sess.StartAsCaller(ctx); err != nil {
			return err
		}
		watch(ctx, sess)
		return nil
	},
}

func newSession(cfg *config.Config, client *signalws.Client, self, peer domain.UserID, cancel context.CancelFunc) (*call.Session, error) {
	profile, err := domain.NewProfile(self, flagName)
	if err != nil {
		return nil, err
	}
	return call.NewSession(call.Config{
		Self:     self,
		Peer:     peer,
		Profile:  *profile,
		Signaler: client,
		NewMedia: func() (core.MediaSession, error) {
			return rtc.NewSession(rtc.Config{ICEServers: cfg.STUNServers}), nil
		},
		OnEnded: cancel,
	})
}

// watch logs the UI status line until the session ends or the process is
// interrupted; interruption hangs up cleanly.
func watch(ctx context.Context, sess *call.Session) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			sess.End(context.Background())
			return
		case <-t.C:
			log.Info().Str("module", "cli").Str("status", sess.StatusText()).Msg("call")
		}
	}
}
