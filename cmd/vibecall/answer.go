package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/univibe/vibecall/internal/adapters/signalws"
	"github.com/univibe/vibecall/internal/call"
	"github.com/univibe/vibecall/internal/core"
	"github.com/univibe/vibecall/internal/domain"
	sig "github.com/univibe/vibecall/internal/signal"
)

var flagDecline bool

var answerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Wait for an incoming call on the local user's channel and answer it",
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

		log.Info().Str("module", "cli").Str("user", string(self)).Msg("waiting for incoming call")

		// The offer reaches the callee on its own channel; this stand-in for
		// the app's push-notification routing simply waits for the first one.
		offers := make(chan sig.OfferPayload, 1)
		if _, err := client.Listen(ctx, self, map[string]core.EventHandler{
			sig.EventOffer: func(payload json.RawMessage) {
				var p sig.OfferPayload
				if err := json.Unmarshal(payload, &p); err != nil {
					log.Error().Err(err).Str("module", "cli").Msg("bad offer payload")
					return
				}
				select {
				case offers <- p:
				default:
				}
			},
		}); err != nil {
			return err
		}

		var incoming sig.OfferPayload
		select {
		case <-ctx.Done():
			return nil
		case incoming = <-offers:
		}
		log.Info().Str("module", "cli").Str("caller", incoming.CallerProfile.Name).Msg("incoming call")

		if flagDecline {
			return call.Decline(ctx, client, incoming.CallerProfile.ID)
		}

		sess, err := newSession(cfg, client, self, incoming.CallerProfile.ID, cancel)
		if err != nil {
			return err
		}
		if err := sess.StartAsCallee(ctx, incoming.Offer); err != nil {
			return err
		}
		watch(ctx, sess)
		return nil
	},
}

func init() {
	answerCmd.Flags().BoolVar(&flagDecline, "decline", false, "decline the first incoming call instead of answering")
}
