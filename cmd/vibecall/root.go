package main

import (
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/univibe/vibecall/internal/config"
)

var (
	flagUser string
	flagName string
)

var rootCmd = &cobra.Command{
	Use:   "vibecall",
	Short: "Reference call client: dial a peer or answer an incoming call",
	Long:  `Headless one-to-one call client talking to a vibecall signaling relay.`,
	PersistentPreRun: func(*cobra.Command, []string) {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "local user ID (random when empty)")
	rootCmd.PersistentFlags().StringVar(&flagName, "name", "guest", "display name sent with the offer")
	rootCmd.AddCommand(dialCmd)
	rootCmd.AddCommand(answerCmd)
}

// Execute runs the root command and returns the error (for main to log).
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	return cfg, nil
}

func localUser() string {
	if flagUser != "" {
		return flagUser
	}
	return uuid.NewString()
}
