package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fleet-tracker/internal/common"
)

var (
	cfg    *common.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "fleetctl",
	Short:         "Offline tools for the fleet tracker",
	Long:          `Parse rate confirmations, render invoices and manage the fleet database from the command line.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := common.LoadConfig()
		if err != nil {
			return err
		}
		cfg = c
		// stdout carries command output; logs go to stderr
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
		slog.SetDefault(logger)
		return nil
	},
}
