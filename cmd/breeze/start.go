package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/breezebot/breezebot/pkg/log"
	"github.com/breezebot/breezebot/pkg/srv"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the BreezeBot gateway",
	Long:  `Connects to the model server and the tool server, then serves the chat API until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		// logger setup
		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting breezebot")

		services := NewServices(ctx)

		srv.StartServices(ctx, services)

		// Wait for shutdown signal
		srv.ShutdownServices(ctx, services)
		logger.Info().Msg("breezebot has been shut down gracefully")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
