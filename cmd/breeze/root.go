package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/breezebot/breezebot/internal/config"
	"github.com/breezebot/breezebot/pkg/log"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "breeze",
	Short: "BreezeBot — local-LLM chat with streamed tool calling",
	Long:  `BreezeBot serves a chat API backed by a locally hosted model that can call external tools mid-generation.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	isDebug := debug || config.IsDebug()
	return log.NewContextWithLogger(ctx, isDebug)
}
