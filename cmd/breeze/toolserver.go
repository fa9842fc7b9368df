package main

import (
	"github.com/spf13/cobra"

	"github.com/breezebot/breezebot/internal/config"
	"github.com/breezebot/breezebot/internal/toolserver"
)

var toolserverCmd = &cobra.Command{
	Use:   "toolserver",
	Short: "Run the weather tool server on stdio",
	Long:  `Runs the MCP tool server the gateway spawns as a child process. Speaks the protocol on stdin/stdout until the pipe closes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// No console logger here: stdout belongs to the protocol.
		weatherCfg := config.NewWeatherConfig(cmd.Context())
		return toolserver.Serve(toolserver.NewWeatherClient(weatherCfg))
	},
}

func init() {
	rootCmd.AddCommand(toolserverCmd)
}
