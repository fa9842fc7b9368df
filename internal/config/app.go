package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/breezebot/breezebot/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"BREEZE_RUNTIME_PATH" envDefault:".breezebot"`

	// HTTP gateway
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envDefault:"8080"`

	// Orchestration bounds
	MaxToolRounds int           `env:"MAX_TOOL_ROUNDS" envDefault:"4"`
	ToolTimeout   time.Duration `env:"TOOL_TIMEOUT" envDefault:"30s"`

	// Tool server process (spawned over stdio as an MCP server)
	ToolServerCommand string   `env:"TOOL_SERVER_COMMAND" envDefault:"breeze"`
	ToolServerArgs    []string `env:"TOOL_SERVER_ARGS" envDefault:"toolserver" envSeparator:" "`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse app config")
	}
	return c
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "breezebot.db")
}

func (c AppConfig) GetPromptsPath() string {
	return filepath.Join(c.RuntimePath, "prompts.yaml")
}
