package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/breezebot/breezebot/pkg/log"
)

// ModelConfig points the generator at a llama.cpp server and carries the
// sampling parameters.
type ModelConfig struct {
	BaseURL     string  `env:"MODEL_BASE_URL" envDefault:"http://127.0.0.1:8081"`
	ContextSize int     `env:"MODEL_CONTEXT_SIZE" envDefault:"4096"`
	Temperature float64 `env:"MODEL_TEMPERATURE" envDefault:"0.7"`
	MaxTokens   int     `env:"MODEL_MAX_TOKENS" envDefault:"1024"`

	// Maximum silence between two increments before the turn is failed.
	IncrementTimeout time.Duration `env:"MODEL_INCREMENT_TIMEOUT" envDefault:"60s"`
}

func NewModelConfig(ctx context.Context) *ModelConfig {
	c := &ModelConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse model config")
	}
	return c
}
