package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/breezebot/breezebot/pkg/log"
)

type WeatherConfig struct {
	APIKey     string        `env:"OPENWEATHER_API_KEY,required"`
	GeoURL     string        `env:"OPENWEATHER_GEO_URL" envDefault:"https://api.openweathermap.org/geo/1.0/direct"`
	CurrentURL string        `env:"OPENWEATHER_CURRENT_URL" envDefault:"https://api.openweathermap.org/data/2.5/weather"`
	Timeout    time.Duration `env:"OPENWEATHER_TIMEOUT" envDefault:"7s"`
}

func NewWeatherConfig(ctx context.Context) *WeatherConfig {
	c := &WeatherConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse weather config")
	}
	return c
}
