// Package toolserver is the weather tool process: an MCP stdio server backed
// by the OpenWeatherMap geocoding and current-weather APIs.
package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/breezebot/breezebot/internal/config"
	"github.com/breezebot/breezebot/pkg/retry"
)

// Report is one resolved weather observation, imperial units.
type Report struct {
	Location    string
	LocalTime   string
	Temperature float64
	FeelsLike   float64
	Humidity    int
	WindSpeed   float64
	Description string
}

func (r Report) Format() string {
	return fmt.Sprintf(
		"Weather in %s (local time %s): %d°F, %s. Feels like %d°F. Humidity: %d%%, Wind: %g mph",
		r.Location, r.LocalTime,
		int(math.Round(r.Temperature)), r.Description,
		int(math.Round(r.FeelsLike)),
		r.Humidity, r.WindSpeed,
	)
}

type WeatherClient struct {
	cfg        *config.WeatherConfig
	httpClient *http.Client
	retrier    *retry.Retrier
}

func NewWeatherClient(cfg *config.WeatherConfig) *WeatherClient {
	return &WeatherClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retrier:    retry.NewDefaultRetrier(),
	}
}

type geoEntry struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type currentResponse struct {
	Dt       int64 `json:"dt"`
	Timezone int64 `json:"timezone"`
	Main     struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// Current resolves "City, CC" and fetches the current conditions. CC is a
// two-letter ISO-3166 or US state code.
func (c *WeatherClient) Current(ctx context.Context, location string) (Report, error) {
	city, cc, err := splitLocation(location)
	if err != nil {
		return Report{}, err
	}

	var geo []geoEntry
	geoQuery := url.Values{
		"q":     {city + "," + cc},
		"limit": {"1"},
		"appid": {c.cfg.APIKey},
	}
	if err := c.getJSON(ctx, c.cfg.GeoURL, geoQuery, &geo); err != nil {
		return Report{}, fmt.Errorf("geocoding failed: %w", err)
	}
	if len(geo) == 0 {
		return Report{}, fmt.Errorf("location not found: %s, %s", city, cc)
	}

	var wx currentResponse
	wxQuery := url.Values{
		"lat":   {fmt.Sprintf("%g", geo[0].Lat)},
		"lon":   {fmt.Sprintf("%g", geo[0].Lon)},
		"units": {"imperial"},
		"appid": {c.cfg.APIKey},
	}
	if err := c.getJSON(ctx, c.cfg.CurrentURL, wxQuery, &wx); err != nil {
		return Report{}, fmt.Errorf("weather request failed: %w", err)
	}
	if len(wx.Weather) == 0 {
		return Report{}, fmt.Errorf("unexpected response format from OpenWeather")
	}

	local := time.Unix(wx.Dt+wx.Timezone, 0).UTC()
	return Report{
		Location:    city + ", " + cc,
		LocalTime:   local.Format("2006-01-02 15:04"),
		Temperature: wx.Main.Temp,
		FeelsLike:   wx.Main.FeelsLike,
		Humidity:    wx.Main.Humidity,
		WindSpeed:   wx.Wind.Speed,
		Description: wx.Weather[0].Description,
	}, nil
}

func (c *WeatherClient) getJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	return c.retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return json.Unmarshal(body, out)
	})
}

func splitLocation(location string) (city, cc string, err error) {
	loc := strings.TrimSpace(location)
	city, cc, found := strings.Cut(loc, ",")
	if !found {
		return "", "", fmt.Errorf("location must be 'City, CC' (e.g. 'San Juan, PR')")
	}
	city = strings.TrimSpace(city)
	cc = strings.ToUpper(strings.TrimSpace(cc))
	if city == "" {
		return "", "", fmt.Errorf("city must not be empty")
	}
	if len(cc) != 2 {
		return "", "", fmt.Errorf("country/state code must be two letters")
	}
	return city, cc, nil
}
