package toolserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breezebot/breezebot/internal/config"
)

func newTestClient(geoHandler, currentHandler http.HandlerFunc) (*WeatherClient, func()) {
	geo := httptest.NewServer(geoHandler)
	current := httptest.NewServer(currentHandler)
	c := NewWeatherClient(&config.WeatherConfig{
		APIKey:     "test-key",
		GeoURL:     geo.URL,
		CurrentURL: current.URL,
		Timeout:    2 * time.Second,
	})
	return c, func() {
		geo.Close()
		current.Close()
	}
}

func TestCurrent(t *testing.T) {
	var geoQuery, wxQuery map[string]string
	c, done := newTestClient(
		func(w http.ResponseWriter, r *http.Request) {
			geoQuery = map[string]string{
				"q":     r.URL.Query().Get("q"),
				"appid": r.URL.Query().Get("appid"),
			}
			fmt.Fprint(w, `[{"lat": 18.46, "lon": -66.11}]`)
		},
		func(w http.ResponseWriter, r *http.Request) {
			wxQuery = map[string]string{
				"lat":   r.URL.Query().Get("lat"),
				"units": r.URL.Query().Get("units"),
			}
			fmt.Fprint(w, `{
				"dt": 1751646420, "timezone": -14400,
				"main": {"temp": 86.3, "feels_like": 90.0, "humidity": 77},
				"wind": {"speed": 12},
				"weather": [{"description": "sunny"}]
			}`)
		},
	)
	defer done()

	report, err := c.Current(context.Background(), "san juan, pr")
	require.NoError(t, err)

	assert.Equal(t, "san juan,PR", geoQuery["q"])
	assert.Equal(t, "test-key", geoQuery["appid"])
	assert.Equal(t, "18.46", wxQuery["lat"])
	assert.Equal(t, "imperial", wxQuery["units"])

	assert.Equal(t, "san juan, PR", report.Location)
	assert.Equal(t, 86.3, report.Temperature)
	assert.Equal(t, 77, report.Humidity)
	assert.Equal(t, "sunny", report.Description)
	assert.NotEmpty(t, report.LocalTime)
}

func TestCurrentLocationNotFound(t *testing.T) {
	c, done := newTestClient(
		func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, `[]`) },
		func(w http.ResponseWriter, _ *http.Request) { t.Error("current endpoint must not be called") },
	)
	defer done()

	_, err := c.Current(context.Background(), "Atlantis, XX")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "location not found")
}

func TestCurrentRetriesTransientFailure(t *testing.T) {
	attempts := 0
	c, done := newTestClient(
		func(w http.ResponseWriter, _ *http.Request) {
			attempts++
			if attempts == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			fmt.Fprint(w, `[{"lat": 1, "lon": 2}]`)
		},
		func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{
				"dt": 0, "timezone": 0,
				"main": {"temp": 50, "feels_like": 48, "humidity": 60},
				"wind": {"speed": 5},
				"weather": [{"description": "cloudy"}]
			}`)
		},
	)
	defer done()

	_, err := c.Current(context.Background(), "Paris, FR")
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestSplitLocation(t *testing.T) {
	tests := []struct {
		in       string
		city, cc string
		wantErr  bool
	}{
		{"San Juan, PR", "San Juan", "PR", false},
		{"Paris,fr", "Paris", "FR", false},
		{"  Tokyo , jp ", "Tokyo", "JP", false},
		{"Paris", "", "", true},
		{"Paris, France", "", "", true},
		{", FR", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			city, cc, err := splitLocation(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.city, city)
			assert.Equal(t, tt.cc, cc)
		})
	}
}

func TestReportFormat(t *testing.T) {
	r := Report{
		Location:    "San Juan, PR",
		LocalTime:   "2025-07-04 14:27",
		Temperature: 86.3,
		FeelsLike:   90.0,
		Humidity:    77,
		WindSpeed:   12,
		Description: "sunny",
	}
	assert.Equal(t,
		"Weather in San Juan, PR (local time 2025-07-04 14:27): 86°F, sunny. Feels like 90°F. Humidity: 77%, Wind: 12 mph",
		r.Format(),
	)
}
