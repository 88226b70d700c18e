// Package weather looks up current conditions for the journal's location.
package weather

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
)

const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

type OpenMeteoFetcher struct {
	client  *http.Client
	baseURL string
	lat     float64
	lon     float64
}

type Options struct {
	// Forecast endpoint, DefaultOpenMeteoURL when empty
	BaseURL   string
	Latitude  float64
	Longitude float64
	Client    *http.Client
}

func NewOpenMeteoFetcher(opts Options) *OpenMeteoFetcher {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOpenMeteoURL
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 15 * time.Second}
	}
	return &OpenMeteoFetcher{
		client:  opts.Client,
		baseURL: opts.BaseURL,
		lat:     opts.Latitude,
		lon:     opts.Longitude,
	}
}

type forecastResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WeatherCode *int    `json:"weather_code"`
	} `json:"current"`
}

// Current returns a summary like "Partly cloudy, 21°C".
func (f *OpenMeteoFetcher) Current(ctx context.Context) (string, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(f.lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(f.lon, 'f', 4, 64))
	q.Set("current", "temperature_2m,weather_code")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("building weather request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading weather response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("weather service returned %d", resp.StatusCode)
	}
	var fr forecastResponse
	if err := sonic.Unmarshal(body, &fr); err != nil {
		return "", fmt.Errorf("decoding weather response: %w", err)
	}
	if fr.Current.WeatherCode == nil {
		return "", fmt.Errorf("weather response has no current conditions")
	}
	return Format(*fr.Current.WeatherCode, fr.Current.Temperature), nil
}

func Format(code int, celsius float64) string {
	return fmt.Sprintf("%s, %d°C", Describe(code), int(math.Round(celsius)))
}

// Describe maps a WMO weather interpretation code to words.
func Describe(code int) string {
	switch code {
	case 0:
		return "Clear sky"
	case 1:
		return "Mainly clear"
	case 2:
		return "Partly cloudy"
	case 3:
		return "Overcast"
	case 45, 48:
		return "Fog"
	case 51, 53, 55:
		return "Drizzle"
	case 56, 57:
		return "Freezing drizzle"
	case 61, 63, 65:
		return "Rain"
	case 66, 67:
		return "Freezing rain"
	case 71, 73, 75, 77:
		return "Snow"
	case 80, 81, 82:
		return "Rain showers"
	case 85, 86:
		return "Snow showers"
	case 95:
		return "Thunderstorm"
	case 96, 99:
		return "Thunderstorm with hail"
	default:
		return "Unknown conditions"
	}
}
