package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-map/internal/weather"
)

// openMeteoTimeLayout is the ISO 8601 minute-precision layout Open-Meteo uses.
const openMeteoTimeLayout = "2006-01-02T15:04"

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// It needs no API key.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		client:  client,
		circuit: newCircuitBreaker("openmeteo"),
	}
}

// WithBaseURL points the provider at another endpoint, e.g. a test server.
func (p *OpenMeteoProvider) WithBaseURL(baseURL string) *OpenMeteoProvider {
	p.baseURL = baseURL
	return p
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoPayload struct {
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
	Current   *struct {
		Time          string   `json:"time"`
		Temperature   *float64 `json:"temperature_2m" validate:"required"`
		Precipitation float64  `json:"precipitation"`
		WindSpeed     *float64 `json:"wind_speed_10m" validate:"required"`
	} `json:"current" validate:"required"`
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, city weather.City) (weather.Observation, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(city.Lat, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(city.Lon, 'f', -1, 64))
		values.Set("current", "temperature_2m,precipitation,wind_speed_10m")
		values.Set("wind_speed_unit", "ms")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return weather.Observation{}, fetchFailed(p.name, city, err)
	}

	var payload openMeteoPayload
	if err := decodePayload(resp, &payload); err != nil {
		return weather.Observation{}, fetchFailed(p.name, city, err)
	}

	ts, err := time.Parse(openMeteoTimeLayout, payload.Current.Time)
	if err != nil {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	return weather.Observation{
		City:            city,
		TemperatureC:    *payload.Current.Temperature,
		PrecipitationMm: payload.Current.Precipitation,
		WindSpeed:       *payload.Current.WindSpeed,
		Lat:             *payload.Latitude,
		Lon:             *payload.Longitude,
		Provider:        p.name,
		Timestamp:       ts,
	}, nil
}
