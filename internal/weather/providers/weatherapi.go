package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-map/internal/weather"
)

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/current.json",
		client:  client,
		circuit: newCircuitBreaker("weatherapi"),
	}
}

// WithBaseURL points the provider at another endpoint, e.g. a test server.
func (p *WeatherAPIProvider) WithBaseURL(baseURL string) *WeatherAPIProvider {
	p.baseURL = baseURL
	return p
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

type weatherAPIPayload struct {
	Location *struct {
		Lat            *float64 `json:"lat" validate:"required"`
		Lon            *float64 `json:"lon" validate:"required"`
		LocaltimeEpoch int64    `json:"localtime_epoch"`
	} `json:"location" validate:"required"`
	Current *struct {
		TempC    *float64 `json:"temp_c" validate:"required"`
		WindKph  *float64 `json:"wind_kph" validate:"required"`
		PrecipMm float64  `json:"precip_mm"`
	} `json:"current" validate:"required"`
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, city weather.City) (weather.Observation, error) {
	if p.apiKey == "" {
		return weather.Observation{}, fetchFailed(p.name, city, errMissingKey)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		// WeatherAPI uses "q" for location; it accepts "lat,lon".
		values.Set("q", fmt.Sprintf("%f,%f", city.Lat, city.Lon))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return weather.Observation{}, fetchFailed(p.name, city, err)
	}

	var payload weatherAPIPayload
	if err := decodePayload(resp, &payload); err != nil {
		return weather.Observation{}, fetchFailed(p.name, city, err)
	}

	ts := time.Now().UTC()
	if payload.Location.LocaltimeEpoch > 0 {
		ts = time.Unix(payload.Location.LocaltimeEpoch, 0).UTC()
	}

	// Convert wind from kph to m/s (approx).
	windMS := *payload.Current.WindKph / 3.6

	return weather.Observation{
		City:            city,
		TemperatureC:    *payload.Current.TempC,
		PrecipitationMm: payload.Current.PrecipMm,
		WindSpeed:       windMS,
		Lat:             *payload.Location.Lat,
		Lon:             *payload.Location.Lon,
		Provider:        p.name,
		Timestamp:       ts,
	}, nil
}
