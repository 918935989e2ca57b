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

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		client:  client,
		circuit: newCircuitBreaker("openweather"),
	}
}

// WithBaseURL points the provider at another endpoint, e.g. a test server.
func (p *OpenWeatherProvider) WithBaseURL(baseURL string) *OpenWeatherProvider {
	p.baseURL = baseURL
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// openWeatherPayload holds the fields we read from data/2.5/weather.
// Coordinates, temperature and wind speed are mandatory; rain is not.
type openWeatherPayload struct {
	Dt    int64 `json:"dt"`
	Coord *struct {
		Lat *float64 `json:"lat" validate:"required"`
		Lon *float64 `json:"lon" validate:"required"`
	} `json:"coord" validate:"required"`
	Main *struct {
		Temp *float64 `json:"temp" validate:"required"`
	} `json:"main" validate:"required"`
	Wind *struct {
		Speed *float64 `json:"speed" validate:"required"`
	} `json:"wind" validate:"required"`
	Rain *struct {
		OneH float64 `json:"1h"`
	} `json:"rain"`
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, city weather.City) (weather.Observation, error) {
	if p.apiKey == "" {
		return weather.Observation{}, fetchFailed(p.name, city, errMissingKey)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", strconv.FormatFloat(city.Lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(city.Lon, 'f', -1, 64))
		values.Set("appid", p.apiKey)
		values.Set("units", UnitSystem)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return weather.Observation{}, fetchFailed(p.name, city, err)
	}

	var payload openWeatherPayload
	if err := decodePayload(resp, &payload); err != nil {
		return weather.Observation{}, fetchFailed(p.name, city, err)
	}

	ts := time.Now().UTC()
	if payload.Dt > 0 {
		ts = time.Unix(payload.Dt, 0).UTC()
	}

	var precip float64
	if payload.Rain != nil {
		precip = payload.Rain.OneH
	}

	return weather.Observation{
		City:            city,
		TemperatureC:    *payload.Main.Temp,
		PrecipitationMm: precip,
		WindSpeed:       *payload.Wind.Speed,
		Lat:             *payload.Coord.Lat,
		Lon:             *payload.Coord.Lon,
		Provider:        p.name,
		Timestamp:       ts,
	}, nil
}
