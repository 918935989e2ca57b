package providers

import (
	"fmt"
	"net/http"

	"github.com/i474232898/weather-map/internal/weather"
)

// Keys holds the credentials the providers may need.
type Keys struct {
	OpenWeather string
	WeatherAPI  string
}

// New returns the provider registered under name.
func New(name string, client *http.Client, keys Keys) (weather.Provider, error) {
	switch name {
	case "", "openweathermap":
		return NewOpenWeatherProvider(client, keys.OpenWeather), nil
	case "openmeteo":
		return NewOpenMeteoProvider(client), nil
	case "weatherapi":
		return NewWeatherAPIProvider(client, keys.WeatherAPI), nil
	default:
		return nil, fmt.Errorf("unknown weather provider %q", name)
	}
}
