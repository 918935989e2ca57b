package weather

import (
	"context"
)

// Provider abstracts a weather data source (e.g. OpenWeatherMap, WeatherAPI, Open-Meteo).
// Fetch issues exactly one lookup for the city's coordinates.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, city City) (Observation, error)
}
