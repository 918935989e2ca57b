package weather

import (
	"time"
)

// City is a monitored place from the catalog.
type City struct {
	Name string  `json:"name" validate:"required"`
	Lat  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon  float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Observation is one city's weather snapshot for a single render cycle.
// Lat/Lon are the coordinates reported by the weather source, which may
// differ slightly from the catalog position.
type Observation struct {
	City            City      `json:"city"`
	TemperatureC    float64   `json:"temperatureC"`
	PrecipitationMm float64   `json:"precipitationMm"`
	WindSpeed       float64   `json:"windSpeed"` // m/s
	Lat             float64   `json:"lat"`
	Lon             float64   `json:"lon"`
	Provider        string    `json:"provider"`
	Timestamp       time.Time `json:"timestamp"` // always UTC
}
