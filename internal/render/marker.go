package render

import (
	"github.com/google/uuid"

	"github.com/i474232898/weather-map/internal/weather"
)

// Fixed marker styling.
const (
	MarkerRadius      = 10
	MarkerFillOpacity = 0.5
)

// Marker is a removable circle on the map tying a position to a popup label and a color.
type Marker struct {
	ID          string    `json:"id"`
	City        string    `json:"city"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	Color       string    `json:"color"`
	Radius      int       `json:"radius"`
	FillOpacity float64   `json:"fillOpacity"`
	Label       string    `json:"label"`
	PopupOpen   bool      `json:"popupOpen"`
	Condition   Condition `json:"condition"`
	Value       float64   `json:"value"`
	Fahrenheit  *float64  `json:"fahrenheit,omitempty"`
	// OffsetMeters is the distance between the catalog position and the reported one.
	OffsetMeters float64 `json:"offsetMeters"`
}

// NewMarker builds the marker for obs at the coordinates the source reported.
func NewMarker(cond Condition, obs weather.Observation) (Marker, error) {
	r, err := Evaluate(cond, obs)
	if err != nil {
		return Marker{}, err
	}

	return Marker{
		ID:           uuid.NewString(),
		City:         obs.City.Name,
		Lat:          obs.Lat,
		Lon:          obs.Lon,
		Color:        r.Color,
		Radius:       MarkerRadius,
		FillOpacity:  MarkerFillOpacity,
		Label:        r.Label,
		PopupOpen:    true,
		Condition:    cond,
		Value:        r.Value,
		Fahrenheit:   r.Fahrenheit,
		OffsetMeters: obs.OffsetMeters(),
	}, nil
}

// Surface is the map display the markers are drawn on.
type Surface interface {
	AddMarker(m Marker) error
	RemoveMarker(id string) error
}
