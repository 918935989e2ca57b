// Package render turns weather observations into colored map markers.
package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/i474232898/weather-map/internal/weather"
)

// ErrUnknownCondition is returned for a condition label outside temperature, precipitation and wind.
var ErrUnknownCondition = errors.New("unknown condition")

// Condition is the selected overlay mode.
type Condition string

const (
	ConditionTemperature   Condition = "temperature"
	ConditionPrecipitation Condition = "precipitation"
	ConditionWind          Condition = "wind"
)

// Conditions lists the supported overlay modes in display order.
var Conditions = []Condition{ConditionTemperature, ConditionPrecipitation, ConditionWind}

// Marker colors.
const (
	ColorBlue    = "#0000ff"
	ColorCyan    = "#00ffff"
	ColorGreen   = "#00ff00"
	ColorYellow  = "#ffff00"
	ColorRed     = "#ff0000"
	ColorWhite   = "#ffffff"
	ColorSkyBlue = "#add8e6"
	ColorOrange  = "#ffa500"
)

// threshold maps values strictly below upper to color. The last entry of a
// table has an infinite upper bound.
type threshold struct {
	upper float64
	color string
}

var (
	temperatureScale = []threshold{
		{0, ColorBlue},
		{10, ColorCyan},
		{20, ColorGreen},
		{30, ColorYellow},
		{math.Inf(1), ColorRed},
	}
	windScale = []threshold{
		{2, ColorGreen},
		{5, ColorYellow},
		{10, ColorOrange},
		{math.Inf(1), ColorRed},
	}
)

// ParseCondition validates a condition label.
func ParseCondition(label string) (Condition, error) {
	switch c := Condition(label); c {
	case ConditionTemperature, ConditionPrecipitation, ConditionWind:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCondition, label)
	}
}

func pick(scale []threshold, v float64) string {
	for _, t := range scale {
		if v < t.upper {
			return t.color
		}
	}
	return scale[len(scale)-1].color
}

// TemperatureColor maps degrees Celsius to a color.
func TemperatureColor(celsius float64) string {
	return pick(temperatureScale, celsius)
}

// PrecipitationColor maps millimetres of rain in the last hour to a color.
func PrecipitationColor(mm float64) string {
	switch {
	case mm == 0:
		return ColorWhite
	case mm < 5:
		return ColorSkyBlue
	default:
		return ColorBlue
	}
}

// WindColor maps wind speed to a color.
func WindColor(speed float64) string {
	return pick(windScale, speed)
}

// Fahrenheit converts Celsius to Fahrenheit rounded to one decimal.
func Fahrenheit(celsius float64) float64 {
	return round1(celsius*9/5 + 32)
}

func round1(v float64) float64 {
	r := math.Round(v*10) / 10
	if r == 0 {
		// Drop negative zero so -0.04 displays and colors as 0.0.
		return 0
	}
	return r
}

// Reading is the display value and color extracted from one observation.
type Reading struct {
	Condition Condition `json:"condition"`
	Value     float64   `json:"value"`
	// Fahrenheit is set for temperature readings only.
	Fahrenheit *float64 `json:"fahrenheit,omitempty"`
	Color      string   `json:"color"`
	Label      string   `json:"label"`
}

// Evaluate extracts the value for cond from obs, rounds it to the displayed
// precision and picks its color from the rounded value.
func Evaluate(cond Condition, obs weather.Observation) (Reading, error) {
	name := obs.City.Name

	switch cond {
	case ConditionTemperature:
		c := round1(obs.TemperatureC)
		f := Fahrenheit(c)
		return Reading{
			Condition:  cond,
			Value:      c,
			Fahrenheit: &f,
			Color:      TemperatureColor(c),
			Label:      fmt.Sprintf("%s: %s: %.1f°C / %.1f°F", name, cond, c, f),
		}, nil
	case ConditionPrecipitation:
		mm := round1(obs.PrecipitationMm)
		return Reading{
			Condition: cond,
			Value:     mm,
			Color:     PrecipitationColor(mm),
			Label:     fmt.Sprintf("%s: %s: %.1f mm", name, cond, mm),
		}, nil
	case ConditionWind:
		speed := round1(obs.WindSpeed)
		return Reading{
			Condition: cond,
			Value:     speed,
			Color:     WindColor(speed),
			Label:     fmt.Sprintf("%s: %s: %.1f m/s", name, cond, speed),
		}, nil
	default:
		return Reading{}, fmt.Errorf("%w: %q", ErrUnknownCondition, string(cond))
	}
}
