package catalog

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"
)

// GoogleGeocoder resolves catalog names through the Google Geocoding API.
// Results are memoized for the life of the process.
type GoogleGeocoder struct {
	country string

	mu    sync.Mutex
	cache map[string][2]float64
}

// NewGoogleGeocoder configures the geocoder package with apiKey. country is
// appended to every lookup to disambiguate names.
func NewGoogleGeocoder(apiKey, country string) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{
		country: country,
		cache:   make(map[string][2]float64),
	}
}

func (g *GoogleGeocoder) Locate(ctx context.Context, name string) (float64, float64, error) {
	key := strings.ToLower(name)

	g.mu.Lock()
	if ll, ok := g.cache[key]; ok {
		g.mu.Unlock()
		return ll[0], ll[1], nil
	}
	g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	location, err := geocoder.Geocoding(geocoder.Address{
		City:    name,
		Country: g.country,
	})
	if err != nil {
		return 0, 0, err
	}
	log.Printf("INFO: geocoded %s to %f,%f", name, location.Latitude, location.Longitude)

	g.mu.Lock()
	g.cache[key] = [2]float64{location.Latitude, location.Longitude}
	g.mu.Unlock()

	return location.Latitude, location.Longitude, nil
}
