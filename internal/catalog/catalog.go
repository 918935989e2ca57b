// Package catalog loads the ordered list of monitored cities.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/weather-map/internal/weather"
)

// ErrCatalogUnavailable is returned when the catalog cannot be retrieved or is not well-formed.
var ErrCatalogUnavailable = errors.New("city catalog unavailable")

//go:embed cities.json
var defaultCatalog []byte

var validate = validator.New()

// record is a catalog entry as it appears in the document. Coordinates may be
// left out when a geocoder is configured.
type record struct {
	Name string   `json:"name" validate:"required"`
	Lat  *float64 `json:"lat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Lon  *float64 `json:"lon,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

// Geocoder resolves a city name to coordinates.
type Geocoder interface {
	Locate(ctx context.Context, name string) (lat, lon float64, err error)
}

// Loader reads the catalog from its source on every Load.
type Loader struct {
	source   string
	client   *http.Client
	geocoder Geocoder
}

// NewLoader creates a Loader for source: an http(s) URL, a file path, or
// empty for the built-in catalog. geocoder may be nil.
func NewLoader(source string, client *http.Client, geocoder Geocoder) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{
		source:   source,
		client:   client,
		geocoder: geocoder,
	}
}

// Raw returns the catalog document as read from the source.
func (l *Loader) Raw(ctx context.Context) ([]byte, error) {
	switch {
	case l.source == "":
		return defaultCatalog, nil
	case strings.HasPrefix(l.source, "http://") || strings.HasPrefix(l.source, "https://"):
		return l.fetch(ctx)
	default:
		data, err := os.ReadFile(l.source)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
		}
		return data, nil
	}
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrCatalogUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return data, nil
}

// Load returns the cities in catalog order.
func (l *Loader) Load(ctx context.Context) ([]weather.City, error) {
	data, err := l.Raw(ctx)
	if err != nil {
		return nil, err
	}
	return l.parse(ctx, data)
}

func (l *Loader) parse(ctx context.Context, data []byte) ([]weather.City, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: catalog is empty", ErrCatalogUnavailable)
	}

	cities := make([]weather.City, 0, len(records))
	for i, r := range records {
		if err := validate.Struct(r); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrCatalogUnavailable, i, err)
		}

		city := weather.City{Name: r.Name}
		switch {
		case r.Lat != nil && r.Lon != nil:
			city.Lat, city.Lon = *r.Lat, *r.Lon
		case r.Lat != nil || r.Lon != nil:
			return nil, fmt.Errorf("%w: record %d (%s) has only one coordinate", ErrCatalogUnavailable, i, r.Name)
		case l.geocoder != nil:
			lat, lon, err := l.geocoder.Locate(ctx, r.Name)
			if err != nil {
				return nil, fmt.Errorf("%w: geocoding %s: %v", ErrCatalogUnavailable, r.Name, err)
			}
			city.Lat, city.Lon = lat, lon
		default:
			return nil, fmt.Errorf("%w: record %d (%s) has no coordinates", ErrCatalogUnavailable, i, r.Name)
		}

		if err := validate.Struct(city); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrCatalogUnavailable, i, err)
		}
		cities = append(cities, city)
	}

	return cities, nil
}
