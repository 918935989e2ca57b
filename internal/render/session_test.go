package render_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/weather-map/internal/catalog"
	"github.com/i474232898/weather-map/internal/render"
	"github.com/i474232898/weather-map/internal/store"
	"github.com/i474232898/weather-map/internal/weather"
)

var cities = []weather.City{
	{Name: "Denver", Lat: 39.7392, Lon: -104.9903},
	{Name: "Miami", Lat: 25.7617, Lon: -80.1918},
	{Name: "Seattle", Lat: 47.6062, Lon: -122.3321},
}

type staticCatalog struct {
	err error
}

func (c staticCatalog) Load(context.Context) ([]weather.City, error) {
	if c.err != nil {
		return nil, c.err
	}
	return cities, nil
}

// scriptedFetcher returns a fixed observation per city, optionally blocking
// until released.
type scriptedFetcher struct {
	mu      sync.Mutex
	err     error
	partial bool
	gate    chan struct{}
}

func (f *scriptedFetcher) FetchAll(ctx context.Context, cs []weather.City) ([]weather.Observation, error) {
	f.mu.Lock()
	gate, err, partial := f.gate, f.err, f.partial
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	obs := make([]weather.Observation, 0, len(cs))
	for i, c := range cs {
		if partial && i == 0 {
			continue
		}
		obs = append(obs, weather.Observation{
			City:            c,
			TemperatureC:    float64(10 * i),
			PrecipitationMm: float64(i),
			WindSpeed:       float64(3 * i),
			Lat:             c.Lat,
			Lon:             c.Lon,
		})
	}
	if err != nil && !partial {
		return nil, err
	}
	return obs, err
}

func newSession(f *scriptedFetcher, c staticCatalog) (*render.Session, *store.MemoryLayer) {
	layer := store.NewMemoryLayer()
	return render.NewSession(layer, c, f), layer
}

func assertOneMarkerPerCity(t *testing.T, layer *store.MemoryLayer, cond render.Condition) {
	t.Helper()
	markers := layer.Markers()
	if len(markers) != len(cities) {
		t.Fatalf("expected %d markers, got %d", len(cities), len(markers))
	}
	seen := make(map[string]bool)
	for _, m := range markers {
		if seen[m.City] {
			t.Fatalf("duplicate marker for %s", m.City)
		}
		seen[m.City] = true
		if m.Condition != cond {
			t.Fatalf("stale %s marker for %s while showing %s", m.Condition, m.City, cond)
		}
	}
}

func TestSessionSwitchingConditionsLeavesOneMarkerPerCity(t *testing.T) {
	s, layer := newSession(&scriptedFetcher{}, staticCatalog{})
	ctx := context.Background()

	for _, cond := range []render.Condition{render.ConditionTemperature, render.ConditionWind, render.ConditionPrecipitation} {
		if err := s.Update(ctx, string(cond)); err != nil {
			t.Fatalf("update %s: %v", cond, err)
		}
		assertOneMarkerPerCity(t, layer, cond)
	}

	snap := s.Snapshot()
	if snap.Condition != render.ConditionPrecipitation || snap.State != render.StateIdle {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if len(snap.Markers) != len(cities) {
		t.Fatalf("expected snapshot to list %d markers, got %d", len(cities), len(snap.Markers))
	}
}

func TestSessionUnknownConditionClearsAndDrawsNothing(t *testing.T) {
	s, layer := newSession(&scriptedFetcher{}, staticCatalog{})
	ctx := context.Background()

	if err := s.Update(ctx, "temperature"); err != nil {
		t.Fatalf("update: %v", err)
	}

	err := s.Update(ctx, "humidity")
	if !errors.Is(err, render.ErrUnknownCondition) {
		t.Fatalf("expected ErrUnknownCondition, got %v", err)
	}
	if layer.Len() != 0 {
		t.Fatalf("expected map to be cleared, %d markers remain", layer.Len())
	}
	if snap := s.Snapshot(); snap.LastError == "" {
		t.Fatal("expected the failure to be recorded")
	}
}

func TestSessionFetchFailureDrawsNothing(t *testing.T) {
	f := &scriptedFetcher{}
	s, layer := newSession(f, staticCatalog{})
	ctx := context.Background()

	if err := s.Update(ctx, "wind"); err != nil {
		t.Fatalf("update: %v", err)
	}

	f.mu.Lock()
	f.err = weather.ErrWeatherFetchFailed
	f.mu.Unlock()

	if err := s.Update(ctx, "temperature"); !errors.Is(err, weather.ErrWeatherFetchFailed) {
		t.Fatalf("expected ErrWeatherFetchFailed, got %v", err)
	}
	if layer.Len() != 0 {
		t.Fatalf("expected no markers after batch failure, got %d", layer.Len())
	}

	snap := s.Snapshot()
	if !strings.Contains(snap.LastError, weather.ErrWeatherFetchFailed.Error()) {
		t.Fatalf("expected the fetch failure to be recorded, got %q", snap.LastError)
	}
	if snap.State != render.StateIdle {
		t.Fatalf("expected session to return to idle, got %s", snap.State)
	}
	if len(snap.Markers) != 0 {
		t.Fatalf("expected snapshot to list no markers, got %d", len(snap.Markers))
	}
}

func TestSessionPartialBatchDrawsAvailableCities(t *testing.T) {
	batchErr := &weather.BatchError{Failed: map[string]error{"Denver": errors.New("boom")}}
	f := &scriptedFetcher{partial: true, err: batchErr}
	s, layer := newSession(f, staticCatalog{})

	err := s.Update(context.Background(), "temperature")
	if !errors.Is(err, weather.ErrWeatherFetchFailed) {
		t.Fatalf("expected partial failure to be reported, got %v", err)
	}
	if layer.Len() != len(cities)-1 {
		t.Fatalf("expected %d markers, got %d", len(cities)-1, layer.Len())
	}
}

func TestSessionCatalogUnavailable(t *testing.T) {
	s, layer := newSession(&scriptedFetcher{}, staticCatalog{err: catalog.ErrCatalogUnavailable})

	if err := s.Update(context.Background(), "temperature"); !errors.Is(err, catalog.ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
	if layer.Len() != 0 {
		t.Fatalf("expected no markers, got %d", layer.Len())
	}
}

func TestSessionNewerSelectionSupersedesInFlightCycle(t *testing.T) {
	f := &scriptedFetcher{gate: make(chan struct{})}
	s, layer := newSession(f, staticCatalog{})
	ctx := context.Background()

	stale := make(chan error, 1)
	go func() { stale <- s.Update(ctx, "temperature") }()

	// Wait for the first cycle to block inside the fetch.
	deadline := time.Now().Add(2 * time.Second)
	for s.Snapshot().State != render.StateFetching {
		if time.Now().After(deadline) {
			t.Fatal("first cycle never started fetching")
		}
		time.Sleep(5 * time.Millisecond)
	}

	f.mu.Lock()
	f.gate = nil
	f.mu.Unlock()

	if err := s.Update(ctx, "wind"); err != nil {
		t.Fatalf("update wind: %v", err)
	}

	select {
	case err := <-stale:
		if !errors.Is(err, render.ErrSuperseded) {
			t.Fatalf("expected ErrSuperseded for the stale cycle, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stale cycle was not cancelled")
	}

	assertOneMarkerPerCity(t, layer, render.ConditionWind)
}

func TestSessionRefresh(t *testing.T) {
	s, layer := newSession(&scriptedFetcher{}, staticCatalog{})
	ctx := context.Background()

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("refresh before selection: %v", err)
	}
	if layer.Len() != 0 {
		t.Fatal("expected refresh before any selection to draw nothing")
	}

	if err := s.Update(ctx, "precipitation"); err != nil {
		t.Fatalf("update: %v", err)
	}
	first := s.Snapshot().Generation

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	snap := s.Snapshot()
	if snap.Generation != first+1 || snap.Condition != render.ConditionPrecipitation {
		t.Fatalf("expected a new precipitation cycle, got %+v", snap)
	}
	assertOneMarkerPerCity(t, layer, render.ConditionPrecipitation)
}

func TestSessionRender(t *testing.T) {
	s, layer := newSession(&scriptedFetcher{}, staticCatalog{})

	obs := []weather.Observation{
		{City: cities[0], TemperatureC: -5, Lat: cities[0].Lat, Lon: cities[0].Lon},
		{City: cities[1], TemperatureC: 31, Lat: cities[1].Lat, Lon: cities[1].Lon},
	}
	if err := s.Render("temperature", obs); err != nil {
		t.Fatalf("render: %v", err)
	}

	colors := make(map[string]string)
	for _, m := range layer.Markers() {
		colors[m.City] = m.Color
	}
	if colors["Denver"] != render.ColorBlue || colors["Miami"] != render.ColorRed {
		t.Fatalf("unexpected colors: %v", colors)
	}

	if err := s.Render("pressure", obs); !errors.Is(err, render.ErrUnknownCondition) {
		t.Fatalf("expected ErrUnknownCondition, got %v", err)
	}
	if layer.Len() != 0 {
		t.Fatalf("expected cleared map, got %d markers", layer.Len())
	}
}
