package render

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/i474232898/weather-map/internal/weather"
)

// ErrSuperseded is returned by a cycle that a newer selection replaced before it could draw.
var ErrSuperseded = errors.New("visualization superseded by a newer selection")

// State is the phase of the current visualization cycle.
type State string

const (
	StateIdle     State = "idle"
	StateClearing State = "clearing"
	StateFetching State = "fetching"
	StateDrawing  State = "drawing"
)

// CatalogLoader returns the monitored cities.
type CatalogLoader interface {
	Load(ctx context.Context) ([]weather.City, error)
}

// BatchFetcher returns one observation per city.
type BatchFetcher interface {
	FetchAll(ctx context.Context, cities []weather.City) ([]weather.Observation, error)
}

// Session owns the map surface and the markers currently drawn on it.
// Every Update or Render starts a new cycle and cancels the one in flight;
// only the newest cycle may draw.
type Session struct {
	surface Surface
	catalog CatalogLoader
	fetcher BatchFetcher

	mu         sync.Mutex
	live       []Marker
	state      State
	condition  Condition
	generation uint64
	cancel     context.CancelFunc
	lastErr    error
	updatedAt  time.Time
}

// NewSession creates a new Session drawing on surface.
func NewSession(surface Surface, catalog CatalogLoader, fetcher BatchFetcher) *Session {
	return &Session{
		surface: surface,
		catalog: catalog,
		fetcher: fetcher,
		state:   StateIdle,
	}
}

// Snapshot is a point-in-time view of the session.
type Snapshot struct {
	Condition  Condition `json:"condition"`
	State      State     `json:"state"`
	Generation uint64    `json:"generation"`
	Markers    []Marker  `json:"markers"`
	LastError  string    `json:"lastError,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	markers := make([]Marker, len(s.live))
	copy(markers, s.live)

	snap := Snapshot{
		Condition:  s.condition,
		State:      s.state,
		Generation: s.generation,
		Markers:    markers,
		UpdatedAt:  s.updatedAt,
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	return snap
}

// Update handles a selection change: it clears the map, loads the catalog,
// fetches every city and draws the markers for label.
//
// An unknown label leaves the map cleared and returns ErrUnknownCondition.
// A catalog or fetch failure leaves the map cleared and returns the error.
func (s *Session) Update(ctx context.Context, label string) error {
	ctx, gen := s.begin(ctx)
	err := s.run(ctx, gen, label)
	return s.finish(gen, label, err)
}

// Refresh redraws the last selected condition. It is a no-op before the first selection.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	cond := s.condition
	s.mu.Unlock()

	if cond == "" {
		return nil
	}
	return s.Update(ctx, string(cond))
}

// Render replaces the markers with those for label computed from observations
// that were fetched elsewhere. It is the entry point for drawing without a
// catalog load or fetch, and it supersedes any in-flight Update like a new selection does.
func (s *Session) Render(label string, observations []weather.Observation) error {
	_, gen := s.begin(context.Background())

	cond, err := ParseCondition(label)
	if err == nil {
		s.selectCondition(gen, cond)
		err = s.draw(gen, cond, observations)
	}
	return s.finish(gen, label, err)
}

func (s *Session) run(ctx context.Context, gen uint64, label string) error {
	cond, err := ParseCondition(label)
	if err != nil {
		return err
	}
	s.selectCondition(gen, cond)

	if !s.setState(gen, StateFetching) {
		return ErrSuperseded
	}

	cities, err := s.catalog.Load(ctx)
	if err != nil {
		return err
	}

	observations, fetchErr := s.fetcher.FetchAll(ctx, cities)
	if fetchErr != nil && len(observations) == 0 {
		return fetchErr
	}

	if err := s.draw(gen, cond, observations); err != nil {
		return err
	}
	// Partial batches draw what arrived and still report the failed cities.
	return fetchErr
}

// begin starts a new cycle: the previous one is cancelled and the map cleared.
func (s *Session) begin(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.generation++
	s.clearLocked()

	return ctx, s.generation
}

func (s *Session) finish(gen uint64, label string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		log.Printf("DEBUG: visualization cycle %d (%s) superseded by cycle %d", gen, label, s.generation)
		return ErrSuperseded
	}

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = StateIdle
	s.lastErr = err
	s.updatedAt = time.Now().UTC()

	if err != nil {
		log.Printf("ERROR: visualization cycle %d (%s) failed: %v", gen, label, err)
		return err
	}
	log.Printf("INFO: visualization cycle %d drew %d %s markers", gen, len(s.live), label)
	return nil
}

func (s *Session) selectCondition(gen uint64, cond Condition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation {
		s.condition = cond
	}
}

func (s *Session) setState(gen uint64, state State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.state = state
	return true
}

func (s *Session) draw(gen uint64, cond Condition, observations []weather.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return ErrSuperseded
	}

	// Clearing always precedes Drawing.
	s.clearLocked()
	s.state = StateDrawing

	for _, obs := range observations {
		m, err := NewMarker(cond, obs)
		if err != nil {
			return err
		}
		if offset := m.OffsetMeters; offset > 10000 {
			log.Printf("DEBUG: %s reported %.0fm away from its catalog position", obs.City.Name, offset)
		}
		if err := s.surface.AddMarker(m); err != nil {
			return err
		}
		s.live = append(s.live, m)
	}
	return nil
}

func (s *Session) clearLocked() {
	s.state = StateClearing
	for _, m := range s.live {
		if err := s.surface.RemoveMarker(m.ID); err != nil {
			log.Printf("ERROR: removing marker %s (%s): %v", m.ID, m.City, err)
		}
	}
	s.live = nil
}
