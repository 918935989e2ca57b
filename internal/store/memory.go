package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/i474232898/weather-map/internal/render"
)

var (
	// ErrNotFound is returned when a marker is not on the layer.
	ErrNotFound = errors.New("marker not found")

	errDuplicate = errors.New("marker already on layer")
)

// MemoryLayer is a concurrency-safe in-memory marker layer. It is the map
// surface the session draws on and the source the page reads markers from.
type MemoryLayer struct {
	mu sync.RWMutex

	// key: marker id, value: position in order
	index   map[string]int
	markers []render.Marker
}

// NewMemoryLayer creates an empty MemoryLayer.
func NewMemoryLayer() *MemoryLayer {
	return &MemoryLayer{
		index: make(map[string]int),
	}
}

// AddMarker places m on the layer.
func (l *MemoryLayer) AddMarker(m render.Marker) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.index[m.ID]; ok {
		return fmt.Errorf("%w: %s", errDuplicate, m.ID)
	}
	l.index[m.ID] = len(l.markers)
	l.markers = append(l.markers, m)
	return nil
}

// RemoveMarker takes the marker with id off the layer.
func (l *MemoryLayer) RemoveMarker(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	l.markers = append(l.markers[:i], l.markers[i+1:]...)
	delete(l.index, id)
	for j := i; j < len(l.markers); j++ {
		l.index[l.markers[j].ID] = j
	}
	return nil
}

// Markers returns the markers in insertion order.
func (l *MemoryLayer) Markers() []render.Marker {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]render.Marker, len(l.markers))
	copy(out, l.markers)
	return out
}

// Len returns the number of markers on the layer.
func (l *MemoryLayer) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.markers)
}
