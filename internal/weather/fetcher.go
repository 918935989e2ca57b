package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrWeatherFetchFailed is returned when a per-city lookup fails or its payload is malformed.
	ErrWeatherFetchFailed = errors.New("weather fetch failed")

	errNoProvider = errors.New("no weather provider configured")
)

// BatchPolicy decides what a failed city does to the rest of its batch.
type BatchPolicy string

const (
	// PolicyAllOrNothing aborts the whole batch on the first failed city.
	PolicyAllOrNothing BatchPolicy = "all-or-nothing"
	// PolicyPartial keeps every successful observation and reports the failures.
	PolicyPartial BatchPolicy = "partial"
)

// BatchError lists the cities whose lookups failed in a partial batch.
type BatchError struct {
	Failed map[string]error
}

func (e *BatchError) Error() string {
	names := make([]string, 0, len(e.Failed))
	for name := range e.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("%s for %d cities: %s", ErrWeatherFetchFailed, len(names), strings.Join(names, ", "))
}

func (e *BatchError) Unwrap() error { return ErrWeatherFetchFailed }

// Fetcher fans a batch of cities out to a provider and joins on the results.
type Fetcher struct {
	provider Provider
	policy   BatchPolicy
}

// NewFetcher creates a new Fetcher. An empty policy means PolicyAllOrNothing.
func NewFetcher(provider Provider, policy BatchPolicy) *Fetcher {
	if policy == "" {
		policy = PolicyAllOrNothing
	}
	return &Fetcher{
		provider: provider,
		policy:   policy,
	}
}

// Policy reports the batch policy in effect.
func (f *Fetcher) Policy() BatchPolicy {
	return f.policy
}

// FetchAll issues one request per city concurrently and returns once every
// request has settled. Observations come back in completion order.
//
// Under PolicyAllOrNothing the first failure cancels the outstanding requests
// and the batch returns no observations. Under PolicyPartial the successful
// observations are returned together with a *BatchError.
func (f *Fetcher) FetchAll(ctx context.Context, cities []City) ([]Observation, error) {
	if f.provider == nil {
		return nil, errNoProvider
	}

	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		observations = make([]Observation, 0, len(cities))
		failed       = make(map[string]error)
		firstErr     error
	)

	log.Printf("DEBUG: fetching %d cities from %s (%s)", len(cities), f.provider.Name(), f.policy)

	for _, city := range cities {
		wg.Add(1)
		go func(city City) {
			defer wg.Done()

			obs, err := f.provider.Fetch(batchCtx, city)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if !errors.Is(err, ErrWeatherFetchFailed) {
					err = fmt.Errorf("%w: %s: %v", ErrWeatherFetchFailed, city.Name, err)
				}
				failed[city.Name] = err
				if firstErr == nil {
					firstErr = err
					if f.policy == PolicyAllOrNothing {
						cancel()
					}
				}
				return
			}
			observations = append(observations, obs)
		}(city)
	}

	wg.Wait()

	if len(failed) == 0 {
		return observations, nil
	}

	// Cancelled by the caller rather than by a failing city.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if f.policy == PolicyPartial {
		for name, err := range failed {
			log.Printf("ERROR: %v (city %s skipped)", err, name)
		}
		return observations, &BatchError{Failed: failed}
	}

	return nil, firstErr
}
