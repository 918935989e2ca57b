package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-map/internal/weather"
)

// UnitSystem is the unit selector sent to sources that take one.
// Thresholds downstream assume Celsius, millimetres and metres per second.
const UnitSystem = "metric"

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errAborted      = errors.New("request aborted by caller")
	errNoHTTPClient = errors.New("http client not configured")
	errMissingKey   = errors.New("api key is not configured")
)

var validate = validator.New()

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:         name,
		MaxRequests:  5,
		Interval:     1 * time.Minute,
		Timeout:      2 * time.Minute,
		IsSuccessful: upstreamHealthy,
	})
}

// upstreamHealthy reports whether a call result leaves the breaker's failure
// count alone. Only transport errors, 5xx and 429 count against the upstream;
// a caller cancelling its own batch or a single city's 4xx does not.
func upstreamHealthy(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, errAborted), errors.Is(err, errUnexpected):
		return true
	default:
		return false
	}
}

// doRequest executes a single HTTP request through the circuit breaker.
// Any non-2xx status is an error; there are no retries.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	req, err := buildRequest()
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", errAborted, ctx.Err())
			}
			return nil, execErr
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			return nil, errRateLimited
		case resp.StatusCode >= 500:
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}

		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}

// decodePayload decodes a JSON body into payload and enforces its validate tags.
func decodePayload(resp *http.Response, payload any) error {
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(payload); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	if err := validate.Struct(payload); err != nil {
		return fmt.Errorf("incomplete payload: %w", err)
	}
	return nil
}

// fetchFailed tags err as a weather fetch failure for city.
func fetchFailed(provider string, city weather.City, err error) error {
	return fmt.Errorf("%w: %s: %s: %v", weather.ErrWeatherFetchFailed, provider, city.Name, err)
}
