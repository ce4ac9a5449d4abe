package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// Predefined errors for upstream calls.
var (
	// ErrCircuitOpen is returned when the breaker rejects the call outright.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrRateLimited is returned on HTTP 429/503. Callers back off until the
	// next scheduled cycle and leave their cache unchanged.
	ErrRateLimited = errors.New("upstream rate limited")
)

// ClientConfig holds configuration for a resilient upstream HTTP client.
type ClientConfig struct {
	// Name identifies the upstream source (e.g. "tomtom", "irrigation_dept").
	Name string

	// Timeout bounds each HTTP call. Default: 30s. Health probes use 10s,
	// archive sources 120s; fetchers set this per source.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the first call.
	// Default 0: one attempt per cycle. Traffic and river sources use 1
	// with a 2s interval.
	MaxRetries uint64

	// RetryInterval is the initial backoff interval between attempts.
	RetryInterval time.Duration

	// Breaker overrides the circuit breaker settings.
	Breaker *BreakerConfig

	// Registry receives success/failure records for health reporting.
	// Nil uses the package-level GlobalRegistry.
	Registry *Registry
}

// DefaultClientConfig returns the standard single-attempt client settings.
func DefaultClientConfig(name string) ClientConfig {
	return ClientConfig{
		Name:    name,
		Timeout: 30 * time.Second,
	}
}

// RetryingClientConfig returns the two-attempt settings used by traffic and
// river sources.
func RetryingClientConfig(name string) ClientConfig {
	return ClientConfig{
		Name:          name,
		Timeout:       30 * time.Second,
		MaxRetries:    1,
		RetryInterval: 2 * time.Second,
	}
}

// Client wraps http.Client with a circuit breaker, bounded retries, and
// health recording. One Client serves one upstream source.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	config     ClientConfig
	registry   *Registry
}

// NewClient creates a resilient client and registers it for health reporting.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = 2 * time.Second
	}

	breakerCfg := DefaultBreakerConfig(cfg.Name)
	if cfg.Breaker != nil {
		breakerCfg = *cfg.Breaker
	}

	registry := cfg.Registry
	if registry == nil {
		registry = GlobalRegistry
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    newBreaker[*http.Response](breakerCfg),
		config:     cfg,
		registry:   registry,
	}
	registry.Register(cfg.Name, c)
	return c
}

// Do executes the request with breaker protection and the configured retry
// budget. 5xx responses and transport errors are retryable; 429 and 503
// return ErrRateLimited immediately so callers keep their cache unchanged.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

// DoWithContext executes the request under the given context.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.RetryInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	var result *http.Response

	operation := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes
			r, err := c.httpClient.Do(req.Clone(ctx))
			if err != nil {
				return nil, err
			}
			switch {
			case r.StatusCode == http.StatusTooManyRequests || r.StatusCode == http.StatusServiceUnavailable:
				r.Body.Close()
				return nil, ErrRateLimited
			case r.StatusCode >= 500:
				r.Body.Close()
				return nil, &ServerError{StatusCode: r.StatusCode}
			}
			return r, nil
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if errors.Is(err, ErrRateLimited) {
				return backoff.Permanent(err)
			}
			return err
		}

		result = resp
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		c.registry.RecordFailure(c.config.Name, err)
		return nil, err
	}

	c.registry.RecordSuccess(c.config.Name)
	return result, nil
}

// BreakerState returns the current circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// BreakerCounts returns the current circuit breaker counts.
func (c *Client) BreakerCounts() gobreaker.Counts {
	return c.breaker.Counts()
}

// ServerError represents an HTTP 5xx from an upstream provider.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}
