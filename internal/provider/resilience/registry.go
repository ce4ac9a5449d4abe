package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// SourceHealth is the health view of one upstream source, exposed on the
// provider status endpoints.
type SourceHealth struct {
	Name          string           `json:"name"`
	Connected     bool             `json:"connected"`
	CircuitState  gobreaker.State  `json:"-"`
	Counts        gobreaker.Counts `json:"-"`
	LastSuccessAt *time.Time       `json:"lastSuccessAt,omitempty"`
	LastFailureAt *time.Time       `json:"lastFailureAt,omitempty"`
	LastError     string           `json:"error,omitempty"`
}

// Healthy reports whether the source's circuit is closed.
func (h *SourceHealth) Healthy() bool {
	return h.CircuitState == gobreaker.StateClosed
}

// Registry tracks the upstream clients and their most recent outcomes.
// Failures recorded here surface as ProviderUnavailable in cache metadata;
// they are never propagated to readers.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]*trackedSource
}

type trackedSource struct {
	client        *Client
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// GlobalRegistry is the default source registry.
var GlobalRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]*trackedSource)}
}

// Register adds a source client to the registry.
func (r *Registry) Register(name string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[name] = &trackedSource{client: client}
}

// RecordSuccess records a successful upstream call.
func (r *Registry) RecordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sources[name]; ok {
		now := time.Now()
		s.lastSuccessAt = &now
		s.lastError = ""
	}
}

// RecordFailure records a failed upstream call.
func (r *Registry) RecordFailure(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sources[name]; ok {
		now := time.Now()
		s.lastFailureAt = &now
		if err != nil {
			s.lastError = err.Error()
		}
	}
}

// Health returns the health of one source, nil if unknown.
func (r *Registry) Health(name string) *SourceHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sources[name]
	if !ok {
		return nil
	}
	return r.healthLocked(name, s)
}

// AllHealth returns the health of every registered source, sorted by name.
func (r *Registry) AllHealth() []*SourceHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*SourceHealth, 0, len(r.sources))
	for name, s := range r.sources {
		out = append(out, r.healthLocked(name, s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) healthLocked(name string, s *trackedSource) *SourceHealth {
	h := &SourceHealth{
		Name:          name,
		CircuitState:  s.client.BreakerState(),
		Counts:        s.client.BreakerCounts(),
		LastSuccessAt: s.lastSuccessAt,
		LastFailureAt: s.lastFailureAt,
		LastError:     s.lastError,
	}
	h.Connected = h.Healthy() && s.lastError == ""
	return h
}

// SourceNames returns the registered source names, sorted.
func (r *Registry) SourceNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
