package river

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/floodwatch/internal/region"
	"github.com/floodwatch/floodwatch/pkg/geo"
)

// FactoryConfig holds configuration for the provider factory.
type FactoryConfig struct {
	// Regions resolves region definitions and their provider lists (required).
	Regions *region.Registry

	// HealthTimeout bounds each provider health probe. Default: 10s.
	HealthTimeout time.Duration

	// Logger for factory operations.
	Logger zerolog.Logger
}

// Factory dispatches river providers by name, region, or geographic bounds.
// Region-to-provider wiring comes from the region document's
// dataProviders.rivers list, so adding a provider to a region is a
// configuration change.
type Factory struct {
	regions       *region.Registry
	healthTimeout time.Duration
	logger        zerolog.Logger

	mu        sync.RWMutex
	providers map[string]Provider
}

// NewFactory creates an empty factory.
func NewFactory(cfg FactoryConfig) *Factory {
	healthTimeout := cfg.HealthTimeout
	if healthTimeout == 0 {
		healthTimeout = 10 * time.Second
	}

	return &Factory{
		regions:       cfg.Regions,
		healthTimeout: healthTimeout,
		logger:        cfg.Logger,
		providers:     make(map[string]Provider),
	}
}

// Register adds a provider under its own name.
func (f *Factory) Register(p Provider) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providers[p.Name()] = p
}

// Provider returns the provider with the given name.
func (f *Factory) Provider(name string) (Provider, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	p, ok := f.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

// ProvidersForRegion returns the providers configured for a region, in the
// order the region document lists them. Configured but unregistered provider
// names are logged and skipped.
func (f *Factory) ProvidersForRegion(regionID string) ([]Provider, error) {
	reg, err := f.regions.Get(regionID)
	if err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	names := reg.Providers("rivers")
	out := make([]Provider, 0, len(names))
	for _, name := range names {
		p, ok := f.providers[name]
		if !ok {
			f.logger.Warn().Str("provider", name).Str("region", regionID).
				Msg("river provider configured but not registered")
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// ProvidersForBounds returns the providers of every region whose bounds
// intersect the given box, deduplicated, sorted by name.
func (f *Factory) ProvidersForBounds(bounds geo.BoundingBox) []Provider {
	seen := make(map[string]Provider)

	for _, reg := range f.regions.List() {
		if !reg.Bounds.Intersects(bounds) {
			continue
		}
		providers, err := f.ProvidersForRegion(reg.ID)
		if err != nil {
			continue
		}
		for _, p := range providers {
			seen[p.Name()] = p
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Provider, 0, len(names))
	for _, name := range names {
		out = append(out, seen[name])
	}
	return out
}

// HealthAll probes every registered provider concurrently. Each probe gets
// its own timeout so one slow upstream cannot hold up the report.
func (f *Factory) HealthAll(ctx context.Context) []ProviderHealth {
	f.mu.RLock()
	providers := make([]Provider, 0, len(f.providers))
	for _, p := range f.providers {
		providers = append(providers, p)
	}
	f.mu.RUnlock()

	sort.Slice(providers, func(i, j int) bool { return providers[i].Name() < providers[j].Name() })

	out := make([]ProviderHealth, len(providers))
	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()

			probeCtx, cancel := context.WithTimeout(ctx, f.healthTimeout)
			defer cancel()

			h := ProviderHealth{Name: p.Name(), RegionID: p.RegionID()}
			if err := p.HealthCheck(probeCtx); err != nil {
				h.Error = err.Error()
			} else {
				h.Connected = true
			}
			out[i] = h
		}(i, p)
	}
	wg.Wait()

	return out
}
