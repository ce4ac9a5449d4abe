// Package region loads and serves region and district definitions.
package region

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// RegistryConfig holds configuration for the region registry.
type RegistryConfig struct {
	// RegionsPath is the path to the regions.json document (required).
	RegionsPath string

	// DistrictsDir holds one <regionId>.json district document per region.
	DistrictsDir string

	// Logger for registry operations.
	Logger zerolog.Logger
}

// Registry serves immutable region definitions loaded from a JSON document.
// Reload swaps the whole map atomically; readers see either the old or the
// new configuration, never a partial one.
type Registry struct {
	regionsPath  string
	districtsDir string
	logger       zerolog.Logger

	mu        sync.RWMutex
	regions   map[string]Region
	districts map[string][]District

	watcher *fsnotify.Watcher
}

type regionsDocument struct {
	Regions []Region `json:"regions"`
}

type districtsDocument struct {
	Districts []District `json:"districts"`
}

// NewRegistry loads the region document and returns a ready registry.
// A malformed document at startup is fatal.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	r := &Registry{
		regionsPath:  cfg.RegionsPath,
		districtsDir: cfg.DistrictsDir,
		logger:       cfg.Logger,
	}

	regions, districts, err := r.load()
	if err != nil {
		return nil, fmt.Errorf("loading region configuration: %w", err)
	}

	r.regions = regions
	r.districts = districts
	return r, nil
}

func (r *Registry) load() (map[string]Region, map[string][]District, error) {
	raw, err := os.ReadFile(r.regionsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", r.regionsPath, err)
	}

	var doc regionsDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", r.regionsPath, err)
	}
	if len(doc.Regions) == 0 {
		return nil, nil, fmt.Errorf("%s contains no regions", r.regionsPath)
	}

	regions := make(map[string]Region, len(doc.Regions))
	for _, reg := range doc.Regions {
		if reg.ID == "" {
			return nil, nil, fmt.Errorf("%s contains a region without an id", r.regionsPath)
		}
		regions[reg.ID] = reg
	}

	districts := make(map[string][]District)
	if r.districtsDir != "" {
		for id := range regions {
			path := filepath.Join(r.districtsDir, id+".json")
			raw, err := os.ReadFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return nil, nil, fmt.Errorf("reading %s: %w", path, err)
			}
			var ddoc districtsDocument
			if err := json.Unmarshal(raw, &ddoc); err != nil {
				return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
			}
			districts[id] = ddoc.Districts
		}
	}

	return regions, districts, nil
}

// Get returns the region with the given id.
func (r *Registry) Get(id string) (Region, error) {
	if id == "" {
		return Region{}, ErrEmptyRegionID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.regions[id]
	if !ok {
		return Region{}, fmt.Errorf("%w: %s", ErrUnknownRegion, id)
	}
	return reg, nil
}

// List returns all configured regions sorted by id.
func (r *Registry) List() []Region {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Region, 0, len(r.regions))
	for _, reg := range r.regions {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListActive returns only regions flagged active, sorted by id.
func (r *Registry) ListActive() []Region {
	all := r.List()
	out := all[:0]
	for _, reg := range all {
		if reg.Active {
			out = append(out, reg)
		}
	}
	return out
}

// AlertLevel returns the rainfall alert band for a region.
func (r *Registry) AlertLevel(regionID string, rainfallMm float64) (AlertLevel, error) {
	reg, err := r.Get(regionID)
	if err != nil {
		return "", err
	}
	return reg.AlertLevelFor(rainfallMm), nil
}

// Districts returns the district list for a region.
func (r *Registry) Districts(regionID string) ([]District, error) {
	if _, err := r.Get(regionID); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.districts[regionID], nil
}

// District looks up a single district by name within a region.
func (r *Registry) District(regionID, name string) (District, error) {
	districts, err := r.Districts(regionID)
	if err != nil {
		return District{}, err
	}
	for _, d := range districts {
		if strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return District{}, fmt.Errorf("%w: %s", ErrUnknownDistrict, name)
}

// Reload re-reads the region document and swaps the registry atomically.
// On failure the prior configuration is retained.
func (r *Registry) Reload() error {
	regions, districts, err := r.load()
	if err != nil {
		r.logger.Error().Err(err).Msg("region reload failed, keeping previous configuration")
		return err
	}

	r.mu.Lock()
	r.regions = regions
	r.districts = districts
	r.mu.Unlock()

	r.logger.Info().Int("regions", len(regions)).Msg("region configuration reloaded")
	return nil
}

// Watch starts reloading the registry whenever the region document changes.
// Returns a stop function. Reload failures keep the prior configuration.
func (r *Registry) Watch() (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(r.regionsPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", r.regionsPath, err)
	}
	r.watcher = watcher

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != r.regionsPath {
					continue
				}
				if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
					_ = r.Reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.Warn().Err(err).Msg("region watcher error")
			}
		}
	}()

	return func() { _ = watcher.Close() }, nil
}
