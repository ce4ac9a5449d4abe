// Package cache provides the TTL-gated snapshot holder used by every source
// fetcher. Each cache owns its value exclusively: all mutation goes through
// Refresh, reads receive the current snapshot, and concurrent refreshes
// coalesce into a single upstream fetch.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Cache errors.
var (
	// ErrEmpty is returned by Get when no value has ever been written.
	ErrEmpty = errors.New("cache is empty")

	// ErrFrozen is returned by Refresh when freeze mode is enabled.
	ErrFrozen = errors.New("cache is frozen")
)

// State describes the lifecycle position of a cache entry.
type State string

const (
	StateEmpty      State = "empty"
	StateFresh      State = "fresh"
	StateStale      State = "stale"
	StateRefreshing State = "refreshing"
)

// FetchFunc performs one full upstream fetch cycle and returns the new value.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Config holds configuration for a cache.
type Config[T any] struct {
	// Name identifies the cache for logging and the manual-refresh hook.
	Name string

	// TTL is how long a value counts as fresh.
	TTL time.Duration

	// Fetch performs the upstream refresh (required).
	Fetch FetchFunc[T]

	// Freeze pins the cache to its current value and disables refresh.
	Freeze bool

	// SnapshotPath enables disk persistence when non-empty. The snapshot is
	// a single JSON document {value, lastUpdated}.
	SnapshotPath string

	// Logger for cache operations.
	Logger zerolog.Logger
}

// Info describes cache metadata exposed alongside every read.
type Info struct {
	Name               string     `json:"name"`
	State              State      `json:"state"`
	LastUpdated        *time.Time `json:"lastUpdated,omitempty"`
	AgeSeconds         int64      `json:"ageSeconds"`
	TTLSeconds         int64      `json:"ttlSeconds"`
	NextRefreshSeconds int64      `json:"nextRefreshSeconds"`
	IsValid            bool       `json:"isValid"`
	Freeze             bool       `json:"freezeMode"`
	LastError          string     `json:"lastError,omitempty"`
	LastErrorAt        *time.Time `json:"lastErrorAt,omitempty"`
}

// Cache is a TTL-gated snapshot holder for one fetcher's output.
type Cache[T any] struct {
	name         string
	ttl          time.Duration
	fetch        FetchFunc[T]
	freeze       bool
	snapshotPath string
	logger       zerolog.Logger

	group singleflight.Group

	mu          sync.RWMutex
	value       T
	hasValue    bool
	lastUpdated time.Time
	refreshing  bool
	lastError   string
	lastErrorAt time.Time

	// now is swappable for tests.
	now func() time.Time
}

// New creates a cache. If a snapshot path is configured, any existing disk
// snapshot is loaded immediately; a corrupted snapshot is ignored.
func New[T any](cfg Config[T]) *Cache[T] {
	c := &Cache[T]{
		name:         cfg.Name,
		ttl:          cfg.TTL,
		fetch:        cfg.Fetch,
		freeze:       cfg.Freeze,
		snapshotPath: cfg.SnapshotPath,
		logger:       cfg.Logger,
		now:          time.Now,
	}

	if c.snapshotPath != "" {
		if err := c.LoadFromDisk(); err != nil && !os.IsNotExist(err) {
			c.logger.Warn().Err(err).Str("cache", c.name).Msg("ignoring unreadable cache snapshot")
		}
	}

	return c
}

// Name returns the cache identifier.
func (c *Cache[T]) Name() string { return c.name }

// TTL returns the refresh cadence.
func (c *Cache[T]) TTL() time.Duration { return c.ttl }

// Get returns the current snapshot and its state. The value is whatever was
// last written, even when stale; callers check Info for freshness.
func (c *Cache[T]) Get() (T, State) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.stateLocked()
}

// Value returns the current snapshot, or ErrEmpty if nothing has been written.
func (c *Cache[T]) Value() (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.hasValue {
		var zero T
		return zero, ErrEmpty
	}
	return c.value, nil
}

// IsFresh reports whether the value is within its TTL.
// Under freeze mode a cache with any value is always fresh.
func (c *Cache[T]) IsFresh() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isFreshLocked()
}

func (c *Cache[T]) isFreshLocked() bool {
	if c.freeze && c.hasValue {
		return true
	}
	if !c.hasValue {
		return false
	}
	return c.now().Sub(c.lastUpdated) < c.ttl
}

func (c *Cache[T]) stateLocked() State {
	switch {
	case c.refreshing:
		return StateRefreshing
	case !c.hasValue:
		return StateEmpty
	case c.isFreshLocked():
		return StateFresh
	default:
		return StateStale
	}
}

// LastUpdated returns the time of the last successful refresh, zero if none.
func (c *Cache[T]) LastUpdated() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUpdated
}

// Refresh performs one upstream fetch cycle unless the value is still fresh
// and force is false. Concurrent callers coalesce: at most one fetch is in
// flight, and every caller returns the winner's outcome. On failure the
// previous value is retained and the error recorded in cache metadata.
func (c *Cache[T]) Refresh(ctx context.Context, force bool) error {
	if c.freeze {
		return ErrFrozen
	}
	if !force && c.IsFresh() {
		return nil
	}

	_, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		c.mu.Lock()
		c.refreshing = true
		c.mu.Unlock()

		defer func() {
			c.mu.Lock()
			c.refreshing = false
			c.mu.Unlock()
		}()

		value, err := c.fetch(ctx)
		if err != nil {
			c.recordError(err)
			return nil, err
		}
		if ctx.Err() != nil {
			// Cancelled mid-fetch: do not write a partial snapshot.
			return nil, ctx.Err()
		}

		c.setValue(value)
		return nil, nil
	})

	return err
}

func (c *Cache[T]) setValue(value T) {
	c.mu.Lock()
	c.value = value
	c.hasValue = true
	c.lastUpdated = c.now().UTC()
	c.lastError = ""
	c.mu.Unlock()

	if c.snapshotPath != "" {
		if err := c.SnapshotToDisk(); err != nil {
			c.logger.Error().Err(err).Str("cache", c.name).Msg("failed to persist cache snapshot")
		}
	}
}

func (c *Cache[T]) recordError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastError = err.Error()
	c.lastErrorAt = c.now().UTC()
	c.logger.Warn().Err(err).Str("cache", c.name).Msg("refresh failed, serving previous value")
}

// Info returns the cache metadata exposed on every read endpoint.
func (c *Cache[T]) Info() Info {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info := Info{
		Name:       c.name,
		State:      c.stateLocked(),
		TTLSeconds: int64(c.ttl.Seconds()),
		IsValid:    c.isFreshLocked(),
		Freeze:     c.freeze,
		LastError:  c.lastError,
		AgeSeconds: -1,
	}

	if c.hasValue {
		t := c.lastUpdated
		info.LastUpdated = &t
		age := int64(c.now().Sub(c.lastUpdated).Seconds())
		info.AgeSeconds = age
		if remaining := info.TTLSeconds - age; remaining > 0 {
			info.NextRefreshSeconds = remaining
		}
	}
	if !c.lastErrorAt.IsZero() {
		t := c.lastErrorAt
		info.LastErrorAt = &t
	}

	return info
}

// diskSnapshot is the persisted JSON layout. lastUpdated carries its timezone;
// a timestamp without one is interpreted as UTC on load.
type diskSnapshot[T any] struct {
	Value       T      `json:"value"`
	LastUpdated string `json:"lastUpdated"`
}

// SnapshotToDisk writes the current value and lastUpdated as one JSON document.
func (c *Cache[T]) SnapshotToDisk() error {
	c.mu.RLock()
	if !c.hasValue {
		c.mu.RUnlock()
		return ErrEmpty
	}
	snap := diskSnapshot[T]{
		Value:       c.value,
		LastUpdated: c.lastUpdated.Format(time.RFC3339Nano),
	}
	c.mu.RUnlock()

	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.snapshotPath), 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	tmp := c.snapshotPath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return os.Rename(tmp, c.snapshotPath)
}

// LoadFromDisk restores the value and lastUpdated from the snapshot file.
// A snapshot without a parseable timestamp is treated as written at the epoch
// so the next scheduled cycle forces a refresh.
func (c *Cache[T]) LoadFromDisk() error {
	raw, err := os.ReadFile(c.snapshotPath)
	if err != nil {
		return err
	}

	var snap diskSnapshot[T]
	if err := json.Unmarshal(raw, &snap); err != nil {
		c.logger.Warn().Err(err).Str("cache", c.name).Msg("corrupted cache snapshot, starting empty")
		return nil
	}

	lastUpdated := parseSnapshotTime(snap.LastUpdated)

	c.mu.Lock()
	c.value = snap.Value
	c.hasValue = true
	c.lastUpdated = lastUpdated
	c.mu.Unlock()

	c.logger.Info().
		Str("cache", c.name).
		Time("last_updated", lastUpdated).
		Msg("restored cache snapshot from disk")
	return nil
}

// parseSnapshotTime accepts RFC3339 timestamps, falls back to interpreting a
// timezone-less timestamp as UTC, and returns the epoch when unparseable.
func parseSnapshotTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC); err == nil {
		return t
	}
	return time.Unix(0, 0).UTC()
}
