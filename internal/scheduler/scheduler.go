// Package scheduler runs the background refresh loops that keep the source
// caches warm. Each source gets its own long-lived loop; the HTTP read path
// never waits on upstream because the loops have already done the work.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnknownSource rejects a manual refresh for a source the scheduler does
// not manage.
var ErrUnknownSource = errors.New("unknown refresh source")

// Source is one refreshable cache loop. Refresh matches the cache signature:
// force bypasses the TTL gate.
type Source struct {
	// Name identifies the source in logs, metrics, and manual refreshes.
	Name string

	// Interval is the loop period; each sleep is jittered around it.
	Interval time.Duration

	// Refresh runs one cycle. The loop never forces: the cache's own TTL
	// decides whether upstream is hit.
	Refresh func(ctx context.Context, force bool) error
}

// Config holds configuration for the scheduler.
type Config struct {
	// Sources are the refresh loops to run.
	Sources []Source

	// WarmupConcurrency bounds the startup warm-up pool.
	// Default: 2x CPU count.
	WarmupConcurrency int

	// WarmupTimeout bounds each warm-up refresh. Default: 60s.
	WarmupTimeout time.Duration

	// StopGrace is how long Stop waits for loops to wind down.
	// Default: 10s.
	StopGrace time.Duration

	// Logger for scheduler operations.
	Logger zerolog.Logger
}

// SourceStatus is the per-source loop telemetry.
type SourceStatus struct {
	Name        string        `json:"name"`
	Interval    time.Duration `json:"interval"`
	Runs        int64         `json:"runs"`
	Failures    int64         `json:"failures"`
	LastRunAt   time.Time     `json:"lastRunAt,omitzero"`
	LastError   string        `json:"lastError,omitempty"`
	LastErrorAt time.Time     `json:"lastErrorAt,omitzero"`
}

// Scheduler owns the refresh loops.
type Scheduler struct {
	sources           []Source
	byName            map[string]Source
	warmupConcurrency int
	warmupTimeout     time.Duration
	stopGrace         time.Duration
	logger            zerolog.Logger

	mu     sync.Mutex
	status map[string]*SourceStatus
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler. Duplicate source names panic: they would make
// manual refresh ambiguous, and the set is fixed at wiring time.
func New(cfg Config) *Scheduler {
	warmup := cfg.WarmupConcurrency
	if warmup <= 0 {
		warmup = 2 * runtime.NumCPU()
	}
	warmupTimeout := cfg.WarmupTimeout
	if warmupTimeout == 0 {
		warmupTimeout = 60 * time.Second
	}
	stopGrace := cfg.StopGrace
	if stopGrace == 0 {
		stopGrace = 10 * time.Second
	}

	byName := make(map[string]Source, len(cfg.Sources))
	status := make(map[string]*SourceStatus, len(cfg.Sources))
	for _, src := range cfg.Sources {
		if _, dup := byName[src.Name]; dup {
			panic(fmt.Sprintf("scheduler: duplicate source %q", src.Name))
		}
		byName[src.Name] = src
		status[src.Name] = &SourceStatus{Name: src.Name, Interval: src.Interval}
	}

	return &Scheduler{
		sources:           cfg.Sources,
		byName:            byName,
		warmupConcurrency: warmup,
		warmupTimeout:     warmupTimeout,
		stopGrace:         stopGrace,
		logger:            cfg.Logger,
		status:            status,
	}
}

// Start warms every cache through a bounded pool, then launches the
// per-source loops. It does not block; Stop winds everything down.
func (s *Scheduler) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.warmup(runCtx)
		if runCtx.Err() != nil {
			return
		}

		for _, src := range s.sources {
			s.wg.Add(1)
			go func(src Source) {
				defer s.wg.Done()
				s.loop(runCtx, src)
			}(src)
		}
	}()
}

// warmup refreshes every source once in parallel. Caches restored from a
// fresh disk snapshot make this a no-op for their source.
func (s *Scheduler) warmup(ctx context.Context) {
	s.logger.Info().
		Int("sources", len(s.sources)).
		Int("concurrency", s.warmupConcurrency).
		Msg("warming source caches")

	work := make(chan Source, len(s.sources))
	for _, src := range s.sources {
		work <- src
	}
	close(work)

	var wg sync.WaitGroup
	for i := 0; i < s.warmupConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range work {
				if ctx.Err() != nil {
					return
				}
				warmCtx, cancel := context.WithTimeout(ctx, s.warmupTimeout)
				s.runOnce(warmCtx, src, false)
				cancel()
			}
		}()
	}
	wg.Wait()

	s.logger.Info().Msg("source caches warm")
}

// loop sleeps a jittered interval, then refreshes. Jitter keeps the sources
// from hitting their upstreams in lockstep after a restart.
func (s *Scheduler) loop(ctx context.Context, src Source) {
	timer := time.NewTimer(jitter(src.Interval))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.runOnce(ctx, src, false)
			timer.Reset(jitter(src.Interval))
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, src Source, force bool) error {
	err := src.Refresh(ctx, force)

	s.mu.Lock()
	st := s.status[src.Name]
	st.Runs++
	st.LastRunAt = time.Now().UTC()
	if err != nil {
		st.Failures++
		st.LastError = err.Error()
		st.LastErrorAt = st.LastRunAt
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn().Err(err).Str("source", src.Name).Msg("scheduled refresh failed")
		return err
	}
	s.logger.Debug().Str("source", src.Name).Msg("scheduled refresh complete")
	return nil
}

// RefreshSource forces one source to refresh immediately, outside its loop.
// The caller's context bounds the work so an API trigger cannot hang.
func (s *Scheduler) RefreshSource(ctx context.Context, name string) error {
	src, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}

	s.logger.Info().Str("source", name).Msg("manual refresh requested")
	if err := s.runOnce(ctx, src, true); err != nil {
		return fmt.Errorf("refreshing %s: %w", name, err)
	}
	return nil
}

// Sources lists the managed source names in wiring order.
func (s *Scheduler) Sources() []string {
	out := make([]string, 0, len(s.sources))
	for _, src := range s.sources {
		out = append(out, src.Name)
	}
	return out
}

// Status returns per-source loop telemetry in wiring order.
func (s *Scheduler) Status() []SourceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SourceStatus, 0, len(s.sources))
	for _, src := range s.sources {
		out = append(out, *s.status[src.Name])
	}
	return out
}

// Stop cancels all loops and waits up to the grace period for them to
// finish. Fetchers observe cancellation and return without writing a
// partial cache, so exceeding the grace only abandons goroutines that are
// blocked on upstream I/O.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("scheduler stopped")
	case <-time.After(s.stopGrace):
		s.logger.Warn().Dur("grace", s.stopGrace).Msg("scheduler stop exceeded grace period")
	}
}

// jitter spreads an interval +/-20% so loops with the same period drift
// apart over time.
func jitter(interval time.Duration) time.Duration {
	if interval <= 0 {
		return time.Minute
	}
	factor := 0.8 + 0.4*rand.Float64()
	return time.Duration(float64(interval) * factor)
}
