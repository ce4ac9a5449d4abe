package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/floodwatch/floodwatch/internal/region"
)

// WeatherLog is one per-district observation row in the append stream.
type WeatherLog struct {
	District    string            `json:"district"`
	RainfallMm  float64           `json:"rainfallMm"`
	ForecastMm  float64           `json:"forecastMm"`
	AlertLevel  region.AlertLevel `json:"alertLevel"`
	DangerScore int               `json:"dangerScore"`
	RecordedAt  time.Time         `json:"recordedAt"`
}

// AlertEvent is one official alert as it was observed.
type AlertEvent struct {
	Location   string     `json:"location"`
	Event      string     `json:"event"`
	Headline   string     `json:"headline"`
	Severity   string     `json:"severity"`
	Effective  *time.Time `json:"effective,omitempty"`
	RecordedAt time.Time  `json:"recordedAt"`
}

// ArchivedReport is a scored distress report kept after the crowdsource
// feed ages it out.
type ArchivedReport struct {
	ReportID     string    `json:"reportId"`
	District     string    `json:"district"`
	PeopleCount  int       `json:"peopleCount"`
	WaterLevel   string    `json:"waterLevel"`
	UrgencyScore int       `json:"urgencyScore"`
	UrgencyTier  string    `json:"urgencyTier"`
	ReportedAt   time.Time `json:"reportedAt"`
	ArchivedAt   time.Time `json:"archivedAt"`
}

// Store is the append-only persistence interface. Appends are idempotent
// where a natural key exists (archived reports); weather and alert rows are
// a plain time series.
type Store interface {
	AppendWeatherLogs(ctx context.Context, logs []WeatherLog) error

	// LatestWeatherLogs returns the most recent log per district,
	// keyed by lower-cased district name.
	LatestWeatherLogs(ctx context.Context) (map[string]WeatherLog, error)

	AppendAlertEvents(ctx context.Context, events []AlertEvent) error

	// RecentAlertEvents returns the newest events first.
	RecentAlertEvents(ctx context.Context, limit int) ([]AlertEvent, error)

	// ArchiveReports inserts reports not seen before and returns how many
	// were new.
	ArchiveReports(ctx context.Context, reports []ArchivedReport) (int, error)
}

// MemoryStore keeps the append streams in process. It backs tests and
// deployments without a database URL.
type MemoryStore struct {
	mu       sync.RWMutex
	weather  []WeatherLog
	alerts   []AlertEvent
	archived map[string]ArchivedReport
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{archived: make(map[string]ArchivedReport)}
}

func (s *MemoryStore) AppendWeatherLogs(_ context.Context, logs []WeatherLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weather = append(s.weather, logs...)
	return nil
}

func (s *MemoryStore) LatestWeatherLogs(_ context.Context) (map[string]WeatherLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]WeatherLog)
	for _, l := range s.weather {
		key := strings.ToLower(l.District)
		if existing, ok := out[key]; !ok || l.RecordedAt.After(existing.RecordedAt) {
			out[key] = l
		}
	}
	return out, nil
}

func (s *MemoryStore) AppendAlertEvents(_ context.Context, events []AlertEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, events...)
	return nil
}

func (s *MemoryStore) RecentAlertEvents(_ context.Context, limit int) ([]AlertEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]AlertEvent(nil), s.alerts...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ArchiveReports(_ context.Context, reports []ArchivedReport) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, r := range reports {
		if _, ok := s.archived[r.ReportID]; ok {
			continue
		}
		s.archived[r.ReportID] = r
		inserted++
	}
	return inserted, nil
}

// ArchivedCount reports how many reports the store holds.
func (s *MemoryStore) ArchivedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.archived)
}

var _ Store = (*MemoryStore)(nil)
