package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/floodwatch/floodwatch/internal/api/models"
	"github.com/floodwatch/floodwatch/internal/api/response"
	"github.com/floodwatch/floodwatch/internal/cache"
	"github.com/floodwatch/floodwatch/internal/river"
	"github.com/floodwatch/floodwatch/internal/scheduler"
)

// SchedulerControl is the slice of the scheduler the ops surface uses.
type SchedulerControl interface {
	RefreshSource(ctx context.Context, name string) error
	Status() []scheduler.SourceStatus
}

// RiverHealthSource probes the river providers.
type RiverHealthSource interface {
	ProviderHealth(ctx context.Context) []river.ProviderHealth
}

// OpsConfig holds configuration for the ops handler.
type OpsConfig struct {
	Version   string
	BuildTime string

	// Scheduler drives manual refreshes and the subsystem view. May be nil
	// in API-only deployments.
	Scheduler SchedulerControl

	// Caches yields the current cache info for every registered source.
	Caches []func() cache.Info

	// Rivers probes river provider health for the status endpoint. May be nil.
	Rivers RiverHealthSource
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. The service is ready once at
// least one cache holds a valid snapshot; before warm-up completes it
// reports 503 so load balancers hold traffic.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatusOK
	code := http.StatusOK

	if len(h.cfg.Caches) > 0 {
		anyValid := false
		for _, infoFn := range h.cfg.Caches {
			if infoFn().IsValid {
				anyValid = true
				break
			}
		}
		if !anyValid {
			status = models.HealthStatusFail
			code = http.StatusServiceUnavailable
		}
	}

	response.JSON(w, r, code, models.Health{
		Status: status,
		Time:   models.Timestamp(time.Now()),
	})
}

// SystemStatus handles GET /v1/ops/status - scheduler and provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       now,
		Subsystems: []models.SubsystemStatus{},
		Providers:  []models.ProviderStatus{},
	}

	if h.cfg.Scheduler != nil {
		for _, src := range h.cfg.Scheduler.Status() {
			sub := models.SubsystemStatus{Name: src.Name, Status: models.HealthStatusOK}
			if src.LastError != "" {
				detail := src.LastError
				sub.Status = models.HealthStatusDegraded
				sub.Detail = &detail
				status.Status = models.HealthStatusDegraded
			}
			status.Subsystems = append(status.Subsystems, sub)
		}
	}

	if h.cfg.Rivers != nil {
		for _, p := range h.cfg.Rivers.ProviderHealth(r.Context()) {
			ps := models.ProviderStatus{Provider: p.Name, Status: models.HealthStatusOK}
			if !p.Connected {
				msg := p.Error
				ps.Status = models.HealthStatusFail
				ps.Message = &msg
				status.Status = models.HealthStatusDegraded
			} else {
				ps.LastSuccessAt = &now
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

// CacheOverview handles GET /v1/ops/caches - the state of every cache.
func (h *OpsHandler) CacheOverview(w http.ResponseWriter, r *http.Request) {
	caches := make([]cache.Info, 0, len(h.cfg.Caches))
	for _, infoFn := range h.cfg.Caches {
		caches = append(caches, infoFn())
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"caches": caches,
		"count":  len(caches),
	})
}

// RefreshSource handles POST /v1/ops/refresh/{source} - forces one
// scheduler source.
func (h *OpsHandler) RefreshSource(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Scheduler == nil {
		response.ServiceUnavailable(w, r, "scheduler not running in this deployment")
		return
	}

	source := chi.URLParam(r, "source")
	if err := h.cfg.Scheduler.RefreshSource(r.Context(), source); err != nil {
		if errors.Is(err, scheduler.ErrUnknownSource) {
			response.NotFound(w, r, err.Error())
			return
		}
		response.InternalError(w, r, err.Error())
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"source":    source,
		"refreshed": true,
	})
}
