package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/datamatch/datamatch/internal/api/models"
	"github.com/datamatch/datamatch/internal/api/response"
	"github.com/datamatch/datamatch/internal/featureflags"
	"github.com/datamatch/datamatch/internal/resilience"
)

const pingTimeout = 2 * time.Second

// Pinger checks a backing store. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsConfig holds the dependencies of the ops endpoints. Nil fields are
// skipped.
type OpsConfig struct {
	Version   string
	BuildTime string
	Database  Pinger
	Registry  *resilience.Registry
	Flags     *featureflags.Service
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
	now func() time.Time
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg, now: time.Now}
}

// HealthCheck handles GET /v1/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   h.now().UTC(),
		Details: map[string]any{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ready. A failed database ping makes the
// instance unready; an open dependency circuit only degrades it.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	deps := h.dependencies(r.Context())
	status := overall(deps)

	code := http.StatusOK
	if status == models.HealthStatusFail {
		code = http.StatusServiceUnavailable
	}

	details := make(map[string]any, len(deps))
	for _, d := range deps {
		details[d.Name] = d.Status
	}
	response.JSON(w, r, code, models.Health{
		Status:  status,
		Time:    h.now().UTC(),
		Details: details,
	})
}

// SystemStatus handles GET /v1/status - dependency circuits and flag values.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	deps := h.dependencies(r.Context())

	status := models.SystemStatus{
		Status:       overall(deps),
		Time:         h.now().UTC(),
		Version:      h.cfg.Version,
		Dependencies: deps,
	}
	if h.cfg.Flags != nil {
		flags := h.cfg.Flags.GetAllFlags(r.Context())
		status.Flags = make(map[string]any, len(flags))
		for key, f := range flags {
			status.Flags[key] = f.Value
		}
	}
	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) dependencies(ctx context.Context) []models.DependencyStatus {
	deps := []models.DependencyStatus{}

	if h.cfg.Database != nil {
		db := models.DependencyStatus{Name: "database", Status: models.HealthStatusOK}
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := h.cfg.Database.Ping(pingCtx)
		cancel()
		if err != nil {
			db.Status = models.HealthStatusFail
			db.Message = "ping failed"
		}
		deps = append(deps, db)
	}

	if h.cfg.Registry != nil {
		for _, dep := range h.cfg.Registry.AllHealth() {
			s := models.DependencyStatus{
				Name:          dep.Name,
				Status:        models.HealthStatusOK,
				Circuit:       dep.State,
				LastSuccessAt: dep.LastSuccessAt,
				LastFailureAt: dep.LastFailureAt,
				Message:       dep.LastError,
			}
			if !dep.IsHealthy() {
				s.Status = models.HealthStatusDegraded
			}
			deps = append(deps, s)
		}
	}

	return deps
}

func overall(deps []models.DependencyStatus) models.HealthStatus {
	status := models.HealthStatusOK
	for _, d := range deps {
		switch d.Status {
		case models.HealthStatusFail:
			return models.HealthStatusFail
		case models.HealthStatusDegraded:
			status = models.HealthStatusDegraded
		}
	}
	return status
}
