package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// PingFunc reports whether one dependency is reachable.
type PingFunc func(ctx context.Context) error

// HealthHandler serves the liveness and readiness checks. The database check
// drives liveness; every configured dependency drives readiness.
type HealthHandler struct {
	database PingFunc
	deps     map[string]PingFunc
	timeout  time.Duration
	log      zerolog.Logger
}

// NewHealthHandler takes the database ping plus optional named dependencies;
// nil entries are skipped. Check errors go to log, never to the response.
func NewHealthHandler(database PingFunc, deps map[string]PingFunc, log zerolog.Logger) *HealthHandler {
	clean := make(map[string]PingFunc, len(deps))
	for name, fn := range deps {
		if fn != nil {
			clean[name] = fn
		}
	}
	return &HealthHandler{database: database, deps: clean, timeout: 3 * time.Second, log: log}
}

type dependencyStatus struct {
	Status string `json:"status"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Liveness handles GET /health.
//
// @Summary      Liveness check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.database(ctx); err != nil {
		h.log.Error().Err(err).Msg("liveness: database ping failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"status": "error", "error": "database unreachable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness handles GET /health/ready.
//
// @Summary      Readiness check
// @Tags         health
// @Produce      json
// @Success      200  {object}  readinessResponse
// @Failure      503  {object}  readinessResponse
// @Router       /health/ready [get]
func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	checks := map[string]PingFunc{"postgres": h.database}
	for name, fn := range h.deps {
		checks[name] = fn
	}
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := make(map[string]dependencyStatus, len(checks))
	healthy := true
	for _, name := range names {
		if err := checks[name](ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("readiness: dependency unhealthy")
			deps[name] = dependencyStatus{Status: "unhealthy"}
			healthy = false
			continue
		}
		deps[name] = dependencyStatus{Status: "ok"}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{Status: status, Dependencies: deps})
}
