package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status    string            `json:"status"`
	StartedAt time.Time         `json:"startedAt"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthHandler exposes liveness and readiness.
type HealthHandler struct {
	startedAt time.Time
	checks    map[string]CheckFunc
	timeout   time.Duration
	logger    *zap.Logger
}

// NewHealthHandler builds a health handler. Readiness runs every check in checks.
func NewHealthHandler(checks map[string]CheckFunc, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{
		startedAt: time.Now().UTC(),
		checks:    checks,
		timeout:   2 * time.Second,
		logger:    logger,
	}
}

// Live always answers ok while the process serves requests.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", StartedAt: h.startedAt})
}

// Ready answers 503 when any dependency check fails.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]error, len(names))
	var g errgroup.Group
	for i, name := range names {
		check := h.checks[name]
		g.Go(func() error {
			results[i] = check(ctx)
			return nil
		})
	}
	_ = g.Wait()

	resp := HealthResponse{Status: "ok", StartedAt: h.startedAt, Checks: make(map[string]string, len(names))}
	status := http.StatusOK
	for i, name := range names {
		if err := results[i]; err != nil {
			h.logger.Warn("readiness check failed", zap.String("check", name), zap.Error(err))
			resp.Checks[name] = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "up"
	}
	c.JSON(status, resp)
}
