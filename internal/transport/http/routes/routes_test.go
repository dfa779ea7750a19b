package routes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/infra/config"
	"github.com/oneeyedreaper/onboard/internal/infra/telemetry"
	"github.com/oneeyedreaper/onboard/internal/repository"
	"github.com/oneeyedreaper/onboard/internal/repository/memory"
	"github.com/oneeyedreaper/onboard/internal/transport/http/handlers"
	"github.com/oneeyedreaper/onboard/internal/transport/http/middleware"
	httproutes "github.com/oneeyedreaper/onboard/internal/transport/http/routes"
)

type tokenTable map[string]string

func (t tokenTable) Authenticate(raw string) (*domain.TokenClaims, error) {
	id, ok := t[raw]
	if !ok {
		return nil, domain.Unauthorized("Invalid access token")
	}
	return &domain.TokenClaims{ClientID: id, Type: domain.TokenTypeAccess}, nil
}

type clientTable map[string]*domain.Client

func (t clientTable) GetByID(_ context.Context, id string) (*domain.Client, error) {
	if c, ok := t[id]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

func newTestEngine(t *testing.T, limiter *middleware.RateLimiter, metrics *telemetry.Metrics) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.AppConfig{App: config.AppSettings{Env: "test", CORSOrigins: []string{"http://localhost:3000"}}}

	deps := httproutes.Dependencies{
		Config:        cfg,
		Logger:        zaptest.NewLogger(t),
		Authenticator: tokenTable{"user-token": "u1", "admin-token": "a1"},
		Clients: clientTable{
			"u1": {ID: "u1", Role: domain.RoleUser},
			"a1": {ID: "a1", Role: domain.RoleAdmin},
		},
		RateLimiter: limiter,
		Checks: map[string]handlers.CheckFunc{
			"postgres": func(context.Context) error { return nil },
		},
	}
	if metrics != nil {
		deps.Metrics = metrics
	}
	return httproutes.Register(deps)
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoints(t *testing.T) {
	r := newTestEngine(t, nil, nil)

	assert.Equal(t, http.StatusOK, get(r, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, get(r, "/readyz", "").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/metrics", "").Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestEngine(t, nil, nil)

	for _, path := range []string{"/api/profile", "/api/onboarding/status", "/api/documents", "/api/admin/stats"} {
		rr := get(r, path, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
		assert.NotEmpty(t, rr.Header().Get(middleware.TraceIDHeader), path)
	}
	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/profile", "forged").Code)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	r := newTestEngine(t, nil, nil)

	rr := get(r, "/api/admin/stats", "user-token")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRateLimitCoversAPI(t *testing.T) {
	limiter := middleware.NewRateLimiter(memory.NewRateLimitStore(time.Minute), 2, time.Minute, nil)
	r := newTestEngine(t, limiter, nil)

	require.Equal(t, http.StatusUnauthorized, get(r, "/api/profile", "").Code)
	require.Equal(t, http.StatusUnauthorized, get(r, "/api/profile", "").Code)

	rr := get(r, "/api/profile", "")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, get(r, "/healthz", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestEngine(t, nil, telemetry.NewMetrics())

	get(r, "/healthz", "")
	rr := get(r, "/metrics", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `onboard_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestEngine(t, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}
