package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/infra/logger"
	"github.com/oneeyedreaper/onboard/internal/repository"
	"github.com/oneeyedreaper/onboard/internal/repository/memory"
	"github.com/oneeyedreaper/onboard/internal/transport/http/response"
)

type stubAuthenticator struct {
	claims *domain.TokenClaims
	err    error
}

func (s stubAuthenticator) Authenticate(raw string) (*domain.TokenClaims, error) {
	if raw != "good" {
		return nil, domain.Unauthorized("Invalid access token")
	}
	return s.claims, s.err
}

type stubClients map[string]*domain.Client

func (s stubClients) GetByID(_ context.Context, id string) (*domain.Client, error) {
	if c, ok := s[id]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(EnrichContext())
	r.Use(mw...)
	r.GET("/", func(c *gin.Context) {
		client, _ := CurrentClient(c)
		id := ""
		if client != nil {
			id = client.ID
		}
		c.JSON(http.StatusOK, gin.H{"client": id})
	})
	return r
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) domain.ErrorKind {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	return env.Error.Code
}

func TestRequireAuth(t *testing.T) {
	clients := stubClients{"c1": {ID: "c1", Role: domain.RoleUser}}
	auth := stubAuthenticator{claims: &domain.TokenClaims{ClientID: "c1", Type: domain.TokenTypeAccess}}
	r := newRouter(RequireAuth(auth, clients, zaptest.NewLogger(t)))

	rr := do(r, "Bearer good")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"client":"c1"}`, rr.Body.String())

	for _, header := range []string{"", "good", "Basic good", "Bearer ", "Bearer bad"} {
		rr := do(r, header)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "header %q", header)
		assert.Equal(t, domain.KindUnauthorized, errorCode(t, rr))
	}
}

func TestRequireAuthRejectsDeletedClient(t *testing.T) {
	auth := stubAuthenticator{claims: &domain.TokenClaims{ClientID: "gone"}}
	r := newRouter(RequireAuth(auth, stubClients{}, nil))

	rr := do(r, "bearer good")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAdmin(t *testing.T) {
	clients := stubClients{
		"user":  {ID: "user", Role: domain.RoleUser},
		"admin": {ID: "admin", Role: domain.RoleAdmin},
	}

	userRouter := newRouter(RequireAuth(stubAuthenticator{claims: &domain.TokenClaims{ClientID: "user"}}, clients, nil), RequireAdmin())
	rr := do(userRouter, "Bearer good")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, domain.KindForbidden, errorCode(t, rr))

	adminRouter := newRouter(RequireAuth(stubAuthenticator{claims: &domain.TokenClaims{ClientID: "admin"}}, clients, nil), RequireAdmin())
	assert.Equal(t, http.StatusOK, do(adminRouter, "Bearer good").Code)

	assert.Equal(t, http.StatusUnauthorized, do(newRouter(RequireAdmin()), "").Code)
}

type countingNotifier struct{ n int }

func (c *countingNotifier) RateLimited() { c.n++ }

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	notifier := &countingNotifier{}
	limiter := NewRateLimiter(memory.NewRateLimitStore(time.Minute), 2, time.Minute, zaptest.NewLogger(t)).WithNotifier(notifier)
	r := newRouter(limiter.Handler())

	first := do(r, "")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, do(r, "").Code)

	blocked := do(r, "")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "60", blocked.Header().Get("Retry-After"))
	assert.Equal(t, "0", blocked.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, domain.KindTooManyRequests, errorCode(t, blocked))
	assert.Equal(t, 1, notifier.n)
}

type failingStore struct{}

func (failingStore) Increment(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("redis down")
}

func TestRateLimiterFailsOpen(t *testing.T) {
	limiter := NewRateLimiter(failingStore{}, 1, time.Minute, zaptest.NewLogger(t))
	r := newRouter(limiter.Handler())

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(r, "").Code)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	var limiter *RateLimiter
	r := newRouter(limiter.Handler())
	assert.Equal(t, http.StatusOK, do(r, "").Code)
}

type observation struct {
	method, route string
	status        int
}

type recordingObserver struct {
	mu  sync.Mutex
	got []observation
}

func (o *recordingObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.got = append(o.got, observation{method, route, status})
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}

	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/documents/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/documents/abc", nil))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Len(t, observer.got, 2)
	assert.Equal(t, observation{http.MethodGet, "/documents/:id", http.StatusNoContent}, observer.got[0])
	assert.Equal(t, observation{http.MethodGet, "", http.StatusNotFound}, observer.got[1])
}

func TestTracingRecordsServerSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	r := gin.New()
	r.Use(Tracing(provider.Tracer("test")), EnrichContext())
	var traceID string
	r.GET("/steps/:n", func(c *gin.Context) {
		traceID = GetTraceID(c)
		c.Status(http.StatusInternalServerError)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/steps/2", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /steps/:n", spans[0].Name())
	assert.Equal(t, spans[0].SpanContext().TraceID().String(), traceID)
	assert.Equal(t, traceID, rr.Header().Get(TraceIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://app.example.com"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcardWithoutCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"*"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, logger.RequestIDFromContext(c.Request.Context()))
	})

	cases := map[string]bool{
		"abc-123":                true,
		"":                       false,
		"has space":              false,
		strings.Repeat("x", 129): false,
	}
	for in, kept := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if in != "" {
			req.Header.Set(requestIDHeader, in)
		}
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		got := rr.Header().Get(requestIDHeader)
		require.NotEmpty(t, got)
		assert.Equal(t, got, rr.Body.String())
		if kept {
			assert.Equal(t, in, got)
		} else {
			assert.NotEqual(t, in, got)
		}
	}
}
