package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveRequest(t *testing.T) {
	m := NewMetrics()

	m.ObserveRequest(http.MethodGet, "/api/onboarding/status", 200, 5*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/api/onboarding/status", 200, 5*time.Millisecond)
	m.ObserveRequest(http.MethodPost, "", 404, time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/onboarding/status", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "unmatched", "404")))
}

func TestMetrics_DomainCounters(t *testing.T) {
	m := NewMetrics()

	m.StepCompleted("final_setup", true)
	m.StepCompleted("personal_info", false)
	m.DocumentReviewed("APPROVED", 2)
	m.DocumentReviewed("APPROVED", 0)
	m.RateLimited()

	require.Equal(t, 1.0, testutil.ToFloat64(m.onboardingDone))
	require.Equal(t, 1.0, testutil.ToFloat64(m.stepsCompleted.WithLabelValues("personal_info")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.reviews.WithLabelValues("APPROVED")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("GET", "/", 200, time.Millisecond)
	m.StepCompleted("x", true)
	m.RateLimited()
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.DocumentUploaded("ID_DOCUMENT")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), `onboard_documents_uploaded_total{category="ID_DOCUMENT"} 1`))
}
