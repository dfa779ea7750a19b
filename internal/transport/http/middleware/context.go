package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/transport/http/response"
)

const (
	// TraceIDHeader carries the trace id back to callers.
	TraceIDHeader = "X-Trace-ID"

	clientKey = "auth_client"
)

// EnrichContext assigns a trace id to the request: the active span's trace id when
// tracing is on, the caller supplied header, or a fresh uuid.
func EnrichContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := ""
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			traceID = sc.TraceID().String()
		}
		if traceID == "" {
			traceID = c.GetHeader(TraceIDHeader)
		}
		if traceID == "" {
			traceID = uuid.NewString()
		}

		c.Set(response.TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)
		c.Next()
	}
}

// GetTraceID returns the trace id assigned by EnrichContext.
func GetTraceID(c *gin.Context) string {
	return c.GetString(response.TraceIDKey)
}

// CurrentClient returns the client resolved by RequireAuth.
func CurrentClient(c *gin.Context) (*domain.Client, bool) {
	v, ok := c.Get(clientKey)
	if !ok {
		return nil, false
	}
	client, ok := v.(*domain.Client)
	return client, ok && client != nil
}

// SetCurrentClient stores the authenticated client on the context.
func SetCurrentClient(c *gin.Context, client *domain.Client) {
	c.Set(clientKey, client)
}
