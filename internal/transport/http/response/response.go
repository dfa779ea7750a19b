// Package response renders the JSON envelope shared by every API route.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
)

// TraceIDKey is the gin context key holding the request trace id.
const TraceIDKey = "trace_id"

// Envelope wraps every JSON response.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Message string     `json:"message,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    domain.ErrorKind `json:"code"`
	Message string           `json:"message"`
	Details any              `json:"details,omitempty"`
	TraceID string           `json:"traceId,omitempty"`
}

// OK writes a successful envelope.
func OK(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Envelope{Success: true, Data: data, Message: message})
}

// Error maps err onto the error envelope. The cause of internal failures is exposed
// in details only when debug is set.
func Error(c *gin.Context, err error, debug bool) {
	status, body := render(err, debug)
	body.TraceID = c.GetString(TraceIDKey)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, Envelope{Success: false, Error: body})
}

// Abort writes the error envelope and stops the handler chain.
func Abort(c *gin.Context, err error) {
	status, body := render(err, false)
	body.TraceID = c.GetString(TraceIDKey)
	c.AbortWithStatusJSON(status, Envelope{Success: false, Error: body})
}

func render(err error, debug bool) (int, *ErrorBody) {
	var de *domain.Error
	if !errors.As(err, &de) {
		de = domain.Internal("unexpected error", err)
	}

	body := &ErrorBody{Code: de.Kind, Message: de.Message, Details: de.Details}
	if de.Kind == domain.KindInternal {
		body.Message = "Internal server error"
		body.Details = nil
		if debug {
			body.Details = map[string]string{"cause": err.Error()}
		}
	}
	return de.Kind.HTTPStatus(), body
}
