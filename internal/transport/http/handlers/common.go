package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/transport/http/middleware"
	"github.com/oneeyedreaper/onboard/internal/transport/http/response"
)

// Responder renders handler results. Debug exposes internal error causes.
type Responder struct {
	Debug bool
}

// RespondError writes err as the error envelope.
func (r Responder) RespondError(c *gin.Context, err error) {
	response.Error(c, err, r.Debug)
}

func (Responder) ok(c *gin.Context, status int, data any) {
	response.OK(c, status, data, "")
}

func (Responder) message(c *gin.Context, status int, message string) {
	response.OK(c, status, nil, message)
}

// client returns the authenticated client, answering 401 when there is none.
func (r Responder) client(c *gin.Context) (*domain.Client, bool) {
	client, ok := middleware.CurrentClient(c)
	if !ok {
		r.RespondError(c, domain.Unauthorized("Authentication required"))
		return nil, false
	}
	return client, true
}
