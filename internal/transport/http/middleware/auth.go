package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/repository"
	"github.com/oneeyedreaper/onboard/internal/transport/http/response"
)

var (
	errMissingToken   = domain.Unauthorized("Authentication required")
	errUnknownAccount = domain.Unauthorized("Account no longer exists")
	errAdminOnly      = domain.Forbidden("Admin access required")
)

// Authenticator verifies access tokens.
type Authenticator interface {
	Authenticate(raw string) (*domain.TokenClaims, error)
}

// ClientFinder resolves the client an access token belongs to.
type ClientFinder interface {
	GetByID(ctx context.Context, id string) (*domain.Client, error)
}

// RequireAuth accepts requests carrying a valid "Bearer" access token of an existing
// client. Every failure answers 401.
func RequireAuth(auth Authenticator, clients ClientFinder, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Abort(c, errMissingToken)
			return
		}

		claims, err := auth.Authenticate(token)
		if err != nil {
			response.Abort(c, err)
			return
		}

		client, err := clients.GetByID(c.Request.Context(), claims.ClientID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				log.Warn("failed to resolve authenticated client", zap.String("client_id", claims.ClientID), zap.Error(err))
			}
			response.Abort(c, errUnknownAccount)
			return
		}

		SetCurrentClient(c, client)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		client, ok := CurrentClient(c)
		if !ok {
			response.Abort(c, errMissingToken)
			return
		}
		if !client.IsAdmin() {
			response.Abort(c, errAdminOnly)
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
