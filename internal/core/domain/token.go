package domain

import (
	"errors"
	"time"
)

// Token verification failures.
var (
	ErrTokenInvalid = errors.New("token: invalid")
	ErrTokenExpired = errors.New("token: expired")
)

// TokenKind distinguishes the three persisted token tables.
type TokenKind string

const (
	TokenKindRefresh           TokenKind = "refresh"
	TokenKindPasswordReset     TokenKind = "password_reset"
	TokenKindEmailVerification TokenKind = "email_verification"
)

// StoredToken is a persisted refresh, password-reset or email-verification token.
// Only the SHA-256 hash of the raw value is stored.
type StoredToken struct {
	ID        string
	ClientID  string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the token has elapsed its validity window.
func (t StoredToken) IsExpired(at time.Time) bool {
	return !t.ExpiresAt.After(at)
}

// TokenType is the "type" claim carried by issued JWTs.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// TokenClaims is the verified content of an access or refresh JWT.
type TokenClaims struct {
	ClientID  string
	Email     string
	Type      TokenType
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is returned to clients after signup, login and refresh.
type TokenPair struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
}
