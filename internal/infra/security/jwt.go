package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/core/port"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
	minSecretLength        = 32
)

// JWTConfig configures HMAC signed access and refresh tokens.
// Access and refresh tokens use distinct secrets so one cannot be replayed as the other.
type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Claims is the JWT body issued to clients.
type Claims struct {
	ClientID string           `json:"clientId"`
	Email    string           `json:"email"`
	Type     domain.TokenType `json:"type"`
	jwt.RegisteredClaims
}

// JWTIssuer issues and verifies HS256 tokens.
type JWTIssuer struct {
	cfg JWTConfig
	now func() time.Time
}

// NewJWTIssuer validates cfg and builds an issuer.
func NewJWTIssuer(cfg JWTConfig) (*JWTIssuer, error) {
	if len(cfg.AccessSecret) < minSecretLength || len(cfg.RefreshSecret) < minSecretLength {
		return nil, fmt.Errorf("jwt: secrets must be at least %d bytes", minSecretLength)
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("jwt: access and refresh secrets must differ")
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, fmt.Errorf("jwt: issuer is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTokenTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTokenTTL
	}
	return &JWTIssuer{cfg: cfg, now: time.Now}, nil
}

// WithClock overrides the time source.
func (i *JWTIssuer) WithClock(now func() time.Time) *JWTIssuer {
	if now != nil {
		i.now = now
	}
	return i
}

func (i *JWTIssuer) secret(typ domain.TokenType) ([]byte, time.Duration, error) {
	switch typ {
	case domain.TokenTypeAccess:
		return []byte(i.cfg.AccessSecret), i.cfg.AccessTTL, nil
	case domain.TokenTypeRefresh:
		return []byte(i.cfg.RefreshSecret), i.cfg.RefreshTTL, nil
	default:
		return nil, 0, fmt.Errorf("jwt: unknown token type %q", typ)
	}
}

// Issue signs a token of the given type. Every token carries a fresh jti.
func (i *JWTIssuer) Issue(clientID, email string, typ domain.TokenType) (string, time.Time, error) {
	if strings.TrimSpace(clientID) == "" {
		return "", time.Time{}, fmt.Errorf("jwt: client id is required")
	}
	key, ttl, err := i.secret(typ)
	if err != nil {
		return "", time.Time{}, err
	}

	now := i.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	claims := Claims{
		ClientID: clientID,
		Email:    email,
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Subject:   clientID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: sign %s token: %w", typ, err)
	}
	return signed, expiresAt, nil
}

// Verify parses token and checks signature, issuer, expiry and type.
func (i *JWTIssuer) Verify(token string, typ domain.TokenType) (*domain.TokenClaims, error) {
	key, _, err := i.secret(typ)
	if err != nil {
		return nil, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)

	var claims Claims
	if _, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return key, nil }); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", domain.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}

	if claims.Type != typ || claims.ClientID == "" {
		return nil, fmt.Errorf("%w: unexpected token type %q", domain.ErrTokenInvalid, claims.Type)
	}

	out := &domain.TokenClaims{
		ClientID: claims.ClientID,
		Email:    claims.Email,
		Type:     claims.Type,
		ID:       claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

var _ port.TokenIssuer = (*JWTIssuer)(nil)
