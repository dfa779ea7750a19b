package port

import (
	"time"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
)

// Argon2Params captures tunable parameters for the Argon2id hashing algorithm.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// PasswordHasher hashes and verifies secrets using the configured algorithm.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, encoded string) (bool, error)
}

// PasswordPolicy rejects passwords that do not meet the strength rules.
type PasswordPolicy interface {
	Validate(password string) error
}

// TokenIssuer signs and verifies access and refresh JWTs.
type TokenIssuer interface {
	Issue(clientID, email string, typ domain.TokenType) (token string, expiresAt time.Time, err error)
	// Verify fails with domain.ErrTokenExpired or domain.ErrTokenInvalid.
	Verify(token string, typ domain.TokenType) (*domain.TokenClaims, error)
}
