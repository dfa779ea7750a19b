package security

import (
	"strings"
	"testing"

	"github.com/oneeyedreaper/onboard/internal/core/port"
)

func fastParams() port.Argon2Params {
	return port.Argon2Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func newTestHasher(t *testing.T) *Argon2Hasher {
	t.Helper()
	h, err := NewArgon2Hasher(fastParams())
	if err != nil {
		t.Fatalf("NewArgon2Hasher: %v", err)
	}
	return h
}

func TestArgon2HashAndVerify(t *testing.T) {
	h := newTestHasher(t)

	encoded, err := h.Hash("Secure123")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 5 {
		t.Fatalf("unexpected hash format: %q", encoded)
	}
	if parts[0] != argon2Variant || parts[1] != argon2Version {
		t.Fatalf("unexpected prefix: %s$%s", parts[0], parts[1])
	}
	if parts[2] != "m=8192,t=1,p=1" {
		t.Fatalf("encoded params do not reflect configuration: %s", parts[2])
	}

	ok, err := h.Verify("Secure123", encoded)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !ok {
		t.Fatal("Verify returned false for correct password")
	}

	ok, err = h.Verify("Secure124", encoded)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if ok {
		t.Fatal("Verify returned true for incorrect password")
	}
}

func TestArgon2HashIsSalted(t *testing.T) {
	h := newTestHasher(t)

	first, _ := h.Hash("Secure123")
	second, _ := h.Hash("Secure123")
	if first == second {
		t.Fatal("expected distinct hashes for the same password")
	}
}

func TestArgon2VerifyAcrossParameterChange(t *testing.T) {
	old := newTestHasher(t)
	encoded, err := old.Hash("Secure123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	params := fastParams()
	params.Iterations = 2
	params.KeyLength = 48
	current, err := NewArgon2Hasher(params)
	if err != nil {
		t.Fatalf("NewArgon2Hasher: %v", err)
	}

	ok, err := current.Verify("Secure123", encoded)
	if err != nil || !ok {
		t.Fatalf("expected hash from previous parameters to verify, ok=%v err=%v", ok, err)
	}
}

func TestArgon2VerifyInvalidInputs(t *testing.T) {
	h := newTestHasher(t)

	if _, err := h.Verify("password", "invalid-format"); err == nil {
		t.Fatal("expected error for invalid format")
	}
	if _, err := h.Verify("password", "bcrypt$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA"); err == nil {
		t.Fatal("expected error for unexpected variant")
	}

	ok, err := h.Verify("", "")
	if err != nil || ok {
		t.Fatalf("expected false without error for empty inputs, ok=%v err=%v", ok, err)
	}
}

func TestNewArgon2HasherRejectsWeakParams(t *testing.T) {
	params := fastParams()
	params.Memory = 1024
	if _, err := NewArgon2Hasher(params); err == nil {
		t.Fatal("expected error for memory below minimum")
	}

	params = fastParams()
	params.SaltLength = 4
	if _, err := NewArgon2Hasher(params); err == nil {
		t.Fatal("expected error for short salt")
	}
}

func TestHashTokenIsDeterministic(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Fatal("expected equal hashes")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Fatal("expected different hashes")
	}
	if len(HashToken("abc")) != 64 {
		t.Fatalf("expected hex encoded sha256, got %q", HashToken("abc"))
	}
}

func TestGenerateSecureToken(t *testing.T) {
	a, err := GenerateSecureToken(32)
	if err != nil {
		t.Fatalf("GenerateSecureToken: %v", err)
	}
	b, _ := GenerateSecureToken(32)
	if a == b {
		t.Fatal("expected distinct tokens")
	}
	if strings.ContainsAny(a, "+/=") {
		t.Fatalf("expected url-safe token, got %q", a)
	}
	if _, err := GenerateSecureToken(0); err == nil {
		t.Fatal("expected error for non-positive length")
	}
}
