package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/infra/security"
)

func TestRefreshRotatesAndRejectsReplay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.signup(t, "rotate@example.com")

	rotated, err := h.tokens.Refresh(ctx, res.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == res.Tokens.RefreshToken {
		t.Fatalf("expected a new refresh token")
	}
	if rotated.AccessToken == "" {
		t.Fatalf("expected an access token")
	}
	if got := h.store.refreshCount(res.Client.ID); got != 1 {
		t.Fatalf("expected exactly one live refresh token, got %d", got)
	}

	_, err = h.tokens.Refresh(ctx, res.Tokens.RefreshToken)
	requireKind(t, err, domain.KindUnauthorized)

	if _, err := h.tokens.Refresh(ctx, rotated.RefreshToken); err != nil {
		t.Fatalf("refresh with rotated token: %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	h := newHarness(t)
	res := h.signup(t, "access@example.com")

	_, err := h.tokens.Refresh(context.Background(), res.Tokens.AccessToken)
	requireKind(t, err, domain.KindUnauthorized)
}

func TestRefreshRequiresToken(t *testing.T) {
	h := newHarness(t)

	_, err := h.tokens.Refresh(context.Background(), "")
	requireKind(t, err, domain.KindBadRequest)
}

func TestRefreshExpiredRowIsDeleted(t *testing.T) {
	h := newHarness(t)
	res := h.signup(t, "expired@example.com")

	h.now = h.now.Add(8 * 24 * time.Hour)

	_, err := h.tokens.Refresh(context.Background(), res.Tokens.RefreshToken)
	requireKind(t, err, domain.KindUnauthorized)
	if got := h.store.refreshCount(res.Client.ID); got != 0 {
		t.Fatalf("expected expired refresh token to be removed, %d left", got)
	}
}

func TestRefreshRejectsTokenOwnedByAnotherClient(t *testing.T) {
	h := newHarness(t)
	res := h.signup(t, "owner@example.com")

	if _, err := h.tokens.RevokeAll(context.Background(), res.Client.ID); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	h.store.addToken(domain.TokenKindRefresh, domain.StoredToken{
		ID:        "foreign",
		ClientID:  "someone-else",
		TokenHash: security.HashToken(res.Tokens.RefreshToken),
		ExpiresAt: h.now.Add(time.Hour),
	})

	_, err := h.tokens.Refresh(context.Background(), res.Tokens.RefreshToken)
	requireKind(t, err, domain.KindUnauthorized)
}

func TestAuthenticate(t *testing.T) {
	h := newHarness(t)
	res := h.signup(t, "auth@example.com")

	claims, err := h.tokens.Authenticate(res.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if claims.ClientID != res.Client.ID || claims.Email != "auth@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	_, err = h.tokens.Authenticate(res.Tokens.RefreshToken)
	requireKind(t, err, domain.KindUnauthorized)

	_, err = h.tokens.Authenticate("not-a-jwt")
	requireKind(t, err, domain.KindUnauthorized)
}

func TestRevokeIgnoresForeignAndUnknownTokens(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.signup(t, "a@example.com")
	b := h.signup(t, "b@example.com")

	if err := h.tokens.Revoke(ctx, a.Client.ID, b.Tokens.RefreshToken); err != nil {
		t.Fatalf("revoke foreign: %v", err)
	}
	if got := h.store.refreshCount(b.Client.ID); got != 1 {
		t.Fatalf("foreign token must survive, count %d", got)
	}

	if err := h.tokens.Revoke(ctx, a.Client.ID, "unknown"); err != nil {
		t.Fatalf("revoke unknown: %v", err)
	}

	if err := h.tokens.Revoke(ctx, a.Client.ID, a.Tokens.RefreshToken); err != nil {
		t.Fatalf("revoke own: %v", err)
	}
	if got := h.store.refreshCount(a.Client.ID); got != 0 {
		t.Fatalf("expected own token revoked, count %d", got)
	}
}
