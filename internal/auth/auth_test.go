package auth

import (
	"testing"
	"time"

	"github.com/spec-kit/civic-intake/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", 5)
	token, expires, err := tm.GenerateToken(&domain.UserAccount{ID: "u-1", Email: "a@city.example", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("expected future expiry")
	}
	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "u-1" || claims.Role != domain.RoleAdmin || claims.Email != "a@city.example" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := NewTokenManager("other", 5).ParseToken(token); err == nil {
		t.Fatalf("expected signature failure with another secret")
	}
}

func TestTokenExpired(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", 1)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := tm.GenerateToken(&domain.UserAccount{ID: "u-1", Role: domain.RoleCitizen})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := tm.ParseToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestPasswordHashing(t *testing.T) {
	t.Parallel()

	hashed, err := HashPassword("correct horse", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := ComparePassword(hashed, "correct horse"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := ComparePassword(hashed, "wrong"); err == nil {
		t.Fatalf("expected mismatch")
	}
}
