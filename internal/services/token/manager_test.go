package token

import (
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager("test-secret", "HS256", 10*time.Second, 2*time.Second)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	m := newTestManager(t)
	issuedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issuedAt }

	rt, signed, err := m.Issue("HQ-01")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if rt.SiteID != "HQ-01" || rt.JTI == "" {
		t.Fatalf("unexpected issued payload: %+v", rt)
	}
	if got := rt.ExpiresAt.Sub(rt.IssuedAt); got != 12*time.Second {
		t.Fatalf("expected 12s validity (rotation+grace), got %s", got)
	}

	verified, err := m.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified.SiteID != "HQ-01" || verified.JTI != rt.JTI || verified.Slot != issuedAt.Unix() {
		t.Fatalf("verified payload mismatch: %+v", verified)
	}
	if verified.Mode != "AUTO" {
		t.Fatalf("expected AUTO mode, got %q", verified.Mode)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := newTestManager(t)
	issuedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issuedAt }

	_, signed, err := m.Issue("HQ-01")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	m.now = func() time.Time { return issuedAt.Add(13 * time.Second) }
	if _, err := m.Verify(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for expired token, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	m := newTestManager(t)
	_, signed, err := m.Issue("HQ-01")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other, err := NewManager("other-secret", "HS256", 10*time.Second, 2*time.Second)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := other.Verify(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for wrong secret, got %v", err)
	}
}

func TestVerifyRejectsWrongAlgorithm(t *testing.T) {
	m := newTestManager(t)

	signed, err := forgeToken(t, "test-secret", jwt.SigningMethodHS512, func(c *rollingClaims) {})
	if err != nil {
		t.Fatalf("forge: %v", err)
	}
	if _, err := m.Verify(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for HS512 token on HS256 verifier, got %v", err)
	}
}

func TestVerifyRejectsIssuerMismatch(t *testing.T) {
	m := newTestManager(t)

	signed, err := forgeToken(t, "test-secret", jwt.SigningMethodHS256, func(c *rollingClaims) {
		c.Issuer = "someone-else"
	})
	if err != nil {
		t.Fatalf("forge: %v", err)
	}
	if _, err := m.Verify(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for issuer mismatch, got %v", err)
	}
}

func TestVerifyRejectsAudienceSiteMismatch(t *testing.T) {
	m := newTestManager(t)

	// Token minted for site B carrying site A's payload field.
	signed, err := forgeToken(t, "test-secret", jwt.SigningMethodHS256, func(c *rollingClaims) {
		c.Audience = jwt.ClaimStrings{"site:SITE-B"}
		c.SiteID = "SITE-A"
	})
	if err != nil {
		t.Fatalf("forge: %v", err)
	}
	if _, err := m.Verify(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for audience/site mismatch, got %v", err)
	}
}

func TestVerifyRejectsMalformedAudience(t *testing.T) {
	m := newTestManager(t)

	signed, err := forgeToken(t, "test-secret", jwt.SigningMethodHS256, func(c *rollingClaims) {
		c.Audience = jwt.ClaimStrings{"display:HQ-01"}
	})
	if err != nil {
		t.Fatalf("forge: %v", err)
	}
	if _, err := m.Verify(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for malformed audience, got %v", err)
	}
}

func TestVerifyRejectsMissingJTI(t *testing.T) {
	m := newTestManager(t)

	signed, err := forgeToken(t, "test-secret", jwt.SigningMethodHS256, func(c *rollingClaims) {
		c.ID = ""
	})
	if err != nil {
		t.Fatalf("forge: %v", err)
	}
	if _, err := m.Verify(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for missing jti, got %v", err)
	}
}

func TestNewManagerRejectsNonHMACAlgorithm(t *testing.T) {
	if _, err := NewManager("secret", "RS256", 10*time.Second, 2*time.Second); err == nil {
		t.Fatalf("expected error for RS256")
	}
	if _, err := NewManager("secret", "none", 10*time.Second, 2*time.Second); err == nil {
		t.Fatalf("expected error for none algorithm")
	}
}

func forgeToken(t *testing.T, secret string, method jwt.SigningMethod, mutate func(*rollingClaims)) (string, error) {
	t.Helper()
	now := time.Now().UTC()
	claims := &rollingClaims{
		SiteID: "HQ-01",
		Slot:   now.Unix(),
		Mode:   "AUTO",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{"site:HQ-01"},
			ID:        "forged-jti",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	mutate(claims)
	return jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
}
