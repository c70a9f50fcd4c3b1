package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// Issuer identifies this system in every rolling token it signs.
	Issuer = "hris-attendance"

	audiencePrefix = "site:"
	modeAuto       = "AUTO"
)

// ErrTokenInvalid covers every verification failure: bad signature, expired,
// missing fields, issuer mismatch, malformed or mismatched audience. Callers
// get one category on purpose so a forger learns nothing about which check
// tripped.
var ErrTokenInvalid = errors.New("invalid token")

// RollingToken is the decoded payload of a display QR token. Only the JTI is
// ever persisted (by the replay guard); the rest is ephemeral.
type RollingToken struct {
	SiteID    string
	Slot      int64
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Mode      string
}

type rollingClaims struct {
	SiteID string `json:"si_id"`
	Slot   int64  `json:"slot"`
	Mode   string `json:"mode"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret   []byte
	method   jwt.SigningMethod
	rotation time.Duration
	grace    time.Duration
	now      func() time.Time
}

// NewManager builds the rolling-token codec. The algorithm must name an HMAC
// method; anything else is a deployment mistake and fails here rather than on
// the first request.
func NewManager(secret, algorithm string, rotation, grace time.Duration) (*Manager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("qr token secret is empty")
	}
	if rotation <= 0 {
		return nil, fmt.Errorf("rotation window must be positive")
	}
	if grace < 0 {
		return nil, fmt.Errorf("grace window must be non-negative")
	}

	method := jwt.GetSigningMethod(strings.ToUpper(strings.TrimSpace(algorithm)))
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not an HMAC method", algorithm)
	}

	return &Manager{
		secret:   []byte(secret),
		method:   method,
		rotation: rotation,
		grace:    grace,
		now:      time.Now,
	}, nil
}

// ExpiresIn is the total validity of an issued token.
func (m *Manager) ExpiresIn() time.Duration {
	return m.rotation + m.grace
}

// Issue signs a fresh rolling token for the site. The site id is written both
// into the audience and into its own claim; Verify requires the two to match,
// which defeats splicing a valid si_id into a token minted for another site.
// The signature already covers the whole payload, so the double binding is
// intentional redundancy.
func (m *Manager) Issue(siteID string) (RollingToken, string, error) {
	if strings.TrimSpace(siteID) == "" {
		return RollingToken{}, "", fmt.Errorf("site id is required")
	}

	now := m.now().UTC()
	expiresAt := now.Add(m.rotation + m.grace)
	rt := RollingToken{
		SiteID:    siteID,
		Slot:      now.Unix(),
		JTI:       uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: expiresAt,
		Mode:      modeAuto,
	}

	claims := rollingClaims{
		SiteID: rt.SiteID,
		Slot:   rt.Slot,
		Mode:   rt.Mode,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{audiencePrefix + siteID},
			ID:        rt.JTI,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return RollingToken{}, "", fmt.Errorf("sign rolling token: %w", err)
	}

	return rt, signed, nil
}

// Verify checks signature and expiry, then the payload shape: required
// fields, issuer, audience prefix, and the audience/si_id double binding.
func (m *Manager) Verify(raw string) (RollingToken, error) {
	if strings.TrimSpace(raw) == "" {
		return RollingToken{}, ErrTokenInvalid
	}

	claims := &rollingClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return m.now().UTC() }),
	)
	if err != nil || parsed == nil || !parsed.Valid {
		return RollingToken{}, ErrTokenInvalid
	}

	if claims.IssuedAt == nil || claims.ExpiresAt == nil || claims.ID == "" ||
		claims.SiteID == "" || claims.Slot == 0 || len(claims.Audience) != 1 {
		return RollingToken{}, ErrTokenInvalid
	}
	if claims.Issuer != Issuer {
		return RollingToken{}, ErrTokenInvalid
	}

	audience := claims.Audience[0]
	if !strings.HasPrefix(audience, audiencePrefix) {
		return RollingToken{}, ErrTokenInvalid
	}
	if strings.TrimPrefix(audience, audiencePrefix) != claims.SiteID {
		return RollingToken{}, ErrTokenInvalid
	}

	return RollingToken{
		SiteID:    claims.SiteID,
		Slot:      claims.Slot,
		JTI:       claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		Mode:      claims.Mode,
	}, nil
}
