// Package token signs and verifies the two credential classes used by the
// session service: short-lived access tokens and long-lived refresh tokens.
// Each class has its own secret and lifetime, so compromise of one does not
// compromise the other.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultIssuer = "teamspace"

// Kind selects the credential class.
type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
)

func (k Kind) String() string {
	if k == KindRefresh {
		return "refresh"
	}
	return "access"
}

// Verification failures are distinguishable so the boundary can prompt a
// refresh only when the access token merely expired.
var (
	ErrInvalidToken     = errors.New("token: invalid token")
	ErrTokenExpired     = errors.New("token: token expired")
	ErrTokenNotYetValid = errors.New("token: token not yet valid")
)

// Claims carried by both token kinds. Refresh tokens keep the payload
// minimal: subject only, no email or role.
type Claims struct {
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Pair bundles freshly minted access and refresh credentials.
type Pair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Signer issues and verifies signed expiring tokens.
type Signer struct {
	issuer        string
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// Option configures Signer behavior.
type Option func(*Signer)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Signer) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithIssuer overrides the issuer claim.
func WithIssuer(issuer string) Option {
	return func(s *Signer) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			s.issuer = issuer
		}
	}
}

// NewSigner constructs a Signer with one secret and TTL per token kind.
func NewSigner(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, opts ...Option) (*Signer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token: both secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("token: access and refresh secrets must differ")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token: ttls must be positive")
	}
	s := &Signer{
		issuer:        defaultIssuer,
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sign creates a signed token of the given kind for the subject. Email and
// role are embedded into access tokens only.
func (s *Signer) Sign(kind Kind, subject, email, role string) (string, time.Time, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", time.Time{}, errors.New("token: subject is required")
	}
	now := s.now().UTC()
	exp := now.Add(s.ttl(kind))
	claims := Claims{
		TokenType: kind.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	if kind == KindAccess {
		claims.Email = email
		claims.Role = role
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret(kind))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Pair mints a fresh access and refresh token for the subject.
func (s *Signer) Pair(subject, email, role string) (Pair, error) {
	access, accessExp, err := s.Sign(KindAccess, subject, email, role)
	if err != nil {
		return Pair{}, err
	}
	refresh, refreshExp, err := s.Sign(KindRefresh, subject, "", "")
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Verify checks signature, expiry and claim shape for the given kind. A token
// of one kind never verifies as the other.
func (s *Signer) Verify(kind Kind, raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.secret(kind), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if err := validateClaims(kind, claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func validateClaims(kind Kind, claims *Claims) error {
	if claims.TokenType != kind.String() {
		return errors.New("token type mismatch")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if claims.IssuedAt == nil {
		return errors.New("issued-at missing")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("expiry precedes issued-at")
	}
	if kind == KindAccess && strings.TrimSpace(claims.Email) == "" {
		return errors.New("email missing from access claims")
	}
	return nil
}

func (s *Signer) secret(kind Kind) []byte {
	if kind == KindRefresh {
		return s.refreshSecret
	}
	return s.accessSecret
}

func (s *Signer) ttl(kind Kind) time.Duration {
	if kind == KindRefresh {
		return s.refreshTTL
	}
	return s.accessTTL
}
