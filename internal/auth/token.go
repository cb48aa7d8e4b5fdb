// Package auth issues and verifies the bearer tokens that carry a caller's
// identity and roles, and decides whether those roles satisfy a policy.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenLifetime is how long an issued token stays valid
const TokenLifetime = time.Hour

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrWeakSecret      = errors.New("signing key must be at least 32 bytes")
)

// Claims represents the JWT claims
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Username returns the subject the token was issued to
func (c *Claims) Username() string {
	return c.Subject
}

// HasRole reports whether the token carries role
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Config holds the signing parameters shared by Issuer and Guard
type Config struct {
	Secret   string
	Issuer   string
	Audience string
}

// Issuer signs tokens for authenticated users
type Issuer struct {
	cfg Config
	now func() time.Time
}

// NewIssuer creates a token Issuer
func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.Secret) < 32 {
		return nil, ErrWeakSecret
	}
	return &Issuer{cfg: cfg, now: time.Now}, nil
}

// Issue signs an HS256 token for username carrying one claim per role.
// It returns the token string and its expiry.
func (i *Issuer) Issue(username string, roles []string) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(TokenLifetime)

	claims := &Claims{
		Roles: append([]string(nil), roles...),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			Issuer:    i.cfg.Issuer,
			Audience:  jwt.ClaimStrings{i.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(i.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}
