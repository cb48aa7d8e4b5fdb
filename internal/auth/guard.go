package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Policy is a named authorization rule. An empty RequiredRole admits any
// authenticated caller.
type Policy struct {
	Name         string
	RequiredRole string
}

var (
	Authenticated = Policy{Name: "Authenticated"}
	AdminOnly     = Policy{Name: "AdminOnly", RequiredRole: "Admin"}
	UserOnly      = Policy{Name: "UserOnly", RequiredRole: "User"}
)

// Guard validates bearer tokens and evaluates policies against their claims
type Guard struct {
	cfg    Config
	parser *jwt.Parser
}

// NewGuard creates a Guard accepting tokens signed with cfg
func NewGuard(cfg Config) *Guard {
	return newGuard(cfg, time.Now)
}

func newGuard(cfg Config, now func() time.Time) *Guard {
	return &Guard{
		cfg: cfg,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Audience),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(now),
		),
	}
}

// Authorize verifies tokenString and checks it against policy. It returns
// ErrUnauthenticated for any token problem and ErrForbidden when the token
// is valid but lacks the policy's role.
func (g *Guard) Authorize(tokenString string, policy Policy) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, fmt.Errorf("%w: missing token", ErrUnauthenticated)
	}

	claims := &Claims{}
	token, err := g.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(g.cfg.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: invalid token claims", ErrUnauthenticated)
	}

	if policy.RequiredRole != "" && !claims.HasRole(policy.RequiredRole) {
		return claims, fmt.Errorf("%w: policy %s requires role %s", ErrForbidden, policy.Name, policy.RequiredRole)
	}

	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
// It returns "" when the header is not of the form "Bearer <token>".
func BearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
