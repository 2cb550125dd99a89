package auth

import (
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenRequest describes a token to mint for staff or service accounts.
type TokenRequest struct {
	Subject string
	Name    string
	Roles   []string
	TTL     time.Duration
}

// IssueToken signs an HS256 token accepted by JWTMiddleware.
func IssueToken(cfg JWTConfig, req TokenRequest, now time.Time) (string, error) {
	if len(cfg.SigningKey) == 0 {
		return "", fmt.Errorf("signing key is required")
	}
	if req.Subject == "" {
		return "", fmt.Errorf("subject is required")
	}
	if len(req.Roles) == 0 {
		return "", fmt.Errorf("at least one role is required")
	}
	for _, r := range req.Roles {
		if !slices.Contains(KnownRoles, r) {
			return "", fmt.Errorf("unknown role %q", r)
		}
	}
	if req.TTL <= 0 {
		req.TTL = 12 * time.Hour
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    cfg.Issuer,
			Subject:   req.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(req.TTL)),
		},
		Name:  req.Name,
		Roles: req.Roles,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.SigningKey)
}
