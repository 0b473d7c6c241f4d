// Package token verifies bearer tokens issued by the identity provider.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is what the rest of the system knows about a caller.
type Identity struct {
	ID    string
	Email string
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verify parses and validates an HS256 token and returns the caller identity.
func Verify(raw, secret string) (*Identity, error) {
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return &Identity{
		ID:    c.Subject,
		Email: c.Email,
	}, nil
}

// Generate signs a short-lived HS256 token. Used by tests and local setups;
// production tokens come from the identity provider.
func Generate(userID, email, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
