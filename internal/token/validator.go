package token

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is what a validated token proves: who the caller is and which
// roles the token was minted with. Roles are deduplicated
// case-insensitively, first spelling wins.
type Identity struct {
	Email string
	Roles []string
}

// HasAnyRole reports whether the identity intersects the required set,
// comparing case-insensitively.
func (id *Identity) HasAnyRole(required []string) bool {
	for _, want := range required {
		for _, have := range id.Roles {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

// Validator checks token signature, algorithm and lifetime.
type Validator struct {
	secret []byte
}

// NewValidator enforces the same minimum key length as the issuer.
func NewValidator(secret string) (*Validator, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("token: signing key must be at least %d characters", MinSecretLen)
	}
	return &Validator{secret: []byte(secret)}, nil
}

// Validate parses and verifies a token string. Only HS256 is accepted, and
// expiry is checked with a small clock-skew tolerance. Every failure maps
// to ErrInvalidToken; a token without an email claim is also invalid.
func (v *Validator) Validate(tokenString string) (*Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(clockSkew),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if strings.TrimSpace(claims.Email) == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{Email: claims.Email, Roles: dedupeFold(claims.Roles)}, nil
}

func dedupeFold(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		key := strings.ToLower(r)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
