// Package token issues and validates the signed credentials presented on
// every call: HS256 JWTs carrying identity and role claims.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/ecofuel/fleet-auth/internal/core/domain"
)

const (
	// MinSecretLen is the smallest signing key accepted. Enforced at
	// construction so a weak key fails the process at startup, not a
	// request at runtime.
	MinSecretLen = 32

	DefaultIssuer   = "AuthService"
	DefaultAudience = "AuthServiceClients"
	DefaultTTL      = 120 * time.Minute

	// clockSkew tolerated when validating exp/iat.
	clockSkew = 5 * time.Minute
)

// ErrInvalidToken covers every validation failure: bad signature, wrong
// algorithm, expired, malformed claims. Callers get no finer detail.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the token payload. Role names are carried as a plain list.
type Claims struct {
	Email      string   `json:"email"`
	Username   string   `json:"username"`
	FullName   string   `json:"full_name"`
	LastAccess string   `json:"last_access"`
	Roles      []string `json:"roles"`
	jwt.RegisteredClaims
}

// Issuer builds signed tokens for authenticated users.
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	log      zerolog.Logger
}

// NewIssuer validates the signing key up front and applies the defaults for
// issuer, audience and TTL when left empty.
func NewIssuer(secret, issuer, audience string, ttl time.Duration, log zerolog.Logger) (*Issuer, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("token: signing key must be at least %d characters", MinSecretLen)
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}
	if audience == "" {
		audience = DefaultAudience
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		log:      log,
	}, nil
}

// Issue signs a token embedding the user's identity and one role claim per
// resolved role. Signing failures surface as a single opaque error.
func (i *Issuer) Issue(user *domain.User) (string, error) {
	if user == nil {
		return "", fmt.Errorf("token: nil user")
	}

	now := time.Now().UTC()
	expires := now.Add(i.ttl)
	claims := Claims{
		Email:      user.Email,
		Username:   user.Username,
		FullName:   user.FullName(),
		LastAccess: user.LastAccess.Format(time.RFC3339),
		Roles:      user.RoleNames(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		i.log.Error().Err(err).Uint("user_id", user.ID).Msg("token signing failed")
		return "", errors.New("token: generation failed")
	}

	i.log.Info().Uint("user_id", user.ID).Time("expires", expires).Msg("token issued")
	return signed, nil
}
