package ports

import "github.com/ecofuel/fleet-auth/internal/core/domain"

// PasswordHasher is the one-way credential hashing capability.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenIssuer mints a signed, time-bounded credential for a user whose
// roles are already resolved.
type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
}
