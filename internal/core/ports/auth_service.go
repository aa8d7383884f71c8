package ports

import (
	"context"

	"github.com/ecofuel/fleet-auth/internal/core/domain"
)

// RegisterInput carries the already shape-validated registration fields.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	RoleID    uint
}

// AuthService is the authentication core: credential verification and the
// transactional registration sequence. Token issuance is deliberately not
// here. The protocol front mints tokens so storage and hashing concerns
// stay apart from token concerns.
type AuthService interface {
	// Login verifies the credentials and, on success, records the access
	// and returns the user with roles resolved. Unknown email and wrong
	// password both yield domain.ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (*domain.User, error)

	// Register runs the whole uniqueness/factory/create/assign-role
	// sequence inside one retryable transaction. No user is ever committed
	// without a role.
	Register(ctx context.Context, in RegisterInput) error
}

// UserService covers the administrative user operations.
type UserService interface {
	List(ctx context.Context) ([]*domain.User, error)
	ListByRole(ctx context.Context, roleID uint) ([]*domain.User, error)
	ChangeStatus(ctx context.Context, userID uint, active bool) error
	Deactivate(ctx context.Context, userID uint) error
}
