package ports

import (
	"context"

	"github.com/ecofuel/fleet-auth/internal/core/domain"
)

// UserStore is the persistence contract for users. Lookups resolve role
// associations; Create assigns the durable ID on the passed user.
type UserStore interface {
	ByID(ctx context.Context, id uint) (*domain.User, error)
	ByEmail(ctx context.Context, email string) (*domain.User, error)
	ByUsername(ctx context.Context, username string) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	All(ctx context.Context) ([]*domain.User, error)
	ByRole(ctx context.Context, roleID uint) ([]*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
}

// RoleStore reads the seeded role reference data.
type RoleStore interface {
	ByID(ctx context.Context, id uint) (*domain.Role, error)
	ByName(ctx context.Context, name string) (*domain.Role, error)
	All(ctx context.Context) ([]*domain.Role, error)
}

// Store groups the repositories with a transaction boundary. InTransaction
// runs fn atomically: every repository call made with the context fn
// receives joins the same transaction, a non-nil return rolls everything
// back, and the implementation retries the whole unit on transient
// failures. fn must therefore be safe to re-run.
type Store interface {
	Users() UserStore
	Roles() RoleStore
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
