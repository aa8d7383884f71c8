package postgres

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ecofuel/fleet-auth/internal/core/domain"
)

const testHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// setupStore prepares an in-memory SQLite database with the schema and the
// built-in roles. The SQLite driver names the violated column in its unique
// constraint errors, so duplicate key handling is exercised for real.
func setupStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	store := NewStore(db)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := store.SeedRoles(context.Background()); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	return store
}

func newStoredUser(t *testing.T, store *Store, username, email string, roleName string) *domain.User {
	t.Helper()
	ctx := context.Background()

	user, err := domain.NewUser(username, email, testHash, "Jane", "Doe")
	if err != nil {
		t.Fatalf("NewUser: %v", err)
	}
	if err := store.Users().Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	role, err := store.Roles().ByName(ctx, roleName)
	if err != nil {
		t.Fatalf("ByName(%s): %v", roleName, err)
	}
	if err := user.AssignRole(role); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	if err := store.Users().Update(ctx, user); err != nil {
		t.Fatalf("Update: %v", err)
	}
	return user
}

func TestSeedRolesIdempotent(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.SeedRoles(ctx); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	roles, err := store.Roles().All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(roles) != 3 {
		t.Fatalf("expected 3 roles, got %d", len(roles))
	}

	admin, err := store.Roles().ByName(ctx, domain.RoleAdministrador)
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	if _, err := store.Roles().ByID(ctx, admin.ID); err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if _, err := store.Roles().ByID(ctx, 999); !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
}

func TestUserRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	created := newStoredUser(t, store, "jdoe", "jdoe@example.com", domain.RoleOperador)
	if created.ID == 0 {
		t.Fatalf("Create did not backfill the ID")
	}

	fetched, err := store.Users().ByEmail(ctx, "jdoe@example.com")
	if err != nil {
		t.Fatalf("ByEmail: %v", err)
	}
	if fetched.Username != "jdoe" || !fetched.Active {
		t.Fatalf("unexpected user: %+v", fetched)
	}
	names := fetched.RoleNames()
	if len(names) != 1 || names[0] != domain.RoleOperador {
		t.Fatalf("role links not loaded: %v", names)
	}
	if fetched.PasswordHash != testHash {
		t.Fatalf("hash not persisted")
	}

	if _, err := store.Users().ByID(ctx, fetched.ID); err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if _, err := store.Users().ByUsername(ctx, "jdoe"); err != nil {
		t.Fatalf("ByUsername: %v", err)
	}
	if _, err := store.Users().ByEmail(ctx, "nobody@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUniqueColumns(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	newStoredUser(t, store, "jdoe", "jdoe@example.com", domain.RoleOperador)

	dup, err := domain.NewUser("other", "jdoe@example.com", testHash, "Jane", "Doe")
	if err != nil {
		t.Fatalf("NewUser: %v", err)
	}
	if err := store.Users().Create(ctx, dup); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	// A username collision must surface as the username conflict, not as
	// an email conflict.
	dupName, err := domain.NewUser("jdoe", "other@example.com", testHash, "Jane", "Doe")
	if err != nil {
		t.Fatalf("NewUser: %v", err)
	}
	if err := store.Users().Create(ctx, dupName); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	taken, err := store.Users().EmailExists(ctx, "jdoe@example.com")
	if err != nil || !taken {
		t.Fatalf("EmailExists: taken=%v err=%v", taken, err)
	}
	taken, err = store.Users().UsernameExists(ctx, "jdoe")
	if err != nil || !taken {
		t.Fatalf("UsernameExists: taken=%v err=%v", taken, err)
	}
	free, err := store.Users().EmailExists(ctx, "free@example.com")
	if err != nil || free {
		t.Fatalf("EmailExists on free address: taken=%v err=%v", free, err)
	}
}

func TestUpdatePersistsZeroValues(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	user := newStoredUser(t, store, "jdoe", "jdoe@example.com", domain.RoleOperador)

	user.Deactivate()
	if err := store.Users().Update(ctx, user); err != nil {
		t.Fatalf("Update: %v", err)
	}

	fetched, err := store.Users().ByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if fetched.Active {
		t.Fatalf("Active=false was not persisted")
	}

	ghost := *fetched
	ghost.ID = 999
	if err := store.Users().Update(ctx, &ghost); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateIsAtomic(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	user := newStoredUser(t, store, "jdoe", "jdoe@example.com", domain.RoleOperador)

	// Force the role-link rewrite to fail after the delete: two identical
	// links violate the composite primary key on insert. The column update
	// and the delete must roll back with it.
	link := user.Roles[0]
	broken := domain.RehydrateUser(user.ID, user.Username, user.Email, user.PasswordHash,
		"Janet", user.LastName, user.Active, user.LastAccess, user.CreatedAt, user.UpdatedAt,
		[]domain.UserRole{link, link})
	if err := store.Users().Update(ctx, broken); err == nil {
		t.Fatalf("expected the update to fail")
	}

	fetched, err := store.Users().ByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if names := fetched.RoleNames(); len(names) != 1 || names[0] != domain.RoleOperador {
		t.Fatalf("failed update left the user without roles: %v", names)
	}
	if fetched.FirstName != "Jane" {
		t.Fatalf("failed update committed column changes: %q", fetched.FirstName)
	}
}

func TestByRole(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	newStoredUser(t, store, "jdoe", "jdoe@example.com", domain.RoleOperador)
	newStoredUser(t, store, "asmith", "asmith@example.com", domain.RoleSupervisor)

	operador, err := store.Roles().ByName(ctx, domain.RoleOperador)
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}

	users, err := store.Users().ByRole(ctx, operador.ID)
	if err != nil {
		t.Fatalf("ByRole: %v", err)
	}
	if len(users) != 1 || users[0].Username != "jdoe" {
		t.Fatalf("unexpected result: %+v", users)
	}

	all, err := store.Users().All(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("All: err=%v n=%d", err, len(all))
	}
}

func TestInTransactionRollsBack(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.InTransaction(ctx, func(ctx context.Context) error {
		user, err := domain.NewUser("jdoe", "jdoe@example.com", testHash, "Jane", "Doe")
		if err != nil {
			return err
		}
		if err := store.Users().Create(ctx, user); err != nil {
			return err
		}
		// The row is visible inside the transaction.
		if taken, err := store.Users().EmailExists(ctx, "jdoe@example.com"); err != nil || !taken {
			t.Fatalf("row not visible in tx: taken=%v err=%v", taken, err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	taken, err := store.Users().EmailExists(ctx, "jdoe@example.com")
	if err != nil {
		t.Fatalf("EmailExists: %v", err)
	}
	if taken {
		t.Fatalf("rolled back row is still visible")
	}
}

func TestInTransactionCommits(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	err := store.InTransaction(ctx, func(ctx context.Context) error {
		user, err := domain.NewUser("jdoe", "jdoe@example.com", testHash, "Jane", "Doe")
		if err != nil {
			return err
		}
		if err := store.Users().Create(ctx, user); err != nil {
			return err
		}
		role, err := store.Roles().ByName(ctx, domain.RoleOperador)
		if err != nil {
			return err
		}
		if err := user.AssignRole(role); err != nil {
			return err
		}
		return store.Users().Update(ctx, user)
	})
	if err != nil {
		t.Fatalf("InTransaction: %v", err)
	}

	fetched, err := store.Users().ByEmail(ctx, "jdoe@example.com")
	if err != nil {
		t.Fatalf("ByEmail: %v", err)
	}
	if names := fetched.RoleNames(); len(names) != 1 || names[0] != domain.RoleOperador {
		t.Fatalf("committed user missing role: %v", names)
	}
}
