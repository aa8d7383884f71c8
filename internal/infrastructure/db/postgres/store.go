package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ecofuel/fleet-auth/internal/core/domain"
	"github.com/ecofuel/fleet-auth/internal/core/ports"
)

const maxTxRetries = 3

// txKey marks the active transaction in context so repository methods
// called inside InTransaction participate in the same transaction.
type txKey struct{}

// Store implements ports.Store on a GORM Postgres connection.
type Store struct {
	db *gorm.DB
}

// Open connects to Postgres and returns a ready Store. Driver errors are
// kept untranslated: the repositories inspect the violated constraint
// themselves to map unique violations onto the right conflict error.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for health probes.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Users() ports.UserStore { return &userRepository{s} }
func (s *Store) Roles() ports.RoleStore { return &roleRepository{s} }

// Migrate creates or updates the schema.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&roleModel{}, &userModel{}, &userRoleModel{})
}

// SeedRoles inserts the built-in roles if they are missing. Existing rows
// are left untouched so operators can edit descriptions.
func (s *Store) SeedRoles(ctx context.Context) error {
	seed := []roleModel{
		{Name: domain.RoleAdministrador, Description: "full administrative access"},
		{Name: domain.RoleOperador, Description: "day to day fleet operations"},
		{Name: domain.RoleSupervisor, Description: "read access and oversight"},
	}
	for _, role := range seed {
		err := s.db.WithContext(ctx).
			Where(roleModel{Name: role.Name}).
			FirstOrCreate(&roleModel{}, role).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// InTransaction runs fn inside a single database transaction and retries
// the whole unit on transient failures (serialization conflicts, deadlocks,
// dropped connections). fn must be safe to re-run from scratch.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(maxTxRetries, retry.NewFibonacci(25*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(context.WithValue(ctx, txKey{}, tx))
		})
		if err != nil && isTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// conn returns the transaction bound to ctx, or the base connection when
// called outside InTransaction.
func (s *Store) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return s.db.WithContext(ctx)
}

func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return true
	}
	return pgerrcode.IsConnectionException(pgErr.Code)
}
