package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/ecofuel/fleet-auth/internal/core/domain"
	"github.com/ecofuel/fleet-auth/internal/core/ports"
)

type userRepository struct {
	s *Store
}

var _ ports.UserStore = (*userRepository)(nil)

func (r *userRepository) ByID(ctx context.Context, id uint) (*domain.User, error) {
	var m userModel
	err := r.s.conn(ctx).Preload("Roles.Role").First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r *userRepository) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m userModel
	err := r.s.conn(ctx).Preload("Roles.Role").Where("email = ?", email).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r *userRepository) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	var m userModel
	err := r.s.conn(ctx).Preload("Roles.Role").Where("username = ?", username).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.s.conn(ctx).Model(&userModel{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.s.conn(ctx).Model(&userModel{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *userRepository) All(ctx context.Context) ([]*domain.User, error) {
	var ms []userModel
	if err := r.s.conn(ctx).Preload("Roles.Role").Order("id").Find(&ms).Error; err != nil {
		return nil, err
	}
	users := make([]*domain.User, 0, len(ms))
	for i := range ms {
		users = append(users, ms[i].toDomain())
	}
	return users, nil
}

func (r *userRepository) ByRole(ctx context.Context, roleID uint) ([]*domain.User, error) {
	var ms []userModel
	err := r.s.conn(ctx).Preload("Roles.Role").
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Where("user_roles.role_id = ?", roleID).
		Order("users.id").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	users := make([]*domain.User, 0, len(ms))
	for i := range ms {
		users = append(users, ms[i].toDomain())
	}
	return users, nil
}

// Create inserts the user row and backfills the generated ID. Role links
// are persisted by Update once the ID is known.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	m := userFromDomain(user)
	if err := r.s.conn(ctx).Omit("Roles").Create(m).Error; err != nil {
		return translateDuplicate(err)
	}
	user.ID = m.ID
	return nil
}

// Update saves the user row and replaces its role links with the current
// set on the entity. The column update and the link rewrite are one atomic
// unit: outside InTransaction this opens its own transaction, inside it
// GORM nests via savepoint. A failure mid-rewrite can never commit a user
// with zero roles.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	if user.ID == 0 {
		return domain.ErrUserNotFound
	}
	m := userFromDomain(user)

	return r.s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&userModel{}).Where("id = ?", m.ID).
			Select("username", "email", "password_hash", "first_name", "last_name",
				"active", "last_access", "updated_at").
			Updates(m)
		if res.Error != nil {
			return translateDuplicate(res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrUserNotFound
		}

		if err := tx.Where("user_id = ?", m.ID).Delete(&userRoleModel{}).Error; err != nil {
			return err
		}
		if len(m.Roles) > 0 {
			if err := tx.Create(&m.Roles).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// translateDuplicate converts a unique constraint violation into the
// conflict error for the column whose index was hit. Registrations check
// both unique columns inside the same transaction first, so reaching the
// constraint means a concurrent insert raced us and the caller sees the
// same conflict it would have seen a moment later. Postgres names the
// violated constraint on the error; other drivers (the sqlite test driver
// included) spell the column in the message.
func translateDuplicate(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgerrcode.UniqueViolation {
			return err
		}
		if strings.Contains(pgErr.ConstraintName, "username") {
			return domain.ErrUsernameTaken
		}
		return domain.ErrEmailTaken
	}

	if strings.Contains(err.Error(), "UNIQUE constraint") {
		if strings.Contains(err.Error(), "username") {
			return domain.ErrUsernameTaken
		}
		return domain.ErrEmailTaken
	}
	return err
}
