package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ecofuel/fleet-auth/internal/core/domain"
	"github.com/ecofuel/fleet-auth/internal/core/ports"
)

type roleRepository struct {
	s *Store
}

var _ ports.RoleStore = (*roleRepository)(nil)

func (r *roleRepository) ByID(ctx context.Context, id uint) (*domain.Role, error) {
	var m roleModel
	if err := r.s.conn(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r *roleRepository) ByName(ctx context.Context, name string) (*domain.Role, error) {
	var m roleModel
	if err := r.s.conn(ctx).Where("name = ?", name).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r *roleRepository) All(ctx context.Context) ([]*domain.Role, error) {
	var ms []roleModel
	if err := r.s.conn(ctx).Order("id").Find(&ms).Error; err != nil {
		return nil, err
	}
	roles := make([]*domain.Role, 0, len(ms))
	for i := range ms {
		roles = append(roles, ms[i].toDomain())
	}
	return roles, nil
}
