package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ecofuel/fleet-auth/internal/core/domain"
	"github.com/ecofuel/fleet-auth/internal/core/ports"
)

// UserService covers the administrative operations over accounts.
type UserService struct {
	store ports.Store
	log   zerolog.Logger
}

func NewUserService(store ports.Store, log zerolog.Logger) *UserService {
	return &UserService{store: store, log: log}
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.store.Users().All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) ListByRole(ctx context.Context, roleID uint) ([]*domain.User, error) {
	if _, err := s.store.Roles().ByID(ctx, roleID); err != nil {
		return nil, err
	}
	users, err := s.store.Users().ByRole(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	return users, nil
}

// ChangeStatus flips the active flag of an account.
func (s *UserService) ChangeStatus(ctx context.Context, userID uint, active bool) error {
	user, err := s.store.Users().ByID(ctx, userID)
	if err != nil {
		return err
	}
	user.ChangeStatus(active)
	if err := s.store.Users().Update(ctx, user); err != nil {
		return fmt.Errorf("change status: %w", err)
	}
	s.log.Info().Uint("user_id", userID).Bool("active", active).Msg("user status changed")
	return nil
}

// Deactivate is the delete operation: a soft state flag, never a row
// removal.
func (s *UserService) Deactivate(ctx context.Context, userID uint) error {
	user, err := s.store.Users().ByID(ctx, userID)
	if err != nil {
		return err
	}
	user.Deactivate()
	if err := s.store.Users().Update(ctx, user); err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	s.log.Info().Uint("user_id", userID).Msg("user deactivated")
	return nil
}
