package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ecofuel/fleet-auth/internal/api/metrics"
	"github.com/ecofuel/fleet-auth/internal/core/domain"
	"github.com/ecofuel/fleet-auth/internal/core/ports"
)

const minPasswordLen = 8

// AuthService implements login and the transactional registration sequence.
type AuthService struct {
	store    ports.Store
	hasher   ports.PasswordHasher
	throttle ports.LoginThrottle
	log      zerolog.Logger
}

// NewAuthService wires the authentication core. throttle may be nil, in
// which case the brute-force brake is disabled.
func NewAuthService(store ports.Store, hasher ports.PasswordHasher, throttle ports.LoginThrottle, log zerolog.Logger) *AuthService {
	return &AuthService{store: store, hasher: hasher, throttle: throttle, log: log}
}

// Login verifies the credentials against the live account. Unknown email
// and wrong password intentionally collapse into the same error so the
// endpoint cannot be used to enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if s.blocked(ctx, email) {
		metrics.LoginsTotal.WithLabelValues("throttled").Inc()
		s.log.Warn().Str("email", email).Msg("login throttled")
		return nil, domain.ErrLoginThrottled
	}

	user, err := s.store.Users().ByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		s.recordFailure(ctx, email)
		s.log.Warn().Str("email", email).Msg("login attempt for unregistered email")
		return nil, domain.ErrInvalidCredentials
	case err != nil:
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login lookup: %w", err)
	}

	if !user.Active {
		metrics.LoginsTotal.WithLabelValues("inactive").Inc()
		s.log.Warn().Uint("user_id", user.ID).Msg("login attempt on deactivated account")
		return nil, domain.ErrAccountInactive
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		s.recordFailure(ctx, email)
		s.log.Warn().Uint("user_id", user.ID).Msg("login attempt with wrong password")
		return nil, domain.ErrInvalidCredentials
	}

	user.RecordAccess()
	if err := s.store.Users().Update(ctx, user); err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("record access: %w", err)
	}

	s.reset(ctx, email)
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Uint("user_id", user.ID).Msg("login successful")
	return user, nil
}

// Register creates an account inside one atomic, retryable transaction:
// uniqueness checks, password policy, role resolution, factory validation,
// create (to obtain the durable id), then role assignment. Any failure
// rolls the whole unit back, so a user without a role never commits.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) error {
	err := s.store.InTransaction(ctx, func(ctx context.Context) error {
		users := s.store.Users()

		if taken, err := users.EmailExists(ctx, in.Email); err != nil {
			return fmt.Errorf("email uniqueness check: %w", err)
		} else if taken {
			return domain.ErrEmailTaken
		}

		if taken, err := users.UsernameExists(ctx, in.Username); err != nil {
			return fmt.Errorf("username uniqueness check: %w", err)
		} else if taken {
			return domain.ErrUsernameTaken
		}

		if len(in.Password) < minPasswordLen {
			return domain.ErrPasswordTooShort
		}

		role, err := s.store.Roles().ByID(ctx, in.RoleID)
		if errors.Is(err, domain.ErrRoleNotFound) {
			return domain.ErrInvalidRole
		} else if err != nil {
			return fmt.Errorf("role lookup: %w", err)
		}

		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		user, err := domain.NewUser(in.Username, in.Email, hash, in.FirstName, in.LastName)
		if err != nil {
			return err
		}

		// Two-phase write: the role row needs the user's durable id.
		if err := users.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if err := user.AssignRole(role); err != nil {
			return err
		}
		if err := users.Update(ctx, user); err != nil {
			return fmt.Errorf("assign role: %w", err)
		}

		s.log.Info().Uint("user_id", user.ID).Str("role", role.Name).Msg("user registered")
		return nil
	})

	switch {
	case err == nil:
		metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	case isDomainConflict(err):
		metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		s.log.Warn().Err(err).Str("email", in.Email).Msg("registration rejected")
	case isValidation(err):
		metrics.RegistrationsTotal.WithLabelValues("validation").Inc()
		s.log.Warn().Err(err).Str("email", in.Email).Msg("registration validation failed")
	default:
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Str("email", in.Email).Msg("registration failed")
	}
	return err
}

func isDomainConflict(err error) bool {
	return errors.Is(err, domain.ErrEmailTaken) ||
		errors.Is(err, domain.ErrUsernameTaken) ||
		errors.Is(err, domain.ErrInvalidRole)
}

func isValidation(err error) bool {
	var ve domain.ValidationError
	return errors.Is(err, domain.ErrPasswordTooShort) || errors.As(err, &ve)
}

// Throttle helpers degrade open: a redis outage is logged, never fatal.

func (s *AuthService) blocked(ctx context.Context, email string) bool {
	if s.throttle == nil {
		return false
	}
	blocked, err := s.throttle.Blocked(ctx, email)
	if err != nil {
		s.log.Warn().Err(err).Msg("login throttle unavailable")
		return false
	}
	return blocked
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("login throttle unavailable")
	}
}

func (s *AuthService) reset(ctx context.Context, email string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Reset(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("login throttle unavailable")
	}
}
