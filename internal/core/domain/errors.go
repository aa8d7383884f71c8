package domain

import "errors"

// Sentinel errors shared across services, handlers and stores.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrUserNotFound       = errors.New("user not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidRole        = errors.New("invalid role")
	ErrLoginThrottled     = errors.New("too many failed login attempts, try again later")
)

// ValidationError carries a user-safe message for a domain-rule violation.
// Handlers surface it verbatim; anything else stays generic.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }
