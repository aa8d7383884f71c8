package domain

import (
	"regexp"
	"strings"
	"time"
)

// corporateEmailDomain is required for accounts named "admin".
const corporateEmailDomain = "@ecofuel.com"

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,50}$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	nameRe     = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚñÑ\s]{2,100}$`)
)

// User models an account in the fleet system. State changes go through the
// named mutators below, each of which stamps UpdatedAt, and new instances
// come from NewUser (validating) or RehydrateUser (persistence only).
type User struct {
	ID           uint       `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Active       bool       `json:"active"`
	LastAccess   time.Time  `json:"last_access"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Roles        []UserRole `json:"roles,omitempty"`
}

// NewUser is the factory for fresh accounts. Beyond per-field validation it
// enforces the cross-field rules: "admin" accounts must use a corporate
// email, and first and last name must differ. The user starts active, with
// no roles, and with LastAccess initialised to now.
func NewUser(username, email, passwordHash, firstName, lastName string) (*User, error) {
	u := &User{Active: true}
	if err := u.Rename(username); err != nil {
		return nil, err
	}
	if err := u.ChangeEmail(email); err != nil {
		return nil, err
	}
	if err := u.ChangePasswordHash(passwordHash); err != nil {
		return nil, err
	}
	if err := u.ChangeName(firstName, lastName); err != nil {
		return nil, err
	}

	if strings.EqualFold(u.Username, "admin") && !strings.HasSuffix(u.Email, corporateEmailDomain) {
		return nil, ValidationError("accounts named 'admin' must use a corporate email address")
	}
	if strings.EqualFold(u.FirstName, u.LastName) {
		return nil, ValidationError("first and last name cannot be identical")
	}

	now := time.Now().UTC()
	u.LastAccess = now
	u.CreatedAt = now
	u.UpdatedAt = now
	return u, nil
}

// RehydrateUser rebuilds a user from persisted state without re-validating.
// Only the store's translation layer should call it.
func RehydrateUser(id uint, username, email, passwordHash, firstName, lastName string,
	active bool, lastAccess, createdAt, updatedAt time.Time, roles []UserRole) *User {
	return &User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		Active:       active,
		LastAccess:   lastAccess,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
		Roles:        roles,
	}
}

// Rename changes the username.
func (u *User) Rename(username string) error {
	if strings.TrimSpace(username) == "" {
		return ValidationError("username cannot be empty")
	}
	if !usernameRe.MatchString(username) {
		return ValidationError("username must be 3-50 characters of letters, digits, dots, hyphens or underscores")
	}
	u.Username = username
	u.touch()
	return nil
}

// ChangeEmail changes the email address.
func (u *User) ChangeEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return ValidationError("email cannot be empty")
	}
	if !emailRe.MatchString(email) {
		return ValidationError("invalid email format")
	}
	u.Email = email
	u.touch()
	return nil
}

// ChangePasswordHash replaces the stored hash. The length check is a sanity
// guard against storing a plaintext password, not a cryptographic check.
func (u *User) ChangePasswordHash(hash string) error {
	if strings.TrimSpace(hash) == "" {
		return ValidationError("password hash cannot be empty")
	}
	if len(hash) < 60 {
		return ValidationError("password hash does not look valid")
	}
	u.PasswordHash = hash
	u.touch()
	return nil
}

// ChangeName changes first and last name.
func (u *User) ChangeName(firstName, lastName string) error {
	if !nameRe.MatchString(firstName) {
		return ValidationError("first name must be 2-100 characters of letters and spaces")
	}
	if !nameRe.MatchString(lastName) {
		return ValidationError("last name must be 2-100 characters of letters and spaces")
	}
	u.FirstName = firstName
	u.LastName = lastName
	u.touch()
	return nil
}

// FullName returns "First Last" for token claims and display.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// AssignRole attaches a role. Both sides need durable IDs, and duplicate
// (user, role) pairs are ignored.
func (u *User) AssignRole(role *Role) error {
	if role == nil {
		return ErrInvalidRole
	}
	if u.ID == 0 || role.ID == 0 {
		return ValidationError("role assignment requires persisted user and role ids")
	}
	for _, ur := range u.Roles {
		if ur.RoleID == role.ID {
			return nil
		}
	}
	u.Roles = append(u.Roles, UserRole{
		UserID:    u.ID,
		RoleID:    role.ID,
		CreatedAt: time.Now().UTC(),
		Role:      role,
	})
	u.touch()
	return nil
}

// RemoveRole detaches a role if present.
func (u *User) RemoveRole(roleID uint) {
	for i, ur := range u.Roles {
		if ur.RoleID == roleID {
			u.Roles = append(u.Roles[:i], u.Roles[i+1:]...)
			u.touch()
			return
		}
	}
}

// RoleNames returns the names of the user's resolved roles.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, ur := range u.Roles {
		if ur.Role != nil && ur.Role.Name != "" {
			names = append(names, ur.Role.Name)
		}
	}
	return names
}

// Activate marks the account usable again.
func (u *User) Activate() {
	u.Active = true
	u.touch()
}

// Deactivate is the soft delete: the row stays, access is revoked.
func (u *User) Deactivate() {
	u.Active = false
	u.touch()
}

// ChangeStatus sets the active flag explicitly.
func (u *User) ChangeStatus(active bool) {
	u.Active = active
	u.touch()
}

// RecordAccess stamps a successful login.
func (u *User) RecordAccess() {
	u.LastAccess = time.Now().UTC()
	u.touch()
}

func (u *User) touch() { u.UpdatedAt = time.Now().UTC() }
