package domain

import "time"

// Seeded role names. The set is reference data: created once at startup and
// never mutated by the service.
const (
	RoleAdministrador = "Administrador"
	RoleOperador      = "Operador"
	RoleSupervisor    = "Supervisor"
)

// AllRoleNames lists every recognised role, in seed order.
func AllRoleNames() []string {
	return []string{RoleAdministrador, RoleOperador, RoleSupervisor}
}

// Role is a named permission group.
type Role struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewRole validates and builds a role.
func NewRole(name, description string) (*Role, error) {
	if name == "" {
		return nil, ValidationError("role name cannot be empty")
	}
	now := time.Now().UTC()
	return &Role{Name: name, Description: description, CreatedAt: now, UpdatedAt: now}, nil
}

// Rename changes the role name and stamps the update time.
func (r *Role) Rename(name string) error {
	if name == "" {
		return ValidationError("role name cannot be empty")
	}
	r.Name = name
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Describe changes the role description and stamps the update time.
func (r *Role) Describe(description string) {
	r.Description = description
	r.UpdatedAt = time.Now().UTC()
}

// UserRole is the user↔role association. The (UserID, RoleID) pair is unique.
type UserRole struct {
	UserID    uint      `json:"user_id"`
	RoleID    uint      `json:"role_id"`
	CreatedAt time.Time `json:"created_at"`
	Role      *Role     `json:"role,omitempty"`
}
