package postgres

import (
	"time"

	"github.com/ecofuel/fleet-auth/internal/core/domain"
)

// Persistence models are kept separate from the domain entities so GORM
// tags never leak into the core packages.

type roleModel struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:50;uniqueIndex;not null"`
	Description string `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (roleModel) TableName() string { return "roles" }

type userModel struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:50;uniqueIndex:idx_users_username;not null"`
	Email        string `gorm:"size:255;uniqueIndex:idx_users_email;not null"`
	PasswordHash string `gorm:"size:72;not null"`
	FirstName    string `gorm:"size:100;not null"`
	LastName     string `gorm:"size:100;not null"`
	Active       bool   `gorm:"not null;default:true"`
	LastAccess   time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Roles        []userRoleModel `gorm:"foreignKey:UserID"`
}

func (userModel) TableName() string { return "users" }

type userRoleModel struct {
	UserID    uint `gorm:"primaryKey;autoIncrement:false"`
	RoleID    uint `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time
	Role      *roleModel `gorm:"foreignKey:RoleID"`
}

func (userRoleModel) TableName() string { return "user_roles" }

func (m *roleModel) toDomain() *domain.Role {
	return &domain.Role{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func (m *userModel) toDomain() *domain.User {
	roles := make([]domain.UserRole, 0, len(m.Roles))
	for _, ur := range m.Roles {
		link := domain.UserRole{UserID: ur.UserID, RoleID: ur.RoleID, CreatedAt: ur.CreatedAt}
		if ur.Role != nil {
			link.Role = ur.Role.toDomain()
		}
		roles = append(roles, link)
	}
	return domain.RehydrateUser(m.ID, m.Username, m.Email, m.PasswordHash, m.FirstName, m.LastName,
		m.Active, m.LastAccess, m.CreatedAt, m.UpdatedAt, roles)
}

func userFromDomain(u *domain.User) *userModel {
	m := &userModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Active:       u.Active,
		LastAccess:   u.LastAccess,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	for _, ur := range u.Roles {
		m.Roles = append(m.Roles, userRoleModel{
			UserID:    ur.UserID,
			RoleID:    ur.RoleID,
			CreatedAt: ur.CreatedAt,
		})
	}
	return m
}
