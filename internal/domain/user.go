package domain

import "time"

// Role controls what an account may do.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleWorker  Role = "worker"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleWorker, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role may manage issues.
func (r Role) IsStaff() bool {
	return r == RoleWorker || r == RoleAdmin
}

// UserAccount is a registered citizen, field worker or administrator.
type UserAccount struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
	DepartmentID string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
