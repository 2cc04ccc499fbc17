package dto

import (
	"time"

	"github.com/spec-kit/civic-intake/internal/domain"
)

// UserRegisterRequest payload for new accounts.
type UserRegisterRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	DepartmentID string `json:"department_id"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone,omitempty"`
	Role         domain.Role `json:"role"`
	DepartmentID string      `json:"department_id,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// NewUserResponse renders an account without its password hash.
func NewUserResponse(account *domain.UserAccount) UserResponse {
	return UserResponse{
		ID:           account.ID,
		Name:         account.Name,
		Email:        account.Email,
		Phone:        account.Phone,
		Role:         account.Role,
		DepartmentID: account.DepartmentID,
		CreatedAt:    account.CreatedAt,
	}
}
