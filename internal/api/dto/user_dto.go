package dto

import (
	"time"

	"github.com/deskflow/ai-ticket-assistant/internal/domain"
)

// SignupRequest payload for new accounts.
type SignupRequest struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Skills   []string `json:"skills"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest payload for admin account changes.
type UpdateUserRequest struct {
	Email  string   `json:"email"`
	Role   *string  `json:"role"`
	Skills []string `json:"skills"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Skills    []string  `json:"skills"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewUserResponse maps a domain user, never exposing the password hash.
func NewUserResponse(u *domain.User) UserResponse {
	skills := u.Skills
	if skills == nil {
		skills = []string{}
	}
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		Skills:    skills,
		CreatedAt: u.CreatedAt,
	}
}
