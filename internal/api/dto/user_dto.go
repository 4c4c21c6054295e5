package dto

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Name       string `json:"name" validate:"required"`
	Username   string `json:"username" validate:"required,min=3"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone"`
	Location   string `json:"location"`
	PostalCode string `json:"postalCode"`
	Password   string `json:"password" validate:"required,min=6"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest payload; omitted fields stay unchanged.
type UpdateProfileRequest struct {
	Name       *string `json:"name"`
	Phone      *string `json:"phone"`
	Location   *string `json:"location"`
	PostalCode *string `json:"postalCode"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// SendOTPRequest payload.
type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyOTPRequest payload.
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

// ResetPasswordRequest payload.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// UserResponse is the public account shape. The password hash never leaves
// the service.
type UserResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Username    string            `json:"username"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone,omitempty"`
	Location    string            `json:"location,omitempty"`
	PostalCode  string            `json:"postalCode"`
	Role        domain.Role       `json:"role"`
	Status      domain.UserStatus `json:"status"`
	MemberSince time.Time         `json:"memberSince"`
	LastActive  time.Time         `json:"lastActive"`
}

// SessionResponse carries a signed-in user and their token.
type SessionResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Username:    user.Username,
		Email:       user.Email,
		Phone:       user.Phone,
		Location:    user.Location,
		PostalCode:  user.PostalCode,
		Role:        user.Role,
		Status:      user.Status,
		MemberSince: user.MemberSince,
		LastActive:  user.LastActive,
	}
}
