package dto

import (
	"time"

	"github.com/spec-kit/booking-service/internal/domain"
)

// RegisterRequest payload for email accounts.
type RegisterRequest struct {
	FullName string `json:"full_name" validate:"max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SendCodeRequest asks for a phone verification code.
type SendCodeRequest struct {
	Phone string `json:"phone" validate:"required"`
}

// VerifyPhoneRequest completes phone sign-in.
type VerifyPhoneRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Code     string `json:"code" validate:"required,numeric,min=4,max=10"`
	FullName string `json:"full_name" validate:"max=200"`
}

// BanRequest sets the ban flag on a user.
type BanRequest struct {
	IsBanned *bool `json:"isBanned" validate:"required"`
}

// UserResponse is the public view of an account. The password hash is never
// serialized.
type UserResponse struct {
	ID        string    `json:"_id"`
	FullName  string    `json:"full_name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	IsAdmin   bool      `json:"isAdmin"`
	IsBanned  bool      `json:"isBanned"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	IsNewUser *bool        `json:"isNewUser,omitempty"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Phone:     u.Phone,
		IsAdmin:   u.IsAdmin,
		IsBanned:  u.IsBanned,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NewUserList maps a slice of users.
func NewUserList(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}
