package user

import "time"

type User struct {
	ID           int       `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	Avatar       string    `db:"avatar" json:"avatar"`
	IsVerified   bool      `db:"is_verified" json:"is_verified"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=255" example:"Asha Rao"`
	Email    string `json:"email" binding:"required,email" example:"asha@example.com"`
	Password string `json:"password" binding:"required,min=6" example:"secret123"`
	Role     string `json:"role" binding:"omitempty,oneof=user facility_owner" example:"user"`
	Avatar   string `json:"avatar" binding:"omitempty,max=2048"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"asha@example.com"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email" example:"asha@example.com"`
	OTP   string `json:"otp" binding:"required,len=6,numeric" example:"482913"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         User   `json:"user"`
}
