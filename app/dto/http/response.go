package http

import "time"

type RegisterResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Message  string `json:"message"`
}

type LoginResponse struct {
	RefreshToken          string    `json:"refresh_token"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	Message               string    `json:"message"`
}

type LogoutResponse struct {
	Message string `json:"message"`
}

type ForgotPasswordResponse struct {
	Message string `json:"message"`
}

type VerifyResetTokenResponse struct {
	Valid bool `json:"valid"`
}

type ResetPasswordResponse struct {
	Message string `json:"message"`
}

type ResendConfirmationResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
