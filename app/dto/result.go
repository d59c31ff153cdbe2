package dto

import "time"

// LoginResult is what a successful login returns in the response body. The
// access token is intentionally absent: it travels only as an HttpOnly
// cookie, and some consumers rely on cookie-only auth.
type LoginResult struct {
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}
