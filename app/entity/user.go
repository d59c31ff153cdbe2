package entity

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// User is the identity record. RefreshToken and RefreshTokenExpiresAt are
// either both null or both set: the row owns exactly one active refresh
// token and issuing a new one overwrites the previous value.
type User struct {
	ID                    uuid.UUID
	Username              string
	Email                 string
	PasswordHash          string
	EmailConfirmed        bool
	Role                  string
	ProfilePictureURL     string
	RefreshToken          sql.NullString
	RefreshTokenExpiresAt sql.NullTime
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
