package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/codelens-app/auth-service/app/entity"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, email_confirmed, role, profile_picture_url, refresh_token, refresh_token_expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID.String(),
		user.Username,
		user.Email,
		user.PasswordHash,
		user.EmailConfirmed,
		user.Role,
		user.ProfilePictureURL,
		user.RefreshToken,
		user.RefreshTokenExpiresAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return err
}

// CreateWithPassword hashes the plaintext password before inserting the row.
// Federated accounts go through Create instead and never carry a hash.
func (r *UserRepository) CreateWithPassword(ctx context.Context, user *entity.User, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashed)
	return r.Create(ctx, user)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT id, username, email, password_hash, email_confirmed, role, profile_picture_url,
		       refresh_token, refresh_token_expires_at, created_at, updated_at
		FROM users WHERE email = ?
	`
	return r.queryUser(ctx, query, email)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	query := `
		SELECT id, username, email, password_hash, email_confirmed, role, profile_picture_url,
		       refresh_token, refresh_token_expires_at, created_at, updated_at
		FROM users WHERE username = ?
	`
	return r.queryUser(ctx, query, username)
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `
		SELECT id, username, email, password_hash, email_confirmed, role, profile_picture_url,
		       refresh_token, refresh_token_expires_at, created_at, updated_at
		FROM users WHERE id = ?
	`
	return r.queryUser(ctx, query, id.String())
}

func (r *UserRepository) queryUser(ctx context.Context, query string, arg any) (*entity.User, error) {
	user := &entity.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.EmailConfirmed,
		&user.Role,
		&user.ProfilePictureURL,
		&user.RefreshToken,
		&user.RefreshTokenExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users SET
			username = ?,
			email = ?,
			password_hash = ?,
			email_confirmed = ?,
			role = ?,
			profile_picture_url = ?,
			refresh_token = ?,
			refresh_token_expires_at = ?,
			updated_at = ?
		WHERE id = ?
	`
	user.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.EmailConfirmed,
		user.Role,
		user.ProfilePictureURL,
		user.RefreshToken,
		user.RefreshTokenExpiresAt,
		user.UpdatedAt,
		user.ID.String(),
	)
	return err
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM users WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, id.String())
	return err
}

func (r *UserRepository) AssignRole(ctx context.Context, userID uuid.UUID, role string) error {
	query := `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, role, time.Now().UTC(), userID.String())
	return err
}

// ConfirmEmail flips the confirmation flag. The flag is one-way: nothing in
// the service ever sets it back to false.
func (r *UserRepository) ConfirmEmail(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE users SET email_confirmed = 1, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, time.Now().UTC(), userID.String())
	return err
}

// CheckPassword compares against the stored hash, re-reading the row so a
// stale in-memory entity cannot accept a password that was since changed.
func (r *UserRepository) CheckPassword(ctx context.Context, user *entity.User, password string) (bool, error) {
	current, err := r.FindByID(ctx, user.ID)
	if err != nil {
		return false, err
	}
	if current == nil || current.PasswordHash == "" {
		return false, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(current.PasswordHash), []byte(password)) == nil, nil
}

func (r *UserRepository) IsEmailConfirmed(ctx context.Context, user *entity.User) (bool, error) {
	current, err := r.FindByID(ctx, user.ID)
	if err != nil {
		return false, err
	}
	if current == nil {
		return false, nil
	}
	return current.EmailConfirmed, nil
}

// ResetPassword overwrites the stored hash with a fresh bcrypt hash of the
// new password and bumps the updated_at timestamp.
func (r *UserRepository) ResetPassword(ctx context.Context, user *entity.User, newPassword string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	query := `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`
	user.PasswordHash = string(hashed)
	user.UpdatedAt = time.Now().UTC()
	_, err = r.db.ExecContext(ctx, query, user.PasswordHash, user.UpdatedAt, user.ID.String())
	return err
}
