package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/codelens-app/auth-service/app/dto"
	"github.com/codelens-app/auth-service/app/entity"
	"github.com/codelens-app/auth-service/config"
)

var (
	ErrEmailInUse            = errors.New("email is already in use")
	ErrUsernameInUse         = errors.New("username is already in use")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrEmailNotConfirmed     = errors.New("email is not confirmed")
	ErrEmailAlreadyConfirmed = errors.New("email is already confirmed")
	ErrEmailNotVerified      = errors.New("email is not verified, a new verification link has been sent")
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidToken          = errors.New("invalid or expired token")
	ErrResetTokenRequired    = errors.New("password reset token is required")
	ErrInvalidResetToken     = errors.New("invalid or expired password reset token")
	ErrResetInProgress       = errors.New("a password reset request is already in progress")
	ErrPasswordMismatch      = errors.New("passwords do not match")
	ErrMissingEmailClaim     = errors.New("external identity is missing an email claim")
	ErrTryAgainLater         = errors.New("could not process the request, please try again later")
)

// Cookie names the session transport uses for the token pair.
const (
	AccessTokenCookie  = "ACCESS_TOKEN"
	RefreshTokenCookie = "REFRESH_TOKEN"
)

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	CreateWithPassword(ctx context.Context, user *entity.User, password string) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	AssignRole(ctx context.Context, userID uuid.UUID, role string) error
	ConfirmEmail(ctx context.Context, userID uuid.UUID) error
	CheckPassword(ctx context.Context, user *entity.User, password string) (bool, error)
	IsEmailConfirmed(ctx context.Context, user *entity.User) (bool, error)
	ResetPassword(ctx context.Context, user *entity.User, newPassword string) error
}

type resetTokenStore interface {
	TryInsertIfAbsent(ctx context.Context, token, userID string, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, token string) (bool, error)
	GetValue(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

type mailer interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// SessionWriter attaches and detaches credentials on the transport session.
// The HTTP layer passes an implementation bound to the current response.
type SessionWriter interface {
	SetAuthCookie(name, token string, expiry time.Time)
	ClearAuthCookie(name string)
}

// AuthService sequences the credential-lifecycle flows. It is stateless
// between calls and is the single boundary where infrastructure errors are
// translated into the domain error set above.
type AuthService struct {
	userRepo    userRepository
	tokens      *TokenService
	resetTokens resetTokenStore
	mailer      mailer
	cfg         *config.Config
}

func NewAuthService(
	userRepo userRepository,
	tokens *TokenService,
	resetTokens resetTokenStore,
	mailer mailer,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		tokens:      tokens,
		resetTokens: resetTokens,
		mailer:      mailer,
		cfg:         cfg,
	}
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*entity.User, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailInUse
	}

	existing, err = s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameInUse
	}

	now := time.Now().UTC()
	user := &entity.User{
		ID:             uuid.New(),
		Username:       username,
		Email:          email,
		EmailConfirmed: false,
		Role:           entity.RoleUser,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err = s.userRepo.CreateWithPassword(ctx, user, password); err != nil {
		return nil, err
	}
	if err = s.userRepo.AssignRole(ctx, user.ID, entity.RoleUser); err != nil {
		return nil, err
	}

	// The account now exists unconfirmed. If the email below fails the user
	// is still recoverable through the resend-confirmation flow.
	if err = s.sendConfirmationEmail(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string, session SessionWriter) (*dto.LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Same error as a wrong password so responses cannot be used to
		// enumerate accounts.
		return nil, ErrInvalidCredentials
	}

	ok, err := s.userRepo.CheckPassword(ctx, user, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	confirmed, err := s.userRepo.IsEmailConfirmed(ctx, user)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, ErrEmailNotConfirmed
	}

	return s.issueSession(ctx, user, session)
}

// LoginWithGoogle trusts the upstream identity provider: the principal was
// verified before it reaches this service, so the flow never touches the
// password hash and provisions unknown emails as confirmed accounts.
func (s *AuthService) LoginWithGoogle(ctx context.Context, principal *GoogleUser, session SessionWriter) (*entity.User, error) {
	if principal == nil || strings.TrimSpace(principal.Email) == "" {
		return nil, ErrMissingEmailClaim
	}

	user, err := s.userRepo.FindByEmail(ctx, principal.Email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		now := time.Now().UTC()
		user = &entity.User{
			ID:                uuid.New(),
			Username:          emailLocalPart(principal.Email),
			Email:             principal.Email,
			EmailConfirmed:    true,
			Role:              entity.RoleUser,
			ProfilePictureURL: principal.PictureURL,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err = s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		if err = s.userRepo.AssignRole(ctx, user.ID, entity.RoleUser); err != nil {
			return nil, err
		}
	}

	if _, err = s.issueSession(ctx, user, session); err != nil {
		return nil, err
	}
	return user, nil
}

// ConfirmEmail validates the purpose token against the addressed user and
// flips the confirmation flag. All failure modes collapse into one error.
func (s *AuthService) ConfirmEmail(ctx context.Context, userID, token string) (*entity.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}

	if !s.tokens.ValidatePurposeToken(user, token, PurposeEmailConfirmation) {
		return nil, ErrInvalidToken
	}

	if err = s.userRepo.ConfirmEmail(ctx, user.ID); err != nil {
		return nil, err
	}
	user.EmailConfirmed = true
	return user, nil
}

func (s *AuthService) InitiatePasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		// Succeed silently so the response does not reveal whether the
		// account exists.
		return nil
	}

	confirmed, err := s.userRepo.IsEmailConfirmed(ctx, user)
	if err != nil {
		return err
	}
	if !confirmed {
		// A reset cannot proceed on an unconfirmed account; resend the
		// verification link instead and tell the user.
		if err = s.ResendEmailConfirmation(ctx, user); err != nil {
			return err
		}
		return ErrEmailNotVerified
	}

	// The reset token is opaque on purpose: a signed JWT would let the
	// holder re-derive it and makes a poor cache key.
	token, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return err
	}

	inserted, err := s.resetTokens.TryInsertIfAbsent(ctx, token, user.ID.String(), s.cfg.ResetTokenTTL)
	if err != nil {
		logrus.WithError(err).Error("reset token store insert failed")
		return ErrTryAgainLater
	}
	if !inserted {
		return ErrResetInProgress
	}

	frontendURL, err := s.frontendURL()
	if err != nil {
		return err
	}
	resetLink := fmt.Sprintf("%s/api/auth/reset-password/verify?token=%s", frontendURL, url.QueryEscape(token))

	if err = s.mailer.SendEmail(ctx, user.Email, "Reset your password", resetLink); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("reset email dispatch failed")
		return ErrTryAgainLater
	}
	return nil
}

// VerifyPasswordResetToken is a pure existence probe. A blank token
// short-circuits to false without touching the cache; a cache failure is
// surfaced, unlike in InitiatePasswordReset.
func (s *AuthService) VerifyPasswordResetToken(ctx context.Context, token string) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return false, nil
	}

	exists, err := s.resetTokens.Exists(ctx, token)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrTryAgainLater, err)
	}
	return exists, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	if strings.TrimSpace(token) == "" {
		return ErrResetTokenRequired
	}
	// The transport layer already checks this; re-check so the invariant
	// holds no matter who calls.
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	decoded, err := url.QueryUnescape(token)
	if err != nil {
		return ErrInvalidResetToken
	}

	userID, err := s.resetTokens.GetValue(ctx, decoded)
	if err != nil {
		logrus.WithError(err).Error("reset token store lookup failed")
		return ErrTryAgainLater
	}
	if userID == "" {
		return ErrInvalidResetToken
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		// A dangling cache entry is indistinguishable from a bad token.
		return ErrInvalidResetToken
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidResetToken
	}

	if err = s.userRepo.ResetPassword(ctx, user, newPassword); err != nil {
		return err
	}

	// Single use is enforced by deletion, not by waiting out the TTL.
	return s.resetTokens.Delete(ctx, decoded)
}

func (s *AuthService) ResendEmailConfirmation(ctx context.Context, user *entity.User) error {
	confirmed, err := s.userRepo.IsEmailConfirmed(ctx, user)
	if err != nil {
		return err
	}
	if confirmed {
		return ErrEmailAlreadyConfirmed
	}
	return s.sendConfirmationEmail(ctx, user)
}

func (s *AuthService) ResendEmailConfirmationByEmail(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	return s.ResendEmailConfirmation(ctx, user)
}

// Logout clears the refresh token bookkeeping and revokes both cookies. The
// still-valid access token is not blacklisted; its own short expiry bounds
// the exposure window.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, session SessionWriter) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	user.RefreshToken = sql.NullString{}
	user.RefreshTokenExpiresAt = sql.NullTime{}
	if err = s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	session.ClearAuthCookie(AccessTokenCookie)
	session.ClearAuthCookie(RefreshTokenCookie)
	return nil
}

// issueSession rotates the access/refresh pair: the new refresh token
// overwrites the previous one on the user row, so concurrent logins race on
// last-write-wins and only the newest token stays valid.
func (s *AuthService) issueSession(ctx context.Context, user *entity.User, session SessionWriter) (*dto.LoginResult, error) {
	accessToken, accessExpiry, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	refreshExpiry := time.Now().UTC().Add(s.cfg.RefreshTokenTTL)

	user.RefreshToken = sql.NullString{String: refreshToken, Valid: true}
	user.RefreshTokenExpiresAt = sql.NullTime{Time: refreshExpiry, Valid: true}
	if err = s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	session.SetAuthCookie(AccessTokenCookie, accessToken, accessExpiry)
	session.SetAuthCookie(RefreshTokenCookie, refreshToken, refreshExpiry)

	return &dto.LoginResult{
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: refreshExpiry,
	}, nil
}

func (s *AuthService) sendConfirmationEmail(ctx context.Context, user *entity.User) error {
	token, err := s.tokens.GeneratePurposeToken(user, PurposeEmailConfirmation, s.cfg.ConfirmTokenTTL)
	if err != nil {
		return err
	}

	backendURL, err := s.backendURL()
	if err != nil {
		return err
	}
	confirmationLink := fmt.Sprintf("%s/api/auth/confirm-email?userId=%s&token=%s",
		backendURL, user.ID, url.QueryEscape(token))

	return s.mailer.SendEmail(ctx, user.Email, "Verify your email", confirmationLink)
}

func (s *AuthService) backendURL() (string, error) {
	if strings.TrimSpace(s.cfg.BackendURL) == "" {
		return "", errors.New("backend URL is not configured")
	}
	return strings.TrimRight(s.cfg.BackendURL, "/"), nil
}

func (s *AuthService) frontendURL() (string, error) {
	if strings.TrimSpace(s.cfg.FrontendURL) == "" {
		return "", errors.New("frontend URL is not configured")
	}
	return strings.TrimRight(s.cfg.FrontendURL, "/"), nil
}

func emailLocalPart(email string) string {
	if idx := strings.Index(email, "@"); idx > 0 {
		return email[:idx]
	}
	return email
}
