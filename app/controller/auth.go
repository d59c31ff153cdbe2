package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/codelens-app/auth-service/app/dto"
	httpdto "github.com/codelens-app/auth-service/app/dto/http"
	"github.com/codelens-app/auth-service/app/entity"
	"github.com/codelens-app/auth-service/app/service"
	"github.com/codelens-app/auth-service/config"
)

type authService interface {
	Register(ctx context.Context, username, email, password string) (*entity.User, error)
	Login(ctx context.Context, email, password string, session service.SessionWriter) (*dto.LoginResult, error)
	LoginWithGoogle(ctx context.Context, principal *service.GoogleUser, session service.SessionWriter) (*entity.User, error)
	ConfirmEmail(ctx context.Context, userID, token string) (*entity.User, error)
	InitiatePasswordReset(ctx context.Context, email string) error
	VerifyPasswordResetToken(ctx context.Context, token string) (bool, error)
	ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error
	ResendEmailConfirmationByEmail(ctx context.Context, email string) error
	Logout(ctx context.Context, userID uuid.UUID, session service.SessionWriter) error
}

type AuthController struct {
	authService authService
	cfg         *config.Config
}

func NewAuthController(authService authService, cfg *config.Config) *AuthController {
	return &AuthController{authService: authService, cfg: cfg}
}

func (c *AuthController) Register(ctx echo.Context) error {
	var req httpdto.RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Register validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Register request received")
	user, err := c.authService.Register(ctx.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailInUse) || errors.Is(err, service.ErrUsernameInUse) {
			logrus.WithField("email", req.Email).Warn("Register failed: conflict")
			return ctx.JSON(http.StatusConflict, httpdto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Register failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")

	return ctx.JSON(http.StatusCreated, httpdto.RegisterResponse{
		UserID:   user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
		Message:  "account created, please check your email to confirm your account",
	})
}

func (c *AuthController) Login(ctx echo.Context) error {
	var req httpdto.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Login validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Login request received")
	session := NewSessionCookies(ctx, c.cfg.IsDevelopment())
	result, err := c.authService.Login(ctx.Request().Context(), req.Email, req.Password, session)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logrus.WithField("email", req.Email).Warn("Login failed: invalid credentials")
			return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: err.Error()})
		}
		if errors.Is(err, service.ErrEmailNotConfirmed) {
			logrus.WithField("email", req.Email).Warn("Login failed: email not confirmed")
			return ctx.JSON(http.StatusForbidden, httpdto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Login failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("email", req.Email).Info("Login successful")
	return ctx.JSON(http.StatusOK, httpdto.LoginResponse{
		RefreshToken:          result.RefreshToken,
		RefreshTokenExpiresAt: result.RefreshTokenExpiresAt,
		Message:               "login successful",
	})
}

func (c *AuthController) Logout(ctx echo.Context) error {
	userID, ok := ctx.Get("user_id").(uuid.UUID)
	if !ok {
		logrus.Warn("Logout failed: missing user_id in context")
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	logrus.WithField("user_id", userID).Info("Logout request received")
	session := NewSessionCookies(ctx, c.cfg.IsDevelopment())
	if err := c.authService.Logout(ctx.Request().Context(), userID, session); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Logout failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("user_id", userID).Info("Logout successful")
	return ctx.JSON(http.StatusOK, httpdto.LogoutResponse{Message: "logged out successfully"})
}

func (c *AuthController) ConfirmEmail(ctx echo.Context) error {
	userID := ctx.QueryParam("userId")
	token := ctx.QueryParam("token")
	if userID == "" || token == "" {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "userId and token are required"})
	}

	user, err := c.authService.ConfirmEmail(ctx.Request().Context(), userID, token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			logrus.WithField("user_id", userID).Warn("Email confirmation failed: invalid token")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "email confirmation failed"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Email confirmation failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("user_id", user.ID).Info("Email confirmed")
	if c.cfg.FrontendURL != "" {
		redirect := fmt.Sprintf("%s/verify-success?verifiedEmail=%s", c.cfg.FrontendURL, url.QueryEscape(user.Email))
		return ctx.Redirect(http.StatusFound, redirect)
	}
	return ctx.JSON(http.StatusOK, map[string]string{"message": "email confirmed"})
}

func (c *AuthController) ForgotPassword(ctx echo.Context) error {
	var req httpdto.ForgotPasswordRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind forgot password request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Password reset requested")
	err := c.authService.InitiatePasswordReset(ctx.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, service.ErrEmailNotVerified) {
			logrus.WithField("email", req.Email).Warn("Password reset blocked: email not verified")
			return ctx.JSON(http.StatusForbidden, httpdto.ErrorResponse{Error: err.Error()})
		}
		if errors.Is(err, service.ErrResetInProgress) {
			logrus.WithField("email", req.Email).Warn("Password reset already in progress")
			return ctx.JSON(http.StatusConflict, httpdto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Password reset initiation failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "an error occurred while processing your request, please try again later"})
	}

	return ctx.JSON(http.StatusOK, httpdto.ForgotPasswordResponse{
		Message: "if an account with that email exists, a password reset link has been sent",
	})
}

func (c *AuthController) VerifyResetToken(ctx echo.Context) error {
	token := ctx.QueryParam("token")

	valid, err := c.authService.VerifyPasswordResetToken(ctx.Request().Context(), token)
	if err != nil {
		logrus.WithError(err).Error("Reset token verification failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}
	return ctx.JSON(http.StatusOK, httpdto.VerifyResetTokenResponse{Valid: valid})
}

func (c *AuthController) ResetPassword(ctx echo.Context) error {
	var req httpdto.ResetPasswordRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind reset password request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	err := c.authService.ResetPassword(ctx.Request().Context(), req.Token, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		if errors.Is(err, service.ErrResetTokenRequired) || errors.Is(err, service.ErrPasswordMismatch) {
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
		}
		if errors.Is(err, service.ErrInvalidResetToken) {
			logrus.Warn("Password reset failed: invalid or expired token")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).Error("Password reset failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.Info("Password reset completed")
	return ctx.JSON(http.StatusOK, httpdto.ResetPasswordResponse{Message: "password has been reset successfully"})
}

func (c *AuthController) ResendConfirmation(ctx echo.Context) error {
	var req httpdto.ResendConfirmationRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind resend confirmation request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	err := c.authService.ResendEmailConfirmationByEmail(ctx.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: err.Error()})
		}
		if errors.Is(err, service.ErrEmailAlreadyConfirmed) {
			logrus.WithField("email", req.Email).Warn("Resend confirmation failed: already confirmed")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Resend confirmation failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, httpdto.ResendConfirmationResponse{Message: "confirmation email sent"})
}
