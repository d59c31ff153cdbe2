package service_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/codelens-app/auth-service/app/entity"
	"github.com/codelens-app/auth-service/app/service"
	"github.com/codelens-app/auth-service/config"
)

func newTokenConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "test-secret",
		JWTIssuer:       "codelens-auth",
		JWTAudience:     "codelens-app",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		ConfirmTokenTTL: 24 * time.Hour,
		ResetTokenTTL:   time.Hour,
	}
}

func newTokenService(t *testing.T) *service.TokenService {
	t.Helper()

	svc, err := service.NewTokenService(newTokenConfig())
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}
	return svc
}

func newTestUser() *entity.User {
	return &entity.User{
		ID:       uuid.New(),
		Username: "alice",
		Email:    "alice@example.com",
		Role:     entity.RoleUser,
	}
}

func TestNewTokenService_EmptySecret(t *testing.T) {
	cfg := newTokenConfig()
	cfg.JWTSecret = "   "

	if _, err := service.NewTokenService(cfg); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestNewTokenService_InvalidTTL(t *testing.T) {
	cfg := newTokenConfig()
	cfg.AccessTokenTTL = 0

	if _, err := service.NewTokenService(cfg); err == nil {
		t.Fatal("expected error for non-positive access token TTL")
	}
}

func TestGenerateAccessToken_Claims(t *testing.T) {
	svc := newTokenService(t)
	user := newTestUser()

	tokenString, expiry, err := svc.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("generate access token failed: %v", err)
	}

	until := time.Until(expiry)
	if until < 14*time.Minute || until > 16*time.Minute {
		t.Fatalf("expected expiry around 15m from now, got %s", until)
	}

	claims := &service.AccessClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("failed to parse access token: %v", err)
	}

	if claims.Subject != user.ID.String() {
		t.Fatalf("expected subject %s, got %s", user.ID, claims.Subject)
	}
	if claims.NameID != user.ID.String() {
		t.Fatalf("expected nameid %s, got %s", user.ID, claims.NameID)
	}
	if claims.Email != user.Email {
		t.Fatalf("expected email %s, got %s", user.Email, claims.Email)
	}
	if claims.Role != entity.RoleUser {
		t.Fatalf("expected role %s, got %s", entity.RoleUser, claims.Role)
	}
	if claims.ID == "" {
		t.Fatal("expected a jti claim")
	}
	if claims.Issuer != "codelens-auth" {
		t.Fatalf("expected issuer codelens-auth, got %s", claims.Issuer)
	}
}

func TestGenerateAccessToken_FreshJTI(t *testing.T) {
	svc := newTokenService(t)
	user := newTestUser()

	first, _, err := svc.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("generate access token failed: %v", err)
	}
	second, _, err := svc.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("generate access token failed: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct tokens for successive issues")
	}
}

func TestGenerateRefreshToken(t *testing.T) {
	svc := newTokenService(t)

	token, err := svc.GenerateRefreshToken()
	if err != nil {
		t.Fatalf("generate refresh token failed: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("refresh token is not valid base64: %v", err)
	}
	if len(raw) != 64 {
		t.Fatalf("expected 64 random bytes, got %d", len(raw))
	}

	other, err := svc.GenerateRefreshToken()
	if err != nil {
		t.Fatalf("generate refresh token failed: %v", err)
	}
	if token == other {
		t.Fatal("expected two refresh tokens to differ")
	}
}

func TestValidatePurposeToken_RoundTrip(t *testing.T) {
	svc := newTokenService(t)
	user := newTestUser()

	token, err := svc.GeneratePurposeToken(user, service.PurposeEmailConfirmation, 24*time.Hour)
	if err != nil {
		t.Fatalf("generate purpose token failed: %v", err)
	}

	if !svc.ValidatePurposeToken(user, token, service.PurposeEmailConfirmation) {
		t.Fatal("expected token to validate for the same user and purpose")
	}
}

func TestValidatePurposeToken_WrongPurpose(t *testing.T) {
	svc := newTokenService(t)
	user := newTestUser()

	token, err := svc.GeneratePurposeToken(user, "something_else", 24*time.Hour)
	if err != nil {
		t.Fatalf("generate purpose token failed: %v", err)
	}

	if svc.ValidatePurposeToken(user, token, service.PurposeEmailConfirmation) {
		t.Fatal("expected token with a different purpose to be rejected")
	}
}

func TestValidatePurposeToken_WrongUser(t *testing.T) {
	svc := newTokenService(t)
	user := newTestUser()

	token, err := svc.GeneratePurposeToken(user, service.PurposeEmailConfirmation, 24*time.Hour)
	if err != nil {
		t.Fatalf("generate purpose token failed: %v", err)
	}

	other := newTestUser()
	if svc.ValidatePurposeToken(other, token, service.PurposeEmailConfirmation) {
		t.Fatal("expected token to be rejected for a different user")
	}
}

func TestValidatePurposeToken_Expired(t *testing.T) {
	svc := newTokenService(t)
	user := newTestUser()

	token, err := svc.GeneratePurposeToken(user, service.PurposeEmailConfirmation, -time.Minute)
	if err != nil {
		t.Fatalf("generate purpose token failed: %v", err)
	}

	if svc.ValidatePurposeToken(user, token, service.PurposeEmailConfirmation) {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestValidatePurposeToken_WrongSignature(t *testing.T) {
	cfg := newTokenConfig()
	cfg.JWTSecret = "other-secret"
	other, err := service.NewTokenService(cfg)
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}

	user := newTestUser()
	token, err := other.GeneratePurposeToken(user, service.PurposeEmailConfirmation, 24*time.Hour)
	if err != nil {
		t.Fatalf("generate purpose token failed: %v", err)
	}

	svc := newTokenService(t)
	if svc.ValidatePurposeToken(user, token, service.PurposeEmailConfirmation) {
		t.Fatal("expected token signed with a different secret to be rejected")
	}
}

func TestValidateAccessToken_Invalid(t *testing.T) {
	svc := newTokenService(t)

	if _, err := svc.ValidateAccessToken("not-a-token"); err == nil {
		t.Fatal("expected error for malformed access token")
	}
}

func TestValidateAccessToken_RoundTrip(t *testing.T) {
	svc := newTokenService(t)
	user := newTestUser()

	token, _, err := svc.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("generate access token failed: %v", err)
	}

	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("validate access token failed: %v", err)
	}
	if claims.Subject != user.ID.String() {
		t.Fatalf("expected subject %s, got %s", user.ID, claims.Subject)
	}
}
