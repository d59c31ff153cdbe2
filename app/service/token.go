package service

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/codelens-app/auth-service/app/entity"
	"github.com/codelens-app/auth-service/config"
)

// PurposeEmailConfirmation is the only purpose-scoped token in use. Password
// resets deliberately use an opaque random token instead of a signed one, so
// the token can serve as a cache key that the holder cannot re-derive.
const PurposeEmailConfirmation = "email_confirmation"

const refreshTokenBytes = 64

type AccessClaims struct {
	Email  string `json:"email"`
	NameID string `json:"nameid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type purposeClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies all token families. It holds no state
// besides the signing configuration, which is validated once at construction
// so a malformed secret fails the process at startup instead of producing
// unsigned tokens per request.
type TokenService struct {
	secret    []byte
	issuer    string
	audience  string
	accessTTL time.Duration
}

func NewTokenService(cfg *config.Config) (*TokenService, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("jwt signing secret must not be empty")
	}
	if strings.TrimSpace(cfg.JWTIssuer) == "" {
		return nil, errors.New("jwt issuer must not be empty")
	}
	if strings.TrimSpace(cfg.JWTAudience) == "" {
		return nil, errors.New("jwt audience must not be empty")
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, errors.New("access token ttl must be positive")
	}

	return &TokenService{
		secret:    []byte(cfg.JWTSecret),
		issuer:    cfg.JWTIssuer,
		audience:  cfg.JWTAudience,
		accessTTL: cfg.AccessTokenTTL,
	}, nil
}

// GenerateAccessToken mints the short-lived signed token carrying identity
// and the single role claim, with a fresh random jti per token.
func (s *TokenService) GenerateAccessToken(user *entity.User) (string, time.Time, error) {
	now := time.Now().UTC()
	expiry := now.Add(s.accessTTL)

	claims := &AccessClaims{
		Email:  user.Email,
		NameID: user.ID.String(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiry, nil
}

// GenerateRefreshToken returns an opaque credential: 64 bytes from a
// cryptographically secure source, base64-encoded. Expiry is tracked by the
// caller on the user row, not inside the token.
func (s *TokenService) GenerateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

func (s *TokenService) GeneratePurposeToken(user *entity.User, purpose string, lifetime time.Duration) (string, error) {
	now := time.Now().UTC()

	claims := &purposeClaims{
		Email:   user.Email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidatePurposeToken verifies signature, issuer, audience and expiry (zero
// clock-skew tolerance), then matches the embedded purpose and subject. Any
// parse or verification failure is reported as plain false; the caller never
// learns why a token was rejected.
func (s *TokenService) ValidatePurposeToken(user *entity.User, tokenString, expectedPurpose string) bool {
	claims := &purposeClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(0),
	)
	if err != nil || !token.Valid {
		return false
	}
	return claims.Purpose == expectedPurpose && claims.Subject == user.ID.String()
}

func (s *TokenService) ValidateAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(0),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.secret, nil
}
