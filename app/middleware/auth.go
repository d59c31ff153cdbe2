package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/codelens-app/auth-service/app/service"
)

type accessTokenValidator interface {
	ValidateAccessToken(tokenString string) (*service.AccessClaims, error)
}

type AuthMiddleware struct {
	tokens accessTokenValidator
}

func NewAuthMiddleware(tokens accessTokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth accepts the access token either from the ACCESS_TOKEN cookie
// (how the login flow delivers it) or from a bearer Authorization header.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString := accessTokenFromRequest(c)
		if tokenString == "" {
			logrus.Debug("Missing access token")
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "missing access token",
			})
		}

		claims, err := m.tokens.ValidateAccessToken(tokenString)
		if err != nil {
			logrus.Debug("Invalid or expired access token")
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "invalid or expired token",
			})
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			logrus.Debug("Access token carries a malformed subject")
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "invalid or expired token",
			})
		}

		c.Set("user_id", userID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)

		return next(c)
	}
}

func accessTokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(service.AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
