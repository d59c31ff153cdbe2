package controller

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// SessionCookies implements service.SessionWriter over an echo response.
// Cookies are HttpOnly always; Secure and cross-site policy follow the
// deployment environment, not the request: outside development the pair is
// Secure with SameSite=None, in development it is Lax over plain HTTP.
type SessionCookies struct {
	ctx         echo.Context
	development bool
}

func NewSessionCookies(ctx echo.Context, development bool) *SessionCookies {
	return &SessionCookies{ctx: ctx, development: development}
}

func (s *SessionCookies) SetAuthCookie(name, token string, expiry time.Time) {
	cookie := s.buildCookie(name, token)
	cookie.Expires = expiry
	s.ctx.SetCookie(cookie)
}

func (s *SessionCookies) ClearAuthCookie(name string) {
	cookie := s.buildCookie(name, "")
	cookie.Expires = time.Unix(0, 0)
	cookie.MaxAge = -1
	s.ctx.SetCookie(cookie)
}

func (s *SessionCookies) buildCookie(name, value string) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   !s.development,
		SameSite: http.SameSiteNoneMode,
	}
	if s.development {
		cookie.SameSite = http.SameSiteLaxMode
	}
	return cookie
}
