package controller

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	httpdto "github.com/codelens-app/auth-service/app/dto/http"
	"github.com/codelens-app/auth-service/app/service"
	"github.com/codelens-app/auth-service/config"
)

const (
	googleStateCookie = "OAUTH_STATE"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// GoogleController runs the OAuth authorization-code dance. Verification of
// the identity happens here at the boundary; the auth service only ever sees
// a validated service.GoogleUser.
type GoogleController struct {
	authService authService
	oauth       *oauth2.Config
	cfg         *config.Config
}

func NewGoogleController(svc authService, cfg *config.Config) *GoogleController {
	return &GoogleController{
		authService: svc,
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		cfg: cfg,
	}
}

// LoginWithGoogle redirects the browser to Google's consent screen with a
// random state bound to the session for CSRF protection.
func (c *GoogleController) LoginWithGoogle(ctx echo.Context) error {
	if c.oauth.ClientID == "" || c.oauth.ClientSecret == "" {
		logrus.Error("Google login requested but OAuth is not configured")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "google login is not configured"})
	}

	state, err := generateState()
	if err != nil {
		logrus.WithError(err).Error("Failed to generate oauth state")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	ctx.SetCookie(&http.Cookie{
		Name:     googleStateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Secure:   !c.cfg.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
	})

	return ctx.Redirect(http.StatusFound, c.oauth.AuthCodeURL(state))
}

// GoogleCallback exchanges the code, fetches the userinfo document, and hands
// the fixed principal struct to the auth service. On success the browser is
// sent back to the client application with the basic profile in the query.
func (c *GoogleController) GoogleCallback(ctx echo.Context) error {
	stateCookie, err := ctx.Cookie(googleStateCookie)
	if err != nil || stateCookie.Value == "" || ctx.QueryParam("state") != stateCookie.Value {
		logrus.Warn("Google callback rejected: state mismatch")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid oauth state"})
	}

	code := ctx.QueryParam("code")
	if code == "" {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "missing authorization code"})
	}

	reqCtx := ctx.Request().Context()
	token, err := c.oauth.Exchange(reqCtx, code)
	if err != nil {
		logrus.WithError(err).Warn("Google code exchange failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "failed to authenticate with google"})
	}

	principal, err := c.fetchGoogleUser(reqCtx, token)
	if err != nil {
		logrus.WithError(err).Error("Google userinfo fetch failed")
		return ctx.JSON(http.StatusBadGateway, httpdto.ErrorResponse{Error: "failed to authenticate with google"})
	}

	session := NewSessionCookies(ctx, c.cfg.IsDevelopment())
	user, err := c.authService.LoginWithGoogle(reqCtx, principal, session)
	if err != nil {
		logrus.WithError(err).Error("Google login failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("Google login successful")

	if c.cfg.FrontendURL != "" {
		redirect := fmt.Sprintf("%s?email=%s&name=%s&avatar=%s",
			c.cfg.FrontendURL,
			url.QueryEscape(principal.Email),
			url.QueryEscape(principal.Name),
			url.QueryEscape(principal.PictureURL),
		)
		return ctx.Redirect(http.StatusFound, redirect)
	}
	return ctx.JSON(http.StatusOK, map[string]string{"message": "login successful"})
}

func (c *GoogleController) fetchGoogleUser(ctx context.Context, token *oauth2.Token) (*service.GoogleUser, error) {
	resp, err := c.oauth.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}

	var raw map[string]any
	if err = json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	claims := make(map[string]string, len(raw))
	for key, value := range raw {
		claims[key] = fmt.Sprint(value)
	}

	return &service.GoogleUser{
		Email:      claims["email"],
		Name:       claims["name"],
		PictureURL: claims["picture"],
		RawClaims:  claims,
	}, nil
}

func generateState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
