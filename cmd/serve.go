package cmd

import (
	"database/sql"
	"net"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/codelens-app/auth-service/app/controller"
	"github.com/codelens-app/auth-service/app/mailer"
	"github.com/codelens-app/auth-service/app/middleware"
	"github.com/codelens-app/auth-service/app/repository"
	"github.com/codelens-app/auth-service/app/service"
	"github.com/codelens-app/auth-service/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP (Echo) server exposing the authentication API.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	redisClient, err := config.NewRedisClient(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to redis")
	}
	defer redisClient.Close()

	tokenService, err := service.NewTokenService(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize token service")
	}

	postmarkMailer, err := mailer.NewPostmarkMailer(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize mailer")
	}

	userRepo := repository.NewUserRepository(db)
	resetTokenStore := repository.NewResetTokenStore(redisClient)
	authService := service.NewAuthService(userRepo, tokenService, resetTokenStore, postmarkMailer, cfg)

	startHTTPServer(cfg, authService, tokenService)
}

func startHTTPServer(cfg *config.Config, authService *service.AuthService, tokenService *service.TokenService) {
	e := echo.New()
	defer e.Close()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	authController := controller.NewAuthController(authService, cfg)
	googleController := controller.NewGoogleController(authService, cfg)
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	auth := e.Group("/api/auth")
	auth.POST("/register", authController.Register)
	auth.POST("/login", authController.Login)
	auth.GET("/confirm-email", authController.ConfirmEmail)
	auth.POST("/forgot-password", authController.ForgotPassword)
	auth.GET("/reset-password/verify", authController.VerifyResetToken)
	auth.POST("/reset-password", authController.ResetPassword)
	auth.POST("/resend-confirmation", authController.ResendConfirmation)
	auth.GET("/login-google", googleController.LoginWithGoogle)
	auth.GET("/google-callback", googleController.GoogleCallback)

	authProtected := auth.Group("")
	authProtected.Use(authMiddleware.RequireAuth)
	authProtected.POST("/logout", authController.Logout)

	httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
}
