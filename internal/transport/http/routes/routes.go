package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/virgantara/yii2-basic-template/internal/core/port"
	"github.com/virgantara/yii2-basic-template/internal/infra/config"
	"github.com/virgantara/yii2-basic-template/internal/transport/http/handlers"
	"github.com/virgantara/yii2-basic-template/internal/transport/http/middleware"
	"github.com/virgantara/yii2-basic-template/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth          *usecase.AuthService
	Signup        *usecase.SignupService
	PasswordReset *usecase.PasswordResetService
	Contact       *usecase.ContactService
	Sessions      *usecase.SessionService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	Settings    port.SettingStore
	Metrics     *middleware.HTTPMetrics
	TemplateDir string
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	templateDir := deps.TemplateDir
	if templateDir == "" {
		templateDir = "web/templates"
	}
	r.LoadHTMLGlob(templateDir + "/*.html")

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	sessions := deps.Services.Sessions
	loader := middleware.NewSessionLoader(sessions, deps.Logger)
	renderer := handlers.NewRenderer(sessions)

	siteHandler := handlers.NewSiteHandler(renderer, deps.Services.Contact, sessions, deps.Logger)
	authHandler := handlers.NewAuthHandler(renderer, deps.Services.Auth, sessions, deps.Settings, deps.Logger)
	signupHandler := handlers.NewSignupHandler(renderer, deps.Services.Signup, sessions, deps.Settings, deps.Logger)
	passwordHandler := handlers.NewPasswordHandler(renderer, deps.Services.PasswordReset, sessions, deps.Logger)

	site := r.Group("/")
	site.Use(loader.Load())
	{
		site.GET("", siteHandler.Index)
		site.GET("/about", siteHandler.About)
		site.GET("/contact", siteHandler.ContactForm)
		site.POST("/contact", siteHandler.Contact)

		site.GET("/login", middleware.RequireGuest(), authHandler.LoginForm)
		site.POST("/login", append(loginMiddlewares(deps), middleware.RequireGuest(), authHandler.Login)...)
		site.POST("/logout", middleware.RequireAuth(sessions), authHandler.Logout)
		site.GET("/account", middleware.RequireAuth(sessions), authHandler.Account)

		site.GET("/signup", middleware.RequireGuest(), signupHandler.SignupForm)
		site.POST("/signup", middleware.RequireGuest(), signupHandler.Signup)
		site.GET("/activate-account", signupHandler.Activate)

		site.GET("/request-password-reset", passwordHandler.RequestResetForm)
		site.POST("/request-password-reset", append(resetMiddlewares(deps), passwordHandler.RequestReset)...)
		site.GET("/reset-password", passwordHandler.ResetPasswordForm)
		site.POST("/reset-password", passwordHandler.ResetPassword)
	}

	return r
}

func loginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	return limitMiddleware(deps, "login_ip", deps.Config.RateLimit.LoginMaxAttempts)
}

func resetMiddlewares(deps Dependencies) []gin.HandlerFunc {
	return limitMiddleware(deps, "password_reset_ip", deps.Config.RateLimit.PasswordResetMaxAttempts)
}

func limitMiddleware(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	return []gin.HandlerFunc{deps.RateLimiter.Limit(middleware.RateLimitRule{
		Name:   name,
		Limit:  limit,
		Window: window,
	})}
}
