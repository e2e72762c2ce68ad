// Package app wires the service together and owns the HTTP server
// lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/virgantara/yii2-basic-template/internal/core/port"
	"github.com/virgantara/yii2-basic-template/internal/infra/config"
	"github.com/virgantara/yii2-basic-template/internal/infra/database"
	kafkainfra "github.com/virgantara/yii2-basic-template/internal/infra/kafka"
	"github.com/virgantara/yii2-basic-template/internal/infra/logger"
	"github.com/virgantara/yii2-basic-template/internal/infra/mail"
	redisinfra "github.com/virgantara/yii2-basic-template/internal/infra/redis"
	"github.com/virgantara/yii2-basic-template/internal/infra/security"
	"github.com/virgantara/yii2-basic-template/internal/infra/telemetry"
	postgresrepo "github.com/virgantara/yii2-basic-template/internal/repository/postgres"
	redisrepo "github.com/virgantara/yii2-basic-template/internal/repository/redis"
	"github.com/virgantara/yii2-basic-template/internal/transport/http/middleware"
	"github.com/virgantara/yii2-basic-template/internal/transport/http/routes"
	"github.com/virgantara/yii2-basic-template/internal/usecase"
)

// Application holds the wired service and its long-lived resources.
type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
}

// New builds the application graph from configuration.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	metrics, err := telemetry.Attach(cfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	if cfg.Postgres.Migrate {
		if err := database.RunMigrations(ctx, cfg.Postgres, log); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	codec, err := security.NewSessionTokenCodec(cfg.Session.Secret, cfg.App.Name)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init session codec: %w", err)
	}

	users := postgresrepo.NewUserRepository(pool)
	tokens := postgresrepo.NewTokenRepository(pool)
	settings := postgresrepo.NewSettingStore(pool)
	resets := postgresrepo.NewResetExecutor(pool)

	sessionStore := redisrepo.NewSessionStore(redisClient.Client(), cfg.Redis.SessionPrefix)

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), "site:rate-limit", rateLimitWindow*2)
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	mailer := mail.NewSMTPMailer(cfg.SMTP, cfg.App.AdminEmail, log).WithMetrics(metrics)
	passwordValidator := security.DefaultPasswordValidator()

	sessionService := usecase.NewSessionService(sessionStore, codec, cfg.Session, log)
	tokenService := usecase.NewTokenService(tokens, users, metrics, log)
	authService := usecase.NewAuthService(users, sessionService, log)
	signupService := usecase.NewSignupService(cfg, users, tokenService, sessionService, mailer, eventPublisher, passwordValidator, log)
	resetService := usecase.NewPasswordResetService(cfg, users, tokenService, resets, mailer, eventPublisher, passwordValidator, log)
	contactService := usecase.NewContactService(mailer, eventPublisher, log)

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{
		Namespace: cfg.Telemetry.MetricsNamespace,
	})
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Settings:    settings,
		Metrics:     httpMetrics,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Auth:          authService,
			Signup:        signupService,
			PasswordReset: resetService,
			Contact:       contactService,
			Sessions:      sessionService,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.pool.Close()
	defer func() {
		_ = a.redis.Close()
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting site",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("run server: %w", err)
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return <-serverErrCh
}
