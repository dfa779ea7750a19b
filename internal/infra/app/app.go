package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/core/port"
	"github.com/oneeyedreaper/onboard/internal/infra/config"
	"github.com/oneeyedreaper/onboard/internal/infra/database"
	kafkainfra "github.com/oneeyedreaper/onboard/internal/infra/kafka"
	"github.com/oneeyedreaper/onboard/internal/infra/logger"
	"github.com/oneeyedreaper/onboard/internal/infra/mail"
	redisinfra "github.com/oneeyedreaper/onboard/internal/infra/redis"
	"github.com/oneeyedreaper/onboard/internal/infra/security"
	"github.com/oneeyedreaper/onboard/internal/infra/storage"
	"github.com/oneeyedreaper/onboard/internal/infra/telemetry"
	"github.com/oneeyedreaper/onboard/internal/repository/cache"
	"github.com/oneeyedreaper/onboard/internal/repository/memory"
	postgresrepo "github.com/oneeyedreaper/onboard/internal/repository/postgres"
	redisrepo "github.com/oneeyedreaper/onboard/internal/repository/redis"
	"github.com/oneeyedreaper/onboard/internal/transport/http/handlers"
	"github.com/oneeyedreaper/onboard/internal/transport/http/middleware"
	"github.com/oneeyedreaper/onboard/internal/transport/http/routes"
	"github.com/oneeyedreaper/onboard/internal/usecase"
)

// Application owns the HTTP server and every connection it depends on.
type Application struct {
	cfg     *config.AppConfig
	engine  *gin.Engine
	logger  *zap.Logger
	closers []func(context.Context) error
}

// New wires repositories, services and transport from cfg.
func New(ctx context.Context, cfg *config.AppConfig, version string) (_ *Application, err error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &Application{cfg: cfg, logger: log}
	defer func() {
		if err != nil {
			a.close(context.Background())
		}
	}()

	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, version, log)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	a.onClose(tp.Shutdown)

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	a.onClose(func(context.Context) error {
		pool.Close()
		return nil
	})

	issuer, err := security.NewJWTIssuer(security.JWTConfig{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Issuer:        cfg.JWT.Issuer,
		AccessTTL:     cfg.JWT.AccessTokenTTL,
		RefreshTTL:    cfg.JWT.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("init jwt issuer: %w", err)
	}

	hasher, err := newHasher(cfg.Argon2)
	if err != nil {
		return nil, err
	}

	checks := map[string]handlers.CheckFunc{"postgres": pool.Ping}

	var limitStore port.RateLimitStore
	if cfg.Redis.Enabled {
		redisClient, err := redisinfra.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		a.onClose(func(context.Context) error { return redisClient.Close() })
		checks["redis"] = redisClient.HealthCheck
		limitStore = redisrepo.NewRateLimitRepository(redisClient.Client(), cfg.Redis.KeyPrefix)
	} else {
		log.Info("redis disabled, rate limiting uses process memory")
		limitStore = memory.NewRateLimitStore(time.Minute)
	}

	events, err := a.newEventPublisher(cfg, log)
	if err != nil {
		return nil, err
	}

	objects, err := newObjectStorage(ctx, cfg.Storage, log)
	if err != nil {
		return nil, err
	}

	var mailer port.Mailer
	if cfg.SMTP.Host != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTP, cfg.App.Name, log)
	} else {
		log.Info("smtp host not configured, emails are logged")
		mailer = mail.NewLogMailer(log)
	}

	metrics := telemetry.NewMetrics()
	repos := postgresrepo.NewRepositories(pool)
	catalog := cache.NewStepCatalog(repos.Onboarding, cfg.App.CatalogCacheTTL)
	policy := security.DefaultPasswordValidator()

	tokens := usecase.NewTokenService(issuer, repos.Tokens, repos, log)
	authService := usecase.NewAuthService(repos.Clients, repos, tokens, hasher, policy, mailer, events, usecase.AuthSettings{
		FrontendURL:          cfg.App.FrontendURL,
		PasswordResetTTL:     cfg.Tokens.PasswordResetTTL,
		EmailVerificationTTL: cfg.Tokens.EmailVerificationTTL,
	}, log)
	profileService := usecase.NewProfileService(repos.Clients, repos.Onboarding, repos.Documents, tokens, hasher, policy, objects, log)
	onboardingService := usecase.NewOnboardingService(repos.Onboarding, catalog, repos, events, log).WithMetrics(metrics)
	documentService := usecase.NewDocumentService(repos.Documents, objects, events, usecase.DocumentSettings{
		MaxFileSize:  cfg.Storage.MaxFileSize,
		AllowedTypes: cfg.Storage.AllowedTypes,
	}, log).WithMetrics(metrics)
	adminService := usecase.NewAdminService(repos.Clients, repos.Onboarding, repos.Documents, repos.Activity, repos.Stats, repos, events, log).WithMetrics(metrics)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(limitStore, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window, log).WithNotifier(metrics)
	}

	a.engine = routes.Register(routes.Dependencies{
		Config:        cfg,
		Logger:        log,
		Authenticator: tokens,
		Clients:       repos.Clients,
		RateLimiter:   limiter,
		Metrics:       metrics,
		Tracer:        tp.Tracer(telemetry.TracerName),
		Checks:        checks,
		Services: routes.ServiceSet{
			Auth:       authService,
			Profiles:   profileService,
			Onboarding: onboardingService,
			Documents:  documentService,
			Admin:      adminService,
		},
	})
	return a, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting onboarding API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	timeout := a.cfg.App.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		a.close(shutdownCtx)
		if err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		a.close(context.Background())
		return err
	}
}

// SeedAdmin creates the configured administrator account if it does not exist yet.
func SeedAdmin(ctx context.Context, cfg *config.AppConfig, account usecase.AdminAccount) (*domain.Client, bool, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, false, fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, false, fmt.Errorf("init postgres: %w", err)
	}
	defer pool.Close()

	hasher, err := newHasher(cfg.Argon2)
	if err != nil {
		return nil, false, err
	}

	seeder := usecase.NewAdminSeeder(postgresrepo.NewClientRepository(pool), hasher, security.DefaultPasswordValidator(), log)
	return seeder.EnsureAdmin(ctx, account)
}

func (a *Application) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// close releases resources in reverse order of acquisition.
func (a *Application) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("failed to release resource", zap.Error(err))
		}
	}
	a.closers = nil
}

func (a *Application) newEventPublisher(cfg *config.AppConfig, log *zap.Logger) (port.EventPublisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("kafka brokers not configured, using stub publisher")
		return kafkainfra.NewStubPublisher(log), nil
	}

	producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
	if err != nil {
		log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
		return kafkainfra.NewStubPublisher(log), nil
	}
	a.onClose(func(context.Context) error { return producer.Close() })
	log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	return kafkainfra.NewEventPublisher(producer, cfg.App, log), nil
}

func newObjectStorage(ctx context.Context, cfg config.StorageSettings, log *zap.Logger) (port.ObjectStorage, error) {
	if cfg.Bucket == "" {
		log.Info("storage bucket not configured, presigned uploads disabled")
		return storage.NewDisabled(log), nil
	}
	s3, err := storage.NewS3Storage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	return s3, nil
}

func newHasher(cfg config.Argon2Settings) (*security.Argon2Hasher, error) {
	hasher, err := security.NewArgon2Hasher(port.Argon2Params{
		Memory:      cfg.Memory,
		Iterations:  cfg.Iterations,
		Parallelism: cfg.Parallelism,
		SaltLength:  cfg.SaltLength,
		KeyLength:   cfg.KeyLength,
	})
	if err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}
	return hasher, nil
}
