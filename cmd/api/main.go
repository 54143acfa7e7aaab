package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	_ "github.com/ukrch/platform/docs" // Swagger docs (generated)
	"github.com/ukrch/platform/internal/avatar"
	"github.com/ukrch/platform/internal/config"
	"github.com/ukrch/platform/internal/database"
	"github.com/ukrch/platform/internal/email"
	httpServer "github.com/ukrch/platform/internal/http"
	"github.com/ukrch/platform/internal/identity"
	"github.com/ukrch/platform/internal/logging"
	"github.com/ukrch/platform/internal/newsletter"
	"github.com/ukrch/platform/internal/profile"
	"github.com/ukrch/platform/internal/ratelimit"
	"github.com/ukrch/platform/internal/sms"
	"github.com/ukrch/platform/internal/validation"
	"github.com/ukrch/platform/internal/verification"
)

// @title           UkrCH Community Platform API
// @version         1.0
// @description     Account onboarding for the community platform: sign-up, email confirmation, phone verification and profile completion.

// @contact.name   API Support
// @contact.email  support@ukrch.example

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"token_strategy", cfg.Auth.TokenStrategy,
		"refresh_store", cfg.Auth.RefreshStore,
	)

	sqlDB, err := database.Open(cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer sqlDB.Close()

	if err := database.Migrate(context.Background(), sqlDB); err != nil {
		return err
	}
	db := database.NewBunDB(sqlDB)

	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Repositories and stores
	accounts := identity.NewRepository(db)
	profiles := profile.NewRepository(db)
	refreshTokens, err := identity.NewRefreshTokenStore(cfg.Auth.RefreshStore, redisClient, db)
	if err != nil {
		return err
	}
	resetTokens := identity.NewPasswordResetStore(redisClient)
	rateLimiter := ratelimit.NewLimiter(redisClient)

	tokens, err := identity.NewTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	mailer, err := newMailer(cfg, logger)
	if err != nil {
		return err
	}

	identityService := identity.NewService(
		accounts,
		refreshTokens,
		resetTokens,
		tokens,
		mailer,
		logger,
		cfg.Auth.AccessTokenDuration,
		cfg.Auth.RefreshTokenDuration,
	)

	newsletterService := newsletter.NewService(
		newsletter.NewClient(cfg.Newsletter.APIKey, cfg.Newsletter.BaseURL),
		cfg.Newsletter.AudienceName,
	)
	if cfg.Newsletter.APIKey == "" {
		logger.Warn("newsletter provider not configured")
	}

	workflow := verification.NewWorkflow(
		identityService,
		profiles,
		sms.New(cfg.SMS, cfg.Server.IsDevelopment(), logger),
		newsletterService,
		logger,
	)

	if !cfg.Storage.Configured() {
		logger.Warn("avatar storage not configured")
	}

	secureCookies := !cfg.Server.IsDevelopment()
	router := httpServer.NewRouter(cfg, httpServer.Handlers{
		Identity: identity.NewHandler(
			identityService,
			rateLimiter,
			secureCookies,
			cfg.Auth.AccessTokenDuration,
			cfg.Auth.RefreshTokenDuration,
		),
		Auth:         identity.NewMiddleware(tokens),
		Workflow:     workflow,
		Verification: verification.NewHandler(workflow, rateLimiter, secureCookies),
		Avatar:       avatar.NewHandler(avatar.NewService(cfg.Storage, profiles)),
		Validation:   validation.NewHandler(),
		Newsletter:   newsletter.NewHandler(newsletterService, rateLimiter),
	}, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if cfg.Logging.File == "" {
		return logging.NewLogger(cfg.Server.IsDevelopment()), nil
	}

	w, err := logging.NewFileWriter(cfg.Logging.File, cfg.Logging.MaxAge, cfg.Logging.Rotate)
	if err != nil {
		return nil, err
	}
	return logging.NewLoggerWithWriter(cfg.Server.IsDevelopment(), w), nil
}

// newMailer returns the SMTP mailer, or in development without an SMTP host
// a mailer that only logs the links.
func newMailer(cfg *config.Config, logger *logging.Logger) (identity.Mailer, error) {
	if cfg.Email.SMTPHost == "" {
		if !cfg.Server.IsDevelopment() {
			return nil, fmt.Errorf("SMTP_HOST is required when APP_ENV is %q", cfg.Server.Env)
		}
		logger.Warn("SMTP not configured, emails will be logged")
		return email.NewLogMailer(logger, cfg.Email.FrontendURL), nil
	}

	svc, err := email.NewService(cfg.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize email service: %w", err)
	}
	return svc, nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
