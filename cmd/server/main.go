package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	specpkg "github.com/estokealo/estokealo/api"
	"github.com/estokealo/estokealo/internal/account"
	"github.com/estokealo/estokealo/internal/api"
	"github.com/estokealo/estokealo/internal/api/middleware"
	"github.com/estokealo/estokealo/internal/authflow"
	"github.com/estokealo/estokealo/internal/config"
	"github.com/estokealo/estokealo/internal/database"
	"github.com/estokealo/estokealo/internal/guard"
	"github.com/estokealo/estokealo/internal/mail"
	"github.com/estokealo/estokealo/internal/membership"
	"github.com/estokealo/estokealo/internal/metrics"
	"github.com/estokealo/estokealo/internal/password"
	"github.com/estokealo/estokealo/internal/revocation"
	"github.com/estokealo/estokealo/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")
	}

	store := account.NewStore(db.Pool())
	if err := store.SeedRoleFunctions(ctx, account.DefaultRoleFunctions); err != nil {
		return fmt.Errorf("seeding role functions: %w", err)
	}

	registry, closeRegistry, err := initRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRegistry()

	policy := revocation.FailOpen
	if cfg.RevocationFailClosed {
		policy = revocation.FailClosed
	}
	checker := revocation.NewChecker(registry, policy, slog.Default())

	tokens, err := token.NewService(token.Config{
		Secret:          cfg.JWTSecretKey,
		AccessTTL:       cfg.AccessTokenExpires,
		VerificationTTL: cfg.VerificationTokenExpires,
	})
	if err != nil {
		return err
	}

	mailer, err := mail.New(mail.Config{
		Mode:         cfg.EmailMode,
		From:         mail.Address{Name: cfg.EmailSenderName, Email: cfg.EmailSenderAddress},
		APIURL:       cfg.EmailAPIURL,
		APIKey:       cfg.EmailAPIKey,
		SMTPHost:     cfg.SMTPHost,
		SMTPPort:     cfg.SMTPPort,
		SMTPUsername: cfg.SMTPUsername,
		SMTPPassword: cfg.SMTPPassword,
	}, slog.Default())
	if err != nil {
		return fmt.Errorf("configuring email: %w", err)
	}

	m := metrics.New(cfg.Version)
	flow := authflow.New(authflow.Deps{
		Store:       store,
		Tokens:      tokens,
		Revocations: checker,
		Hasher:      password.NewHasher(cfg.BcryptCost),
		Mailer:      mailer,
		Logger:      slog.Default(),
		Observer:    m,
	})
	members := membership.New(membership.Deps{Store: store, Mailer: mailer, Logger: slog.Default()})

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).TrustProxy(cfg.TrustProxy)
	go limiter.Run(ctx)

	router := api.NewRouter(api.RouterDeps{
		Flow:        flow,
		Members:     members,
		Guard:       guard.New(tokens, checker, store),
		DBPinger:    db,
		RevPinger:   checker,
		Metrics:     m,
		RateLimiter: limiter,
		Version:     cfg.Version,
		OpenAPISpec: specpkg.OpenAPISpec,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting estokealo server", "port", cfg.Port, "version", cfg.Version, "emailMode", cfg.EmailMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-serverErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// initRegistry connects the Redis revocation registry when REDIS_URL is set
// and falls back to an in-process registry otherwise.
func initRegistry(ctx context.Context, cfg *config.Config) (revocation.Registry, func(), error) {
	if cfg.RedisURL == "" {
		slog.Warn("REDIS_URL not set; revoked tokens are kept in memory and lost on restart")
		registry := revocation.NewMemoryRegistry(nil)
		go registry.Run(ctx, time.Minute)
		return registry, func() {}, nil
	}

	client, err := revocation.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return revocation.NewRedisRegistry(client, nil), func() {
		if err := client.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}, nil
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
