// Package main is the entrypoint for the Tasklist API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/tasklist/tasklist/internal/auth"
	"github.com/tasklist/tasklist/internal/cache"
	"github.com/tasklist/tasklist/internal/config"
	"github.com/tasklist/tasklist/internal/handler"
	"github.com/tasklist/tasklist/internal/metrics"
	"github.com/tasklist/tasklist/internal/repository"
	"github.com/tasklist/tasklist/internal/server"
	"github.com/tasklist/tasklist/internal/service"
	"github.com/tasklist/tasklist/internal/store"
	"github.com/tasklist/tasklist/internal/store/memory"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	issuer, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret: cfg.JWTSecret,
		KeyID:  cfg.JWTKeyID,
		Issuer: cfg.TokenIssuer,
		TTL:    cfg.TokenTTL,
	})
	if err != nil {
		logger.Error("invalid token configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	backend, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store",
			slog.String("backend", cfg.StoreBackend),
			slog.String("error", sanitizeError(err, cfg.DatabaseURL, cfg.RedisURL)),
		)
		os.Exit(1)
	}

	recorder := metrics.NewInMemory()
	hasher := auth.NewPasswordHasher(auth.DefaultArgon2Params)

	authService := service.NewAuthService(backend, hasher, issuer, recorder, logger)
	taskService := service.NewTaskService(backend, recorder, logger)

	r := handler.NewRouter(handler.RouterConfig{
		Logger:             logger,
		AuthService:        authService,
		TaskService:        taskService,
		Store:              backend,
		Backend:            cfg.StoreBackend,
		Metrics:            recorder,
		IsDevelopment:      cfg.IsDevelopment(),
		CORSAllowedOrigins: cfg.GetCORSAllowedOrigins(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	srv.OnShutdown(cfg.StoreBackend, closeStore)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store", cfg.StoreBackend,
		"token_ttl", issuer.TTL().String(),
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openStore connects the configured backend and returns it with its closer.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Backend, server.ShutdownFunc, error) {
	switch cfg.StoreBackend {
	case store.BackendPostgres:
		if cfg.MigrateOnStart {
			if err := repository.Migrate(ctx, cfg.DatabaseURL); err != nil {
				return nil, nil, fmt.Errorf("migrate: %w", err)
			}
			logger.Info("database migrations applied")
		}

		repo, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to database", slog.String("database_url", redactURL(cfg.DatabaseURL)))
		return repo, func(context.Context) error {
			repo.Close()
			return nil
		}, nil

	case store.BackendRedis:
		c, err := cache.New(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to Redis", slog.String("redis_url", redactURL(cfg.RedisURL)))
		return c, func(context.Context) error {
			return c.Close()
		}, nil

	case store.BackendMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return memory.New(), func(context.Context) error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
