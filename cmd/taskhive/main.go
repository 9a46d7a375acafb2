package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/taskhive/taskhive/internal/app/bootstrap"
	httpx "github.com/taskhive/taskhive/internal/http"
	"github.com/taskhive/taskhive/internal/service/account"
	"github.com/taskhive/taskhive/internal/service/task"
	"github.com/taskhive/taskhive/internal/session"
	"github.com/taskhive/taskhive/pkg/config"
	"github.com/taskhive/taskhive/pkg/crypto"
	"github.com/taskhive/taskhive/pkg/logger"
)

func main() {
	envFile := config.LoadDotenv()
	cfg := config.LoadAppConfig()
	log := logger.New("taskhive", logger.ParseLevel(cfg.LogLevel))
	if envFile != "" {
		log.Info("loaded environment file", "path", envFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, cfg, log)
	stop()
	os.Exit(code)
}

// run serves until ctx is done and returns the process exit code. Every
// resource opened here is closed before it returns.
func run(ctx context.Context, cfg config.AppConfig, log *slog.Logger) int {
	store, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		return 1
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Warn("store close failed", "error", err)
		}
	}()

	passwords, err := crypto.NewPasswords(cfg.PasswordScheme)
	if err != nil {
		log.Error("invalid password scheme", "scheme", cfg.PasswordScheme, "error", err)
		return 1
	}
	if passwords.Scheme() == crypto.SchemePlaintext {
		log.Warn("passwords are stored in plaintext, set PASSWORD_SCHEME=bcrypt to hash them")
	}

	secret := cfg.SessionSecret
	if strings.TrimSpace(secret) == "" {
		if cfg.Environment == "production" {
			log.Error("SESSION_SECRET must be set in production")
			return 1
		}
		secret = uuid.NewString()
		log.Warn("SESSION_SECRET not set, using a random secret; sessions end on restart")
	}

	sessionStore, err := bootstrap.OpenSessionStore(cfg, log)
	if err != nil {
		log.Error("failed to open session store", "error", err)
		return 1
	}
	defer sessionStore.Close()

	sessions, err := session.New(secret, cfg.CookieName, cfg.CookieSecure, cfg.SessionTTL, sessionStore)
	if err != nil {
		log.Error("failed to configure sessions", "error", err)
		return 1
	}

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.SessionRedisAddr); addr != "" && cfg.AuthRateLimit > 0 {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.SessionRedisPass, cfg.SessionRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter.Close()
			limiter = redisLimiter
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	accountSvc := account.New(store, passwords, log)
	taskSvc := task.New(store, log)
	server, err := httpx.New(log, accountSvc, taskSvc, sessions, limiter, httpx.Options{
		AuthRateLimit: cfg.AuthRateLimit,
		Location:      cfg.Location(),
		Health:        store.Ping,
		Registry:      registry,
	})
	if err != nil {
		log.Error("failed to build http server", "error", err)
		return 1
	}
	defer server.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("taskhive server starting", "addr", cfg.Addr, "env", cfg.Environment, "store", cfg.StoreDriver)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("taskhive server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			return 1
		}
	}
	return 0
}
