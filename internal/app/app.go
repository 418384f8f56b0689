package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/lmring/lmring/internal/config"
	"github.com/lmring/lmring/internal/health"
	"github.com/lmring/lmring/internal/observability"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	DB            *gorm.DB
	Redis         redis.UniversalClient
	Readiness     *health.ProbeRunner
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server, runtime *observability.Runtime, db *gorm.DB, redisClient redis.UniversalClient, readiness *health.ProbeRunner) *App {
	return &App{
		Config:        cfg,
		Logger:        logger,
		Server:        server,
		Observability: runtime,
		DB:            db,
		Redis:         redisClient,
		Readiness:     readiness,
	}
}

// Run serves until ctx is cancelled, then shuts everything down. A listener
// failure is returned after cleanup.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server starting", "addr", a.Server.Addr, "base_url", a.Config.BaseURL)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	case serveErr = <-errCh:
		if serveErr != nil {
			a.Logger.Error("http server failed", "error", serveErr)
		}
	}
	a.Shutdown()
	return serveErr
}

// Shutdown drains in-flight HTTP requests. Telemetry, Redis and the database
// belong to the injector's cleanup, which runs after this returns.
func (a *App) Shutdown() {
	totalCtx, totalCancel := context.WithTimeout(context.Background(), orDefault(a.Config.ShutdownTimeout, 20*time.Second))
	defer totalCancel()

	httpCtx, httpCancel := context.WithTimeout(totalCtx, orDefault(a.Config.ShutdownHTTPDrainTimeout, 10*time.Second))
	defer httpCancel()
	if err := a.Server.Shutdown(httpCtx); err != nil {
		a.Logger.Error("failed to shutdown http server", "error", err)
	}
	a.Logger.Info("http server drained")
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
