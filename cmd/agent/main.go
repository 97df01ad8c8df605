// Command agent runs the learner agent: it resolves the signed-in identity,
// keeps the learner's enrolled courses current and serves the local control
// API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/imene253/AI-TECH-DZ2/internal/api"
	"github.com/imene253/AI-TECH-DZ2/internal/core/ports"
	"github.com/imene253/AI-TECH-DZ2/internal/core/service"
	"github.com/imene253/AI-TECH-DZ2/internal/infrastructure/apiclient"
	"github.com/imene253/AI-TECH-DZ2/internal/infrastructure/db/memory"
	"github.com/imene253/AI-TECH-DZ2/internal/infrastructure/db/mongo"
	"github.com/imene253/AI-TECH-DZ2/internal/infrastructure/db/redis"
	"github.com/imene253/AI-TECH-DZ2/internal/infrastructure/queue"
	"github.com/imene253/AI-TECH-DZ2/internal/infrastructure/scheduler"
	"github.com/imene253/AI-TECH-DZ2/internal/pkg/config"
	"github.com/imene253/AI-TECH-DZ2/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// storageBackend bundles the durable store selected by STORAGE_DRIVER.
type storageBackend struct {
	storage ports.Storage
	watcher ports.StorageWatcher
	pinger  ports.Pinger
	close   func(ctx context.Context) error
}

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "learner-agent",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("agent stopped with error")
	}
	log.Info().Msg("agent stopped cleanly")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	backend, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	log.Info().Str("driver", cfg.StorageDriver).Msg("storage initialized")

	// --- Remote API and services ---
	client := apiclient.New(apiclient.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, backend.storage, logger.Component("apiclient"))

	enrollments := service.NewEnrollmentService(client, backend.storage, cfg.API.CourseConcurrency, logger.Component("enrollments"))
	sessions := service.NewSessionService(client, backend.storage, enrollments, logger.Component("sessions"))
	client.OnAuthExpired(func() {
		sessions.Invalidate(context.WithoutCancel(ctx))
	})

	auth := service.NewAuthService(client, backend.storage, sessions, logger.Component("auth"))
	catalog := service.NewCatalogService(client, logger.Component("catalog"))
	payments := service.NewPaymentService(client, sessions, logger.Component("payments"))

	// --- Triggers ---
	dispatcher := queue.NewDispatcher(0, sessions, enrollments, logger.Component("dispatcher"))
	dispatcher.Start(ctx)

	sched, err := scheduler.New(cfg.API.RefreshInterval, dispatcher, backend.watcher, logger.Component("scheduler"))
	if err != nil {
		return err
	}
	if err := sched.Start(ctx); err != nil {
		return err
	}

	// --- Control API ---
	probes := map[string]ports.Pinger{}
	if backend.pinger != nil {
		probes["storage"] = backend.pinger
	}
	if cfg.ControlSecret == "" {
		log.Warn().Msg("CONTROL_SECRET not set, control API is unauthenticated")
	}
	e := api.NewRouter(api.Deps{
		Auth:          auth,
		Sessions:      sessions,
		Enrollments:   enrollments,
		Catalog:       catalog,
		Payments:      payments,
		Triggers:      dispatcher,
		Probes:        probes,
		ControlSecret: cfg.ControlSecret,
		Log:           logger.Component("api"),
	})
	e.HidePort = true

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("control api listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case runErr = <-serveErr:
		if runErr != nil {
			runErr = fmt.Errorf("control api: %w", runErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	<-sched.Stop().Done()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("control api shutdown failed")
	}
	dispatcher.Wait()
	client.Close()
	return errors.Join(runErr, backend.close(shutdownCtx))
}

func openStorage(ctx context.Context, cfg *config.Config) (*storageBackend, error) {
	switch cfg.StorageDriver {
	case config.StorageRedis:
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		s := redis.NewStorage(rdb, logger.Component("storage"))
		return &storageBackend{
			storage: s,
			watcher: s,
			pinger:  s,
			close:   func(context.Context) error { return rdb.Close() },
		}, nil

	case config.StorageMongo:
		s, err := mongo.Open(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		return &storageBackend{
			storage: s,
			pinger:  s,
			close:   s.Close,
		}, nil

	case config.StorageMemory:
		s := memory.New()
		return &storageBackend{
			storage: s,
			watcher: s,
			pinger:  s,
			close:   func(context.Context) error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}
