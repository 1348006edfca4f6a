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

	"predpraznik_backend/internal/accounts"
	"predpraznik_backend/internal/activity"
	"predpraznik_backend/internal/adapters"
	"predpraznik_backend/internal/codes"
	"predpraznik_backend/internal/companies"
	"predpraznik_backend/internal/cycles"
	"predpraznik_backend/internal/dashboard"
	"predpraznik_backend/internal/events"
	apphttp "predpraznik_backend/internal/http"
	"predpraznik_backend/internal/http/router"
	"predpraznik_backend/internal/maps"
	"predpraznik_backend/internal/pickups"
	"predpraznik_backend/internal/reminders"
	"predpraznik_backend/internal/tasks"
	"predpraznik_backend/platform/config"
	"predpraznik_backend/platform/db"
	"predpraznik_backend/platform/logger"
	"predpraznik_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "timezone", cfg.Timezone)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	applied, err := db.RunMigrations(ctx, pool)
	if err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete", "applied", applied)

	rdb := initRedis(ctx, cfg, log)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()
	pol := cfg.GetPolicy()
	loc := cfg.GetLocation()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	companiesModule := companies.NewModule(pool, eventBus, val, log)

	// Cycles and reminders reach companies only through their own ports.
	placement := adapters.NewCompanyPlacementAdapter(companiesModule.Repository())
	contracts := adapters.NewContractTrackingAdapter(companiesModule.Repository())

	codesModule := codes.NewModule(pool, eventBus, val, log)
	cyclesModule := cycles.NewModule(pool, placement, eventBus, pol, val, log)
	pickupsModule := pickups.NewModule(pool, eventBus, pol, val, log)
	remindersModule := reminders.NewModule(pool, contracts, eventBus, pol, loc, val, log)
	tasksModule := tasks.NewModule(pool, val, log)
	dashboardModule := dashboard.NewModule(pool, pol, loc, val, log)
	mapsModule := maps.NewModule(pool, rdb, pol.ClusterThreshold, val, log)
	accountsModule := accounts.NewModule(pool, cfg, val, log)

	// Activity only listens; it has no publishers of its own.
	activityModule := activity.NewModule(pool, loc, val, log)
	activityModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			codesModule,
			cyclesModule,
			companiesModule,
			pickupsModule,
			remindersModule,
			tasksModule,
			dashboardModule,
			activityModule,
			mapsModule,
			accountsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		// Let in-flight activity writes land before the pool closes.
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initRedis returns nil when Redis is not configured or unreachable; the
// address lookup cache is optional.
func initRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if !cfg.IsRedisEnabled() {
		log.Warn("REDIS_URL not configured; address lookup cache disabled")
		return nil
	}

	opts, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL; address lookup cache disabled", "error", err)
		return nil
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable; address lookup cache disabled", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// withRetry retries fn with exponential backoff, logging every failed attempt.
func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	attempt := 0
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(baseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := fn(); err != nil {
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
