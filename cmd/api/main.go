// Package main is the entry point of the progression API.
//
// It wires configuration, PostgreSQL, optional Redis caches behind a circuit
// breaker, the in-process event bus, the leaderboard refresh job and the
// HTTP server, then waits for SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/englishquest/quest-hub/config"
	"github.com/englishquest/quest-hub/internal/application/command"
	"github.com/englishquest/quest-hub/internal/application/eventhandler"
	"github.com/englishquest/quest-hub/internal/application/query"
	"github.com/englishquest/quest-hub/internal/domain/leaderboard"
	"github.com/englishquest/quest-hub/internal/domain/shared"
	"github.com/englishquest/quest-hub/internal/domain/user"
	"github.com/englishquest/quest-hub/internal/infrastructure/messaging"
	"github.com/englishquest/quest-hub/internal/infrastructure/persistence/postgres"
	"github.com/englishquest/quest-hub/internal/infrastructure/persistence/redis"
	"github.com/englishquest/quest-hub/internal/infrastructure/scheduler"
	"github.com/englishquest/quest-hub/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/englishquest/quest-hub/internal/interface/http"
	"github.com/englishquest/quest-hub/internal/interface/http/handlers"
	"github.com/englishquest/quest-hub/pkg/circuitbreaker"
	"github.com/englishquest/quest-hub/pkg/logger"
	"github.com/englishquest/quest-hub/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. Configuration and logging
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewFromConfig(cfg.Observability.LogLevel, logOutput(cfg.Observability.LogOutput))
	log.Info("starting quest hub API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. PostgreSQL
	// ─────────────────────────────────────────────────────────────────────────
	dbConn, err := connectDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database connection")
		dbConn.Close()
	}()

	if cfg.Database.AutoMigrate {
		if err := migrate(ctx, dbConn, log); err != nil {
			return err
		}
	}

	users := postgres.NewUserRepository(dbConn)
	achievements := postgres.NewAchievementRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. Redis (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		redisCache *redis.Cache
		userCache  user.Cache
		boardCache leaderboard.Cache
	)

	if !cfg.Redis.Disabled {
		redisCache, err = redis.NewCache(redisConfig(cfg.Redis))
		if err != nil {
			log.Warn("redis unavailable, continuing without cache", logger.Err(err))
		} else {
			defer redisCache.Close()

			redisCache.WithBreaker(circuitbreaker.CacheBreaker("redis",
				func(name string, from, to circuitbreaker.State) {
					log.Warn("circuit breaker state changed",
						logger.String("breaker", name),
						logger.String("from", from.String()),
						logger.String("to", to.String()),
					)
				},
				redis.IsBackendFailure,
			))

			if cfg.Features.IsEnabled(config.FeatureStatsCache, nil) {
				userCache = redis.NewUserCache(redisCache)
			}
			if cfg.Features.IsEnabled(config.FeatureLeaderboardCache, nil) {
				boardCache = redis.NewLeaderboardCache(redisCache, cfg.Progression.LeaderboardCacheTTL)
			}
			log.Info("redis connected",
				logger.Bool("user_cache", userCache != nil),
				logger.Bool("leaderboard_cache", boardCache != nil),
			)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. Event bus
	// ─────────────────────────────────────────────────────────────────────────
	eventBus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 4,
		Logger:         log.Slog(),
	})
	defer func() {
		if err := eventBus.Close(); err != nil {
			log.Warn("event bus close", logger.Err(err))
		}
	}()

	onLevelUp := eventhandler.NewOnLevelUpHandler(users, achievements, boardCache, log.Slog())
	if err := eventBus.Subscribe(shared.EventLevelUp, onLevelUp.Handle); err != nil {
		return fmt.Errorf("failed to subscribe level-up handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. Application handlers
	// ─────────────────────────────────────────────────────────────────────────
	getProgression := query.NewGetProgressionHandler(users, achievements, userCache, cfg.Progression.StatsCacheTTL, log)
	getLeaderboard := query.NewGetLeaderboardHandler(users, achievements, boardCache,
		cfg.Progression.LeaderboardCacheTTL, cfg.Progression.LeaderboardSize, log)
	levelUp := command.NewLevelUpHandler(users, achievements, userCache, eventBus, command.LevelUpOptions{
		AllowLegacyPromotion: cfg.Features.IsEnabled(config.FeatureLegacyPromotion, nil),
	}, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. Background jobs
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{Logger: log.Slog()})
	if boardCache != nil && cfg.Progression.LeaderboardRefreshInterval > 0 {
		refresh := jobs.NewRefreshLeaderboardJob(getLeaderboard, cfg.Progression.LeaderboardRefreshInterval, log)
		if err := sched.Register(refresh, scheduler.Every(cfg.Progression.LeaderboardRefreshInterval)); err != nil {
			return fmt.Errorf("failed to register leaderboard refresh: %w", err)
		}
		// warm the cache before the first request
		if _, err := sched.RunNow(ctx, jobs.RefreshLeaderboardName); err != nil {
			log.Warn("initial leaderboard refresh failed", logger.Err(err))
		}
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Warn("scheduler stop", logger.Err(err))
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP server
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("postgres", handlers.NewPingCheck(dbConn))
	if redisCache != nil {
		health.AddOptionalCheck("redis", handlers.NewPingCheck(redisCache))
	}

	server := httpserver.NewServer(httpserver.ConfigFrom(cfg), httpserver.Dependencies{
		GetProgressionHandler: getProgression,
		GetLeaderboardHandler: getLeaderboard,
		LevelUpHandler:        levelUp,
		AdminAuth:             handlers.NewAPIKeyAuth(cfg.HTTP.AdminKeyHashes),
		Features:              cfg.Features,
		HealthChecker:         health,
		Logger:                log,
	})
	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. Graceful shutdown
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	log.Info("shutdown completed")
	return nil
}

// connectDatabase retries the initial connection; the database often starts
// after the API in container setups.
func connectDatabase(ctx context.Context, cfg *config.Config, log *logger.Logger) (*postgres.Connection, error) {
	pgCfg := postgres.DefaultConfig(cfg.Database.URL)
	pgCfg.MaxConns = int32(cfg.Database.MaxConns)
	pgCfg.MinConns = int32(cfg.Database.MinConns)
	pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
	pgCfg.StatementTimeout = cfg.Database.QueryTimeout

	retrier := retry.ConnectRetrier(cfg.Database.ConnectAttempts).With(
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn("database not reachable, retrying",
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay),
				logger.Err(err),
			)
		}),
	)

	var conn *postgres.Connection
	err := retrier.Do(ctx, func(ctx context.Context) error {
		c, err := postgres.NewConnection(ctx, pgCfg)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("database connection established")
	return conn, nil
}

func migrate(ctx context.Context, conn *postgres.Connection, log *logger.Logger) error {
	migrator := postgres.NewMigrator(conn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	status, err := migrator.Status(ctx)
	if err != nil {
		log.Warn("failed to get migration status", logger.Err(err))
		return nil
	}

	applied := 0
	for _, m := range status {
		if m.IsApplied {
			applied++
		}
	}
	log.Info("migrations completed", logger.Int("applied", applied), logger.Int("total", len(status)))
	return nil
}

func redisConfig(c config.RedisConfig) redis.Config {
	rc := redis.DefaultConfig()
	rc.URL = c.URL
	rc.Host = c.Host
	rc.Port = c.Port
	rc.Password = c.Password
	rc.DB = c.DB
	rc.PoolSize = c.PoolSize
	rc.MinIdleConns = c.MinIdleConns
	rc.DialTimeout = c.DialTimeout
	rc.ReadTimeout = c.ReadTimeout
	rc.WriteTimeout = c.WriteTimeout
	return rc
}

func logOutput(name string) io.Writer {
	if name == "stderr" {
		return os.Stderr
	}
	return os.Stdout
}
