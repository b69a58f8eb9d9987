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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/actuallystonmai/taste-service/internal/cache"
	"github.com/actuallystonmai/taste-service/internal/config"
	"github.com/actuallystonmai/taste-service/internal/handler"
	"github.com/actuallystonmai/taste-service/internal/logging"
	"github.com/actuallystonmai/taste-service/internal/provider"
	"github.com/actuallystonmai/taste-service/internal/provider/tmdb"
	"github.com/actuallystonmai/taste-service/internal/repository"
	"github.com/actuallystonmai/taste-service/internal/router"
	"github.com/actuallystonmai/taste-service/internal/service"
)

const (
	shutdownTimeout = 15 * time.Second
	pruneInterval   = time.Hour
)

var log = logging.Component("main")

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Timestamp: true})
	log = logging.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ------------ PostgreSQL ---------------
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse database config")
	}
	poolConfig.MaxConns = int32(cfg.DBPoolSize)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := waitForDB(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("database not ready")
	}
	log.Info().Msg("connected to PostgreSQL")

	// ------------ Run Migrations ---------------
	// for migrate-down using CLI command
	if len(os.Args) > 1 && os.Args[1] == "migrate-down" {
		if err := migrate(ctx, pool, "migrations/create_tables.down.sql"); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate down")
		}
		log.Info().Msg("migrations dropped")
		return
	}

	if err := migrate(ctx, pool, "migrations/create_tables.up.sql"); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate up")
	}

	// ------------ Redis ---------------
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse redis url")
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	store := cache.NewCache(rdb, cfg.ProfileTTL)
	if err := store.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis not reachable, profiles will rebuild until it recovers")
	}

	// ------------ Metadata provider ---------------
	repo := repository.NewRepository(pool, cfg.DetailsMaxAge)
	var upstream provider.Provider = tmdb.NewClient(tmdb.Config{
		BaseURL:           cfg.TMDBBaseURL,
		APIKey:            cfg.TMDBAPIKey,
		RequestsPerSecond: cfg.TMDBRateLimit,
		Timeout:           cfg.TMDBTimeout,
	})
	upstream = provider.WithBreaker(upstream, provider.BreakerConfig{
		Name:        "tmdb",
		MaxFailures: cfg.BreakerMaxFailures,
		Timeout:     cfg.BreakerTimeout,
	})
	upstream = provider.WithDetailsCache(upstream, repo)

	svc := service.NewService(upstream, store, service.OptionsFromConfig(cfg))

	go pruneDetails(ctx, repo)

	// ---------------- Server --------------------
	h := handler.NewHandler(svc, map[string]handler.Check{
		"postgres": repo.Ping,
		"redis":    store.Ping,
	})
	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: router.Setup(h, router.Config{
			RateLimitRequests: cfg.RateLimitRequests,
			RateLimitWindow:   cfg.RateLimitWindow,
			RequestTimeout:    cfg.RequestTimeout,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func waitForDB(ctx context.Context, pool *pgxpool.Pool) error {
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			return nil
		}
		log.Info().Int("attempt", i+1).Msg("waiting for database")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("database connection timeout after 30s")
}

func migrate(ctx context.Context, pool *pgxpool.Pool, path string) error {
	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	log.Info().Str("file", path).Msg("migration applied")
	return nil
}

// pruneDetails drops stale stored metadata until ctx ends.
func pruneDetails(ctx context.Context, repo *repository.Repository) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.Prune(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("details prune failed")
				continue
			}
			log.Debug().Int64("rows", n).Msg("pruned stale details")
		}
	}
}
