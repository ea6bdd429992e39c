package fx

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/sp3dr4/hexlink/config"
	"github.com/sp3dr4/hexlink/internal/alias"
	"github.com/sp3dr4/hexlink/internal/application"
	"github.com/sp3dr4/hexlink/internal/domain"
	cacheImpl "github.com/sp3dr4/hexlink/internal/infrastructure/cache"
	memoryRepo "github.com/sp3dr4/hexlink/internal/infrastructure/memory"
	postgresRepo "github.com/sp3dr4/hexlink/internal/infrastructure/postgres"
	redisCache "github.com/sp3dr4/hexlink/internal/infrastructure/redis"
	ristrettoCache "github.com/sp3dr4/hexlink/internal/infrastructure/ristretto"
	sqliteRepo "github.com/sp3dr4/hexlink/internal/infrastructure/sqlite"
	"github.com/sp3dr4/hexlink/internal/pkg/logging"
	"github.com/sp3dr4/hexlink/internal/pkg/metrics"
)

// ProvideLogger creates the JSON application logger and installs it as the
// slog default.
func ProvideLogger(cfg *config.Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logging.ParseLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)
	return logger
}

// ProvideRepository creates the appropriate repository based on configuration
func ProvideRepository(cfg *config.Config, logger *slog.Logger) (domain.URLRepository, error) {
	switch cfg.Database.Type {
	case "memory":
		logger.Info("Using in-memory repository")
		return memoryRepo.NewURLRepository(), nil

	case "sqlite":
		path := cfg.GetDatabaseURL()
		logger.Info("Using SQLite repository", "path", path)

		db, err := sqliteRepo.Open(path)
		if err != nil {
			return nil, err
		}
		return sqliteRepo.NewURLRepository(db), nil

	case "postgres":
		logger.Info("Using PostgreSQL repository")

		db, err := postgresRepo.Open(cfg.GetDatabaseURL())
		if err != nil {
			return nil, err
		}
		return postgresRepo.NewURLRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
}

// ProvideCache selects the cache backend. A Redis server that is down at
// startup is not fatal; lookups report it as unavailable until it returns.
func ProvideCache(cfg *config.Config, logger *slog.Logger) (domain.Cache, error) {
	if !cfg.Cache.Enabled {
		logger.Info("Caching disabled")
		return cacheImpl.NewNoOpCache(), nil
	}

	switch cfg.Cache.Type {
	case "redis":
		logger.Info("Using Redis cache", "addr", cfg.Cache.Redis.Addr, "ttl", cfg.Cache.TTL)
		return redisCache.NewRedisCache(newRedisClient(cfg.Cache.Redis)), nil

	case "ristretto":
		logger.Info("Using in-process cache", "max_entries", cfg.Cache.Ristretto.MaxEntries, "ttl", cfg.Cache.TTL)
		c, err := ristrettoCache.NewCache(cfg.Cache.Ristretto.MaxEntries)
		if err != nil {
			return nil, err
		}
		return c, nil

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Cache.Type)
	}
}

func newRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
}

func ProvideAliasGenerator(cfg *config.Config) (alias.Generator, error) {
	gen, err := alias.NewHexGenerator(cfg.Shortener.AliasLength)
	if err != nil {
		return nil, err
	}
	return gen, nil
}

func ProvideServiceOptions(cfg *config.Config) application.Options {
	return application.Options{
		CacheTTL:    cfg.Cache.TTL,
		MaxAttempts: cfg.Shortener.MaxAttempts,
	}
}

// ProvideMetricsRegistry returns a Prometheus registry, or a no-op one when
// metrics are disabled.
func ProvideMetricsRegistry(cfg *config.Config, logger *slog.Logger) (metrics.Registry, error) {
	if !cfg.Metrics.Enabled {
		logger.Info("Metrics disabled")
		return metrics.NewNoOpRegistry(), nil
	}
	return metrics.NewPrometheusRegistry(cfg.Metrics)
}

// RepositoryParams holds the parameters needed for repository lifecycle management
type RepositoryParams struct {
	fx.In

	Repository domain.URLRepository
	Logger     *slog.Logger
}

// RegisterRepositoryHooks registers repository lifecycle hooks with FX
func RegisterRepositoryHooks(lc fx.Lifecycle, params RepositoryParams) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := params.Repository.HealthCheck(ctx); err != nil {
				return fmt.Errorf("repository not reachable: %w", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := params.Repository.Close(); err != nil {
				params.Logger.Error("Failed to close repository resources", "error", err)
				return err
			}
			params.Logger.Info("Repository resources closed successfully")
			return nil
		},
	})
}

type CacheParams struct {
	fx.In

	Cache  domain.Cache
	Logger *slog.Logger
}

// RegisterCacheHooks checks the cache on start and closes it on stop.
// An unreachable cache only degrades the service.
func RegisterCacheHooks(lc fx.Lifecycle, params CacheParams) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := params.Cache.Ping(ctx); err != nil {
				params.Logger.Warn("Cache not reachable at startup, serving from store", "error", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := params.Cache.Close(); err != nil {
				params.Logger.Error("Failed to close cache", "error", err)
				return err
			}
			params.Logger.Info("Cache closed successfully")
			return nil
		},
	})
}
