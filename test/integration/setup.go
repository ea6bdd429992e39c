//go:build integration

package integration

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	postgresContainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	redisContainer "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sp3dr4/hexlink/internal/alias"
	"github.com/sp3dr4/hexlink/internal/application"
	postgresRepo "github.com/sp3dr4/hexlink/internal/infrastructure/postgres"
	redisCache "github.com/sp3dr4/hexlink/internal/infrastructure/redis"
	"github.com/sp3dr4/hexlink/internal/pkg/metrics"
)

var (
	sharedPostgres *postgresContainer.PostgresContainer
	sharedRedis    *redisContainer.RedisContainer
	sharedDB       *sqlx.DB
	sharedClient   *redis.Client
	containerOnce  sync.Once
	cleanupOnce    sync.Once
)

// TestEnvironment holds the test setup
type TestEnvironment struct {
	DB          *sqlx.DB
	RedisClient *redis.Client
	Repo        *postgresRepo.URLRepository
	Cache       *redisCache.RedisCache
	Shorten     *application.ShortenService
	Resolve     *application.ResolveService
}

// SetupTestEnvironment starts shared PostgreSQL and Redis containers, applies
// the schema and returns services wired to both with clean state.
func SetupTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()

	containerOnce.Do(func() {
		ctx := context.Background()

		pg, err := postgresContainer.Run(ctx,
			"postgres:16-alpine",
			postgresContainer.WithDatabase("hexlink_test"),
			postgresContainer.WithUsername("test"),
			postgresContainer.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			t.Fatalf("failed to start postgres container: %v", err)
		}
		sharedPostgres = pg

		connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			t.Fatalf("failed to get connection string: %v", err)
		}

		db, err := postgresRepo.Open(connStr)
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		sharedDB = db

		rc, err := redisContainer.Run(ctx, "redis:7-alpine")
		if err != nil {
			t.Fatalf("failed to start redis container: %v", err)
		}
		sharedRedis = rc

		redisURL, err := rc.ConnectionString(ctx)
		if err != nil {
			t.Fatalf("failed to get redis connection string: %v", err)
		}
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			t.Fatalf("failed to parse redis url: %v", err)
		}
		sharedClient = redis.NewClient(opts)
	})

	if sharedDB == nil || sharedClient == nil {
		t.Fatal("shared containers failed to start")
	}

	cleanState(t)

	gen, err := alias.NewHexGenerator(alias.DefaultLength)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	repo := postgresRepo.NewURLRepository(sharedDB)
	cache := redisCache.NewRedisCache(sharedClient)
	registry := metrics.NewNoOpRegistry()
	opts := application.DefaultOptions()

	return &TestEnvironment{
		DB:          sharedDB,
		RedisClient: sharedClient,
		Repo:        repo,
		Cache:       cache,
		Shorten:     application.NewShortenService(repo, cache, gen, opts, registry),
		Resolve:     application.NewResolveService(repo, cache, opts, registry),
	}
}

// CleanupSharedResources should be called once at the end of all tests
func CleanupSharedResources() {
	cleanupOnce.Do(func() {
		ctx := context.Background()
		if sharedClient != nil {
			_ = sharedClient.Close()
		}
		if sharedDB != nil {
			_ = sharedDB.Close()
		}
		if sharedRedis != nil {
			_ = sharedRedis.Terminate(ctx)
		}
		if sharedPostgres != nil {
			_ = sharedPostgres.Terminate(ctx)
		}
	})
}

// cleanState truncates the table and flushes Redis for test isolation
func cleanState(t *testing.T) {
	t.Helper()

	if _, err := sharedDB.Exec("TRUNCATE TABLE urls RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("failed to clean database: %v", err)
	}
	if err := sharedClient.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
}

// TestMain handles setup and teardown for the entire test suite
func TestMain(m *testing.M) {
	code := m.Run()

	CleanupSharedResources()

	os.Exit(code)
}
