package container

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"zenpdf-worker/configs"
)

// TestNewWiresEverythingWithoutNetworkAccess builds a Container against
// a sqlite job history store and empty queue/redis/jaeger addresses,
// the fast path exercised on every run (no external services).
func TestNewWiresEverythingWithoutNetworkAccess(t *testing.T) {
	dbPath := t.TempDir() + "/history.db"
	cfg := &configs.Config{
		Environment: "test",
		ServiceName: "zenpdf-worker",
		Server:      configs.ServerConfig{Port: "9091"},
		Logger:      configs.LoggerConfig{Level: "error"},
		History:     configs.HistoryConfig{Dialect: "sqlite", DSN: dbPath},
		Worker:      configs.WorkerConfig{ID: "worker-test", PollInterval: time.Second, HeartbeatInterval: 0},
	}

	c := New(cfg)
	require.NotNil(t, c)

	assert.NotNil(t, c.Logger)
	assert.NotNil(t, c.Metrics)
	assert.Nil(t, c.Tracer)
	assert.Nil(t, c.RedisClient)
	assert.NotNil(t, c.DB)
	assert.NotNil(t, c.History)
	assert.NotNil(t, c.Queue)
	assert.NotNil(t, c.Transfer)
	assert.NotNil(t, c.Fetcher)
	assert.NotNil(t, c.Dispatcher)
	assert.NotNil(t, c.Worker)
	assert.Equal(t, "worker-test", c.Worker.WorkerID)

	require.NoError(t, c.Close())
}

// TestNewRunsMigrationsAgainstPostgres starts a disposable postgres
// container and verifies the job history schema is created against
// the postgres dialect path, not just sqlite. Skipped unless ZENPDF_IT=1
// since it needs Docker.
func TestNewRunsMigrationsAgainstPostgres(t *testing.T) {
	if os.Getenv("ZENPDF_IT") != "1" {
		t.Skip("set ZENPDF_IT=1 to run integration tests that require Docker")
	}

	ctx := context.Background()
	pg, err := postgres.RunContainer(ctx,
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
	)
	require.NoError(t, err)
	defer func() { _ = pg.Terminate(ctx) }()

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	if host == "localhost" {
		host = "127.0.0.1"
	}
	port, err := pg.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%d user=testuser password=testpass dbname=testdb sslmode=disable", host, port.Int())

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		db, openErr := sql.Open("postgres", dsn)
		if openErr == nil {
			if pingErr := db.Ping(); pingErr == nil {
				_ = db.Close()
				break
			}
			_ = db.Close()
		}
		time.Sleep(300 * time.Millisecond)
	}

	cfg := &configs.Config{
		Environment: "test",
		ServiceName: "zenpdf-worker",
		Server:      configs.ServerConfig{Port: "9091"},
		Logger:      configs.LoggerConfig{Level: "error"},
		History:     configs.HistoryConfig{Dialect: "postgres", DSN: dsn},
		Worker:      configs.WorkerConfig{ID: "worker-test", PollInterval: time.Second},
	}

	c := New(cfg)
	require.NotNil(t, c)

	recent, err := c.History.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
