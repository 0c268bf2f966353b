package test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"zenpdf-worker/internal/pkg/database"
)

type testDBConfig struct {
	dialect string
	dsn     string
}

func (c testDBConfig) GetDialect() string { return c.dialect }
func (c testDBConfig) GetDSN() string     { return c.dsn }

// SetupTestDB starts a disposable postgres container and returns a
// connected *gorm.DB, terminating the container on test cleanup.
func SetupTestDB(t *testing.T) *gorm.DB {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithStartupTimeout(30 * time.Second),
	}

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatal(err)
	}

	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatal(err)
	}
	host, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if host == "localhost" {
		host = "127.0.0.1"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=testuser password=testpass dbname=testdb sslmode=disable",
		host, port.Int())

	db, err := database.NewDB(testDBConfig{dialect: "postgres", dsn: dsn})
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	return db
}

// SetupSQLiteTestDB opens an in-memory sqlite database, the fast path
// used by tests that don't need postgres-specific behavior.
func SetupSQLiteTestDB(t *testing.T) *gorm.DB {
	db, err := database.NewDB(testDBConfig{dialect: "sqlite", dsn: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	return db
}
