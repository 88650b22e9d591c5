//go:build integration
// +build integration

package catalog

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	pgContainer *tcpostgres.PostgresContainer
	pgDSN       string
)

// TestMain starts a throwaway PostgreSQL container for the catalog
// round-trip tests. Set CATALOG_TEST_DSN to reuse an external database
// instead.
func TestMain(m *testing.M) {
	ctx := context.Background()

	if dsn := os.Getenv("CATALOG_TEST_DSN"); dsn != "" {
		pgDSN = dsn
		os.Exit(m.Run())
	}

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("stacdex_test"),
		tcpostgres.WithUsername("stacdex"),
		tcpostgres.WithPassword("stacdex"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Printf("failed to start postgres container: %v", err)
		log.Println("set CATALOG_TEST_DSN to use an external database")
		os.Exit(1)
	}
	pgContainer = container

	pgDSN, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Printf("failed to get connection string: %v", err)
		os.Exit(1)
	}

	code := m.Run()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := container.Terminate(shutdownCtx); err != nil {
		log.Printf("failed to terminate postgres container: %v", err)
	}

	os.Exit(code)
}
