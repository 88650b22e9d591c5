// Package db implements the catalog client over a relational database
// using GORM: PostgreSQL for deployments, embedded SQLite for local
// runs.
package db

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds database connection settings.
type Config struct {
	// Driver is "postgres" or "sqlite".
	Driver string

	// DSN is the driver-specific connection string: a key=value DSN
	// for postgres, a file path for sqlite.
	DSN string

	// Connection pool settings; zero values take defaults.
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Connect opens the catalog database and ensures the schema exists.
func Connect(cfg Config, log hclog.Logger) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
	if log != nil {
		log = log.Named("catalog-db")
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported catalog driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying SQL DB: %w", err)
	}

	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 10
	}
	sqlDB.SetMaxIdleConns(maxIdle)

	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 25
	}
	sqlDB.SetMaxOpenConns(maxOpen)

	lifetime := cfg.ConnMaxLifetime
	if lifetime == 0 {
		lifetime = 5 * time.Minute
	}
	sqlDB.SetConnMaxLifetime(lifetime)

	if err := db.AutoMigrate(&ProductModel{}, &RecordModel{}); err != nil {
		return nil, fmt.Errorf("migrating catalog schema: %w", err)
	}

	if log != nil {
		log.Info("connected to catalog database",
			"driver", cfg.Driver,
			"max_idle_conns", maxIdle,
			"max_open_conns", maxOpen)
	}

	return db, nil
}
