package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config is the interface the job history store's configuration
// satisfies: a dialect name and a dialect-appropriate DSN (a file path
// for sqlite, a connection string for postgres).
type Config interface {
	GetDialect() string
	GetDSN() string
}

// NewDB opens a GORM connection for cfg's dialect.
func NewDB(cfg Config) (*gorm.DB, error) {
	switch cfg.GetDialect() {
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(cfg.GetDSN()), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
		}
		return db, nil
	case "postgres":
		db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported history store dialect: %s", cfg.GetDialect())
	}
}
