package database

import (
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

// RunMigrations applies every pending migration under the
// dialect subdirectory of migrationsFS against db.
func RunMigrations(db *gorm.DB, dialect string, migrationsFS fs.FS) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	var dbDriver migrate.Database
	switch dialect {
	case "sqlite":
		dbDriver, err = sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	case "postgres":
		dbDriver, err = postgres.WithInstance(sqlDB, &postgres.Config{})
	default:
		return fmt.Errorf("unsupported history store dialect: %s", dialect)
	}
	if err != nil {
		return err
	}

	sub, err := fs.Sub(migrationsFS, "migrations/"+dialect)
	if err != nil {
		return err
	}
	sourceDriver, err := iofs.New(sub, ".")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, dialect, dbDriver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
