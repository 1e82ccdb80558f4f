package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Supported storage drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// Migrate applies every pending embedded migration for driver to db.
// The migrate instance is not closed because that would close db.
func Migrate(db *sql.DB, driver string) error {
	var (
		target database.Driver
		dir    string
		err    error
	)
	switch driver {
	case DriverMySQL:
		target, err = migratemysql.WithInstance(db, &migratemysql.Config{})
		dir = "migrations/mysql"
	case DriverSQLite:
		target, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
		dir = "migrations/sqlite"
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	src, err := iofs.New(migrations, dir)
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	instance, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	if err := instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
