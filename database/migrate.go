package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// Register sqlite3 driver with database/sql
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/sqlite/*.sql
var sqliteMigrations embed.FS

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

// Direction selects which way Migrate moves the schema.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Driver names accepted by Migrate.
const (
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
)

// RunSqliteMigrations applies all pending SQL schema migrations to the provided SQLite database.
// If no new migrations are found, it exits silently unless a non-ErrNoChange error occurs.
//
// Typical usage:
//
//	err := RunSqliteMigrations(db)
//	if err != nil {
//	    log.Fatalf("migration failed: %v", err)
//	}
func RunSqliteMigrations(db *sql.DB) error {
	return Migrate(db, DriverSqlite, Up)
}

// Migrate moves the schema of db in the given direction. Down reverts every
// migration. The *sql.DB is left open.
func Migrate(db *sql.DB, driverName string, dir Direction) error {
	m, err := newMigrator(db, driverName)
	if err != nil {
		return err
	}

	switch dir {
	case Up:
		err = m.Up()
	case Down:
		err = m.Down()
	default:
		return fmt.Errorf("unknown migration direction %q", dir)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", dir, err)
	}
	return nil
}

// Version reports the applied schema version and whether the last
// migration left the schema dirty.
func Version(db *sql.DB, driverName string) (uint, bool, error) {
	m, err := newMigrator(db, driverName)
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func newMigrator(db *sql.DB, driverName string) (*migrate.Migrate, error) {
	switch driverName {
	case DriverSqlite:
		driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
		if err != nil {
			return nil, err
		}
		source, err := iofs.New(sqliteMigrations, "migrations/sqlite")
		if err != nil {
			return nil, err
		}
		return migrate.NewWithInstance("iofs", source, "sqlite3", driver)

	case DriverPostgres:
		driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
		if err != nil {
			return nil, err
		}
		source, err := iofs.New(postgresMigrations, "migrations/postgres")
		if err != nil {
			return nil, err
		}
		return migrate.NewWithInstance("iofs", source, "pgx5", driver)

	default:
		return nil, fmt.Errorf("unsupported database driver %q", driverName)
	}
}
