package data

import (
	"fmt"
	"path/filepath"
	"strings"

	"go-directory-app/internal/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// NewDB creates a new database connection pool for the configured driver.
func NewDB(cfg config.DBConfig) (*sqlx.DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "mysql"
	}
	// sqlx.Connect opens a connection and pings it to verify it's alive.
	db, err := sqlx.Connect(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if driver == "sqlite3" {
		// In-memory SQLite databases exist per connection.
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// ApplyMigrations runs all up migrations found under <migrationsPath>/<driver>.
func ApplyMigrations(cfg config.DBConfig, migrationsPath string) error {
	migrateDSN, err := migrateURL(cfg)
	if err != nil {
		return err
	}

	// To ensure the path is correctly interpreted by the migrate library,
	// convert it to an absolute path and then format it as a file URL.
	absPath, err := filepath.Abs(filepath.Join(migrationsPath, cfg.Driver))
	if err != nil {
		return fmt.Errorf("failed to get absolute path for migrations: %w", err)
	}
	sourceURL := fmt.Sprintf("file://%s", absPath)

	m, err := migrate.New(sourceURL, migrateDSN)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// migrateURL converts a driver DSN into the URL form the migrate library expects.
func migrateURL(cfg config.DBConfig) (string, error) {
	switch cfg.Driver {
	case "mysql", "":
		return "mysql://" + cfg.DSN, nil
	case "sqlite3":
		return "sqlite3://" + cfg.DSN, nil
	case "pgx":
		dsn := cfg.DSN
		dsn = strings.TrimPrefix(dsn, "postgres://")
		dsn = strings.TrimPrefix(dsn, "postgresql://")
		return "pgx5://" + dsn, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
