package repository

import (
	"database/sql"
	"embed"
	stderrors "errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NewMigrate builds a migrator over the embedded schema migrations.
func NewMigrate(db *sql.DB) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, err
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}

	return migrate.NewWithInstance("iofs", source, "postgres", driver)
}

// Migrate applies all pending up migrations.
func Migrate(db *sql.DB, logger *logging.Logger) error {
	m, err := NewMigrate(db)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !stderrors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		logger.Error("Database is in a dirty migration state", logging.Fields{"db_version": version})
		return fmt.Errorf("database version %d is dirty", version)
	}

	if err := m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	newVersion, _, _ := m.Version()
	logger.Info("Database migrated", logging.Fields{
		"from_version": version,
		"to_version":   newVersion,
	})
	return nil
}

// Rollback reverts the given number of migrations.
func Rollback(db *sql.DB, steps int, logger *logging.Logger) error {
	m, err := NewMigrate(db)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Steps(-steps); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback failed: %w", err)
	}

	logger.Info("Database rolled back", logging.Fields{"steps": steps})
	return nil
}
