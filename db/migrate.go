package db

import (
	"context"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	// registers the "postgres" database driver, which talks to the server through lib/pq
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/user/landing-go/apperror"
	"github.com/user/landing-go/logging"
)

// Migrations holds the versioned schema, compiled into the binary so the
// server never depends on a migrations directory at runtime.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// RunMigrations applies every pending up migration to the database at dsn.
// Having nothing to apply is not an error.
func RunMigrations(dsn string, logger logging.Logger) error {
	m, err := newMigrator(dsn)
	if err != nil {
		return err
	}
	defer closeMigrator(m, logger)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperror.NewMigrationError("failed to run migrations", err)
	}
	return nil
}

// MigrateDown rolls back every applied migration. Used by the migrate
// command only.
func MigrateDown(dsn string, logger logging.Logger) error {
	m, err := newMigrator(dsn)
	if err != nil {
		return err
	}
	defer closeMigrator(m, logger)

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperror.NewMigrationError("failed to roll back migrations", err)
	}
	return nil
}

// MigrationVersion reports the current schema version. dirty is true when a
// previous migration failed half way.
func MigrationVersion(dsn string, logger logging.Logger) (version uint, dirty bool, err error) {
	m, err := newMigrator(dsn)
	if err != nil {
		return 0, false, err
	}
	defer closeMigrator(m, logger)

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, apperror.NewMigrationError("failed to read migration version", err)
	}
	return version, dirty, nil
}

func newMigrator(dsn string) (*migrate.Migrate, error) {
	src, err := iofs.New(Migrations, "migrations")
	if err != nil {
		return nil, apperror.NewMigrationError("failed to open embedded migrations", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, apperror.NewMigrationError("failed to create migrator", err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate, logger logging.Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn(context.Background(), "error closing migration source", "error", srcErr)
	}
	if dbErr != nil {
		logger.Warn(context.Background(), "error closing migration database", "error", dbErr)
	}
}
