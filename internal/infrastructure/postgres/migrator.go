package postgres

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies all pending schema migrations. The ledger
// schema (entries, balances, webhook logs, withdrawals, outbox) must be
// current before the server accepts webhooks.
func RunMigrations(databaseURL, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("schema is up to date")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	slog.Info("schema migrations applied")
	return nil
}

// RunMigrationsDown rolls back the most recent migration. Used by the
// operator CLI only; the server never migrates down.
func RunMigrationsDown(databaseURL, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("roll back migration: %w", err)
	}

	slog.Info("schema migration rolled back")
	return nil
}
