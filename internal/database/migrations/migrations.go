package migrations

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/uptrace/bun"
)

// Runner applies the SQL migrations under a directory against the service
// database on startup.
type Runner struct {
	bunDB    *bun.DB
	dir      string
	migrator *migrate.Migrate
}

func NewRunner(bunDB *bun.DB, dir string) *Runner {
	return &Runner{bunDB: bunDB, dir: dir}
}

func (r *Runner) initialize() error {
	driver, err := postgres.WithInstance(r.bunDB.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres migration driver: %w", err)
	}

	if _, err := os.Stat(r.dir); os.IsNotExist(err) {
		return fmt.Errorf("migrations directory does not exist: %s", r.dir)
	}

	migrator, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", r.dir),
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	r.migrator = migrator
	return nil
}

// Run applies all pending migrations. A previously interrupted migration is
// forced back to its recorded version before retrying.
func (r *Runner) Run() error {
	if r.migrator == nil {
		if err := r.initialize(); err != nil {
			return err
		}
	}

	version, dirty, err := r.migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		if err := r.migrator.Force(int(version)); err != nil {
			return fmt.Errorf("failed to fix dirty migration: %w", err)
		}
	}

	if err := r.migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Version reports the current schema version, 0 when none applied yet.
func (r *Runner) Version() (uint, error) {
	if r.migrator == nil {
		if err := r.initialize(); err != nil {
			return 0, err
		}
	}
	version, _, err := r.migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	return version, err
}
