package store

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/matheus3301/lounge/internal/store/migrations"
)

// ErrDirtySchema is returned when a previous migration was interrupted and
// the cache needs manual repair (or deletion).
var ErrDirtySchema = errors.New("store: cache schema is dirty")

// MigrateResult reports the schema version after Migrate and whether any
// migration ran.
type MigrateResult struct {
	Version uint
	Changed bool
}

func (db *DB) migrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	drv, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", drv)
	if err != nil {
		return nil, fmt.Errorf("migration instance: %w", err)
	}
	return m, nil
}

// schemaVersion is 0 for a fresh cache.
func schemaVersion(m *migrate.Migrate) (uint, error) {
	v, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("schema version: %w", err)
	case dirty:
		return v, fmt.Errorf("%w at version %d", ErrDirtySchema, v)
	}
	return v, nil
}

// Migrate applies every pending migration.
func (db *DB) Migrate() (MigrateResult, error) {
	m, err := db.migrator()
	if err != nil {
		return MigrateResult{}, err
	}
	before, err := schemaVersion(m)
	if err != nil {
		return MigrateResult{}, err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return MigrateResult{}, fmt.Errorf("migration up: %w", err)
	}
	after, err := schemaVersion(m)
	if err != nil {
		return MigrateResult{}, err
	}
	return MigrateResult{Version: after, Changed: after != before}, nil
}
