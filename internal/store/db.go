package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite message cache.
type DB struct {
	*sql.DB
}

// dsnOptions enables WAL, waits on a busy database instead of failing
// and enforces foreign keys.
const dsnOptions = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// Open connects to the cache at path, creating the file if needed.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", path+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	return &DB{sqlDB}, nil
}

// OpenMigrated opens the cache and brings its schema up to date.
func OpenMigrated(path string) (*DB, MigrateResult, error) {
	db, err := Open(path)
	if err != nil {
		return nil, MigrateResult{}, err
	}
	res, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, MigrateResult{}, err
	}
	return db, res, nil
}

func (db *DB) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
