package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type TxFunc func(tx *sql.Tx) error

// WithTransaction commits when fn succeeds and rolls back otherwise. The
// rollback error, if any, is joined to fn's.
func (db *DB) WithTransaction(ctx context.Context, fn TxFunc) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

var tableExistsQuery = map[Dialect]string{
	Postgres: `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?)`,
	SQLite:   `SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?)`,
}

var versionQuery = map[Dialect]string{
	Postgres: `SELECT version()`,
	SQLite:   `SELECT 'SQLite ' || sqlite_version()`,
}

func (db *DB) TableExists(ctx context.Context, tableName string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, db.Dialect.Rebind(tableExistsQuery[db.Dialect]), tableName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", tableName, err)
	}
	return exists, nil
}

// ServerVersion reports the engine and version, for diagnostics.
func (db *DB) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := db.QueryRowContext(ctx, versionQuery[db.Dialect]).Scan(&version); err != nil {
		return "", fmt.Errorf("failed to get database version: %w", err)
	}
	return version, nil
}
