package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/OldStager01/alert-arbiter/internal/logger"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

const versionTable = "schema_migrations"

// Migrator applies the embedded schema for the connection's dialect. Each
// file runs once, inside a transaction, and is recorded in
// schema_migrations.
type Migrator struct {
	db *DB
}

func NewMigrator(db *DB) *Migrator {
	return &Migrator{db: db}
}

func (m *Migrator) dir() string {
	return path.Join("migrations", string(m.db.Dialect))
}

// Files lists the dialect's migrations in execution order.
func (m *Migrator) Files() ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, m.dir())
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Pending lists migrations not yet recorded as applied.
func (m *Migrator) Pending(ctx context.Context) ([]string, error) {
	if err := m.ensureVersionTable(ctx); err != nil {
		return nil, err
	}

	files, err := m.Files()
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	var pending []string
	for _, f := range files {
		if !applied[f] {
			pending = append(pending, f)
		}
	}
	return pending, nil
}

func (m *Migrator) Run(ctx context.Context) error {
	pending, err := m.Pending(ctx)
	if err != nil {
		return err
	}

	for _, file := range pending {
		if err := m.apply(ctx, file); err != nil {
			return fmt.Errorf("migration %s: %w", file, err)
		}
	}
	return nil
}

func (m *Migrator) ensureVersionTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+versionTable+` (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", versionTable, err)
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version FROM `+versionTable)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", versionTable, err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) apply(ctx context.Context, filename string) error {
	content, err := fs.ReadFile(migrationsFS, path.Join(m.dir(), filename))
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	logger.WithField("dialect", m.db.Dialect).Infof("Applying migration %s", filename)

	return m.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			m.db.Dialect.Rebind(`INSERT INTO `+versionTable+` (version, applied_at) VALUES (?, ?)`),
			filename, time.Now().UTC(),
		)
		return err
	})
}
