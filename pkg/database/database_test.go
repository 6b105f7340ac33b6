package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialect_Rebind(t *testing.T) {
	q := "SELECT a FROM t WHERE b = ? AND c = ? LIMIT ?"
	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2 LIMIT $3", Postgres.Rebind(q))
}

func TestConfig_DSN(t *testing.T) {
	assert.Equal(t, ":memory:", Config{Driver: "sqlite", Path: ":memory:"}.DSN())
	assert.Contains(t, Config{Driver: "sqlite", Path: "/var/lib/arbiter.db"}.DSN(), "file:/var/lib/arbiter.db?")
	assert.Equal(t,
		"host=db port=5432 user=u password=p dbname=arbiter sslmode=disable",
		Config{Host: "db", Port: 5432, User: "u", Password: "p", Name: "arbiter"}.DSN(),
	)
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(Config{Driver: "mysql"})
	assert.Error(t, err)
}

func TestSQLite_Migrate(t *testing.T) {
	db, err := New(Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	m := NewMigrator(db)
	files, err := m.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_alert_history.sql"}, files)

	pending, err := m.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, files, pending)

	require.NoError(t, m.Run(ctx))
	require.NoError(t, m.Run(ctx))

	pending, err = m.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	var recorded int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&recorded))
	assert.Equal(t, 1, recorded)

	exists, err := db.TableExists(ctx, "alert_history")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = db.TableExists(ctx, "clusters")
	require.NoError(t, err)
	assert.False(t, exists)

	version, err := db.ServerVersion(ctx)
	require.NoError(t, err)
	assert.Contains(t, version, "SQLite")
	assert.NoError(t, db.HealthCheck(ctx))
}

func TestWithTransaction_RollsBack(t *testing.T) {
	db, err := New(Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	require.NoError(t, NewMigrator(db).Run(ctx))

	boom := errors.New("boom")
	err = db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO alert_history (frame, kind) VALUES (1, 'alert_cleared')`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alert_history`).Scan(&n))
	assert.Zero(t, n)

	require.NoError(t, db.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO alert_history (frame, kind) VALUES (1, 'alert_cleared')`)
		return err
	}))
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alert_history`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestPostgres_TableExists(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := Wrap(sqlDB, Postgres)
	mock.ExpectQuery(`information_schema.tables`).
		WithArgs("alert_history").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := db.TableExists(context.Background(), "alert_history")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
