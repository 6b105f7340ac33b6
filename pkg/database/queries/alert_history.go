package queries

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/OldStager01/alert-arbiter/pkg/database"
	"github.com/OldStager01/alert-arbiter/pkg/models"
)

type AlertHistoryRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

func NewAlertHistoryRepository(db *database.DB) *AlertHistoryRepository {
	return &AlertHistoryRepository{db: db.DB, dialect: db.Dialect}
}

// HistoryFilter narrows Recent. Zero values match everything.
type HistoryFilter struct {
	EventName string
	Kind      models.EventType
	Since     time.Time
	Limit     int
}

const historyColumns = `id, frame, recorded_at, kind, alert_type, event_name, context, priority, text1, text2, latched, fallback, state`

func (r *AlertHistoryRepository) Insert(ctx context.Context, rec *models.AlertRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	query := r.dialect.Rebind(`
		INSERT INTO alert_history (frame, recorded_at, kind, alert_type, event_name, context, priority, text1, text2, latched, fallback, state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := r.db.QueryRowContext(ctx, query,
		int64(rec.Frame),
		rec.Timestamp.UTC(),
		string(rec.Kind),
		rec.AlertType,
		rec.EventName,
		rec.Context,
		rec.Priority,
		rec.Text1,
		rec.Text2,
		rec.Latched,
		rec.Fallback,
		rec.State,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to insert alert history: %w", err)
	}
	return nil
}

func (r *AlertHistoryRepository) Recent(ctx context.Context, filter HistoryFilter) ([]models.AlertRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var (
		where []string
		args  []interface{}
	)
	if filter.EventName != "" {
		where = append(where, "event_name = ?")
		args = append(args, filter.EventName)
	}
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if !filter.Since.IsZero() {
		where = append(where, "recorded_at >= ?")
		args = append(args, filter.Since.UTC())
	}

	query := "SELECT " + historyColumns + " FROM alert_history"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.AlertRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// CountByAlertType aggregates alert changes per alert type since the given time.
func (r *AlertHistoryRepository) CountByAlertType(ctx context.Context, since time.Time) ([]models.AlertCount, error) {
	query := r.dialect.Rebind(`
		SELECT alert_type, COUNT(*) AS n
		FROM alert_history
		WHERE kind = ? AND recorded_at >= ?
		GROUP BY alert_type
		ORDER BY n DESC, alert_type ASC`)

	rows, err := r.db.QueryContext(ctx, query, string(models.EventTypeAlertChanged), since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []models.AlertCount
	for rows.Next() {
		var c models.AlertCount
		if err := rows.Scan(&c.AlertType, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

func (r *AlertHistoryRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM alert_history WHERE recorded_at < ?`), before.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (models.AlertRecord, error) {
	var (
		rec   models.AlertRecord
		frame int64
		ts    timestamp
		kind  string
	)
	err := row.Scan(
		&rec.ID,
		&frame,
		&ts,
		&kind,
		&rec.AlertType,
		&rec.EventName,
		&rec.Context,
		&rec.Priority,
		&rec.Text1,
		&rec.Text2,
		&rec.Latched,
		&rec.Fallback,
		&rec.State,
	)
	if err != nil {
		return rec, err
	}
	rec.Frame = uint64(frame)
	rec.Timestamp = ts.Time
	rec.Kind = models.EventType(kind)
	return rec, nil
}

// timestamp accepts both native time values and the text form SQLite may
// hand back.
type timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (t *timestamp) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}
