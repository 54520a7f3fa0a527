package health

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const metricsSchema = `
CREATE TABLE IF NOT EXISTS health_metrics(
	probe TEXT NOT NULL,
	status INTEGER NOT NULL,
	message TEXT NOT NULL,
	response_ns INTEGER NOT NULL,
	ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_health_metrics_ts ON health_metrics(ts);
CREATE INDEX IF NOT EXISTS idx_health_metrics_probe ON health_metrics(probe, ts);
`

// SQLiteBackend persists metric records in a local sqlite database so recent
// metrics survive process restarts.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLiteBackend opens (creating if needed) the sqlite database at path
// and ensures the metrics schema exists.
func OpenSQLiteBackend(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure metrics directory: %w", err)
	}

	dsn := "file:" + path + "?_pragma=busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open metrics db: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping metrics db: %w", err)
	}
	if _, err := db.ExecContext(ctx, metricsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init metrics schema: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

// DB exposes the underlying handle so the database probe can ping the same
// store the service depends on.
func (b *SQLiteBackend) DB() *sql.DB {
	return b.db
}

// Insert appends a record.
func (b *SQLiteBackend) Insert(record MetricRecord) error {
	_, err := b.db.Exec(
		`INSERT INTO health_metrics(probe, status, message, response_ns, ts) VALUES(?, ?, ?, ?, ?)`,
		record.Probe, int(record.Status), record.Message,
		int64(record.ResponseTime), record.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert metric: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. An empty probe matches
// all records; limit <= 0 means no limit.
func (b *SQLiteBackend) Recent(limit int, probe string) ([]MetricRecord, error) {
	query := `SELECT probe, status, message, response_ns, ts FROM health_metrics`
	args := []any{}
	if probe != "" {
		query += ` WHERE probe = ?`
		args = append(args, probe)
	}
	query += ` ORDER BY ts DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var out []MetricRecord
	for rows.Next() {
		var (
			record     MetricRecord
			status     int
			responseNs int64
			ts         int64
		)
		if err := rows.Scan(&record.Probe, &status, &record.Message, &responseNs, &ts); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		record.Status = Status(status)
		record.ResponseTime = time.Duration(responseNs)
		record.Timestamp = time.Unix(0, ts)
		out = append(out, record)
	}
	return out, rows.Err()
}

// DeleteOlderThan removes all records with a timestamp before cutoff and
// returns the number removed.
func (b *SQLiteBackend) DeleteOlderThan(cutoff time.Time) (int, error) {
	res, err := b.db.Exec(`DELETE FROM health_metrics WHERE ts < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune metrics: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

var _ MetricsBackend = (*SQLiteBackend)(nil)
