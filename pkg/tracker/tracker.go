package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"time"
	"unicode/utf8"

	_ "modernc.org/sqlite"

	"github.com/elunari/cascade/pkg/models"
)

// maxErrorText bounds the stored upstream error text.
const maxErrorText = 512

// Tracker records and queries per-model cascade attempts.
type Tracker interface {
	// Record stores one attempt.
	Record(ctx context.Context, rec models.AttemptRecord) error
	// Summary aggregates attempts per model since a given time.
	Summary(ctx context.Context, since time.Time) ([]models.ModelSummary, error)
	// Recent returns the most recent attempts, newest first.
	Recent(ctx context.Context, limit int) ([]models.AttemptRecord, error)
	// Prune deletes attempts older than before and returns how many were removed.
	Prune(ctx context.Context, before time.Time) (int64, error)
	// Close releases resources.
	Close() error
}

// SQLiteTracker implements Tracker with a SQLite database.
type SQLiteTracker struct {
	db *sql.DB
}

const createTable = `
CREATE TABLE IF NOT EXISTS cascade_attempts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL,
	outcome TEXT NOT NULL,
	status_code INTEGER NOT NULL DEFAULT 0,
	error_text TEXT NOT NULL DEFAULT '',
	latency_ms INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_attempts_model_time ON cascade_attempts(model, created_at);
CREATE INDEX IF NOT EXISTS idx_attempts_time ON cascade_attempts(created_at);
`

// New creates a SQLiteTracker and runs auto-migration.
func New(dbPath string) (*SQLiteTracker, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open tracker db: %w", err)
	}

	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate tracker db: %w", err)
	}

	return &SQLiteTracker{db: db}, nil
}

// Record stores an attempt. Error text is truncated.
func (t *SQLiteTracker) Record(ctx context.Context, rec models.AttemptRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	errText := truncateText(rec.ErrorText, maxErrorText)

	_, err := t.db.ExecContext(ctx,
		`INSERT INTO cascade_attempts (request_id, model, outcome, status_code, error_text, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.Model, string(rec.Outcome), rec.StatusCode, errText, rec.LatencyMs, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// Summary returns per-model aggregates since a given time, ordered by model.
func (t *SQLiteTracker) Summary(ctx context.Context, since time.Time) ([]models.ModelSummary, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT model,
		        COUNT(*),
		        SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		        SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		        SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		        COALESCE(AVG(latency_ms), 0)
		 FROM cascade_attempts WHERE created_at >= ?
		 GROUP BY model ORDER BY model`,
		string(models.OutcomeSuccess), string(models.OutcomeRetryable), string(models.OutcomeFatal), since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	defer rows.Close()

	var summaries []models.ModelSummary
	for rows.Next() {
		var s models.ModelSummary
		if err := rows.Scan(&s.Model, &s.Attempts, &s.Successes, &s.Retryable, &s.Fatal, &s.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Recent returns up to limit attempts, newest first.
func (t *SQLiteTracker) Recent(ctx context.Context, limit int) ([]models.AttemptRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := t.db.QueryContext(ctx,
		`SELECT id, request_id, model, outcome, status_code, error_text, latency_ms, created_at
		 FROM cascade_attempts ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent attempts: %w", err)
	}
	defer rows.Close()

	var records []models.AttemptRecord
	for rows.Next() {
		var r models.AttemptRecord
		var outcome string
		if err := rows.Scan(&r.ID, &r.RequestID, &r.Model, &outcome, &r.StatusCode, &r.ErrorText, &r.LatencyMs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		r.Outcome = models.AttemptOutcome(outcome)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Prune deletes attempts created before the given time.
func (t *SQLiteTracker) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := t.db.ExecContext(ctx, `DELETE FROM cascade_attempts WHERE created_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune attempts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune attempts: %w", err)
	}
	return n, nil
}

// truncateText cuts s to at most n bytes without splitting a rune.
func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Close releases the database connection.
func (t *SQLiteTracker) Close() error {
	return t.db.Close()
}
