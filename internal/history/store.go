package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		audioPath TEXT NOT NULL,
		prefix TEXT NOT NULL,
		startedAt REAL NOT NULL,
		durationSeconds REAL NOT NULL,
		haltedAt TEXT NOT NULL DEFAULT '',
		speakersCount INTEGER NOT NULL DEFAULT 0,
		speechSegments INTEGER NOT NULL DEFAULT 0,
		totalWords INTEGER NOT NULL DEFAULT 0,
		correctionSuccessRate REAL NOT NULL DEFAULT 0,
		summarizationSuccessRate REAL NOT NULL DEFAULT 0,
		metrics TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(startedAt);
`

type sqliteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the run history database at path.
func Open(path string) (Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) Record(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, audioPath, prefix, startedAt, durationSeconds, haltedAt,
			speakersCount, speechSegments, totalWords,
			correctionSuccessRate, summarizationSuccessRate, metrics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.AudioPath, run.Prefix, unixFromTime(run.StartedAt), run.Duration.Seconds(), run.HaltedAt,
		run.SpeakersCount, run.SpeechSegments, run.TotalWords,
		run.CorrectionSuccessRate, run.SummarizationSuccessRate, run.MetricsJSON)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// List returns the most recent runs first.
func (s *sqliteStore) List(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, audioPath, prefix, startedAt, durationSeconds, haltedAt,
			speakersCount, speechSegments, totalWords,
			correctionSuccessRate, summarizationSuccessRate, metrics
		FROM runs
		ORDER BY startedAt DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt, duration float64
		if err := rows.Scan(&r.ID, &r.AudioPath, &r.Prefix, &startedAt, &duration, &r.HaltedAt,
			&r.SpeakersCount, &r.SpeechSegments, &r.TotalWords,
			&r.CorrectionSuccessRate, &r.SummarizationSuccessRate, &r.MetricsJSON); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = timeFromUnix(startedAt)
		r.Duration = time.Duration(duration * float64(time.Second))
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(f float64) time.Time {
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
