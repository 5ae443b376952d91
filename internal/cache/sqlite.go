package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shanehull/regscraper/internal/types"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS daily_records (
	date       TEXT PRIMARY KEY,
	scraped_at TEXT NOT NULL,
	record     TEXT NOT NULL
)`

// SQLiteStore keeps records in a single SQLite database, one row per date.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at dsn.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", dsn, err)
	}
	// a single connection keeps ":memory:" databases intact across calls
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Exists(ctx context.Context, day time.Time) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM daily_records WHERE date = ?`,
		day.Format(types.DateLayout),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query %s: %w", day.Format(types.DateLayout), err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) Read(ctx context.Context, day time.Time) (*types.DailyRecord, error) {
	key := day.Format(types.DateLayout)

	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM daily_records WHERE date = ?`, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var rec types.DailyRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", key, err)
	}
	return &rec, nil
}

func (s *SQLiteStore) Write(ctx context.Context, day time.Time, rec *types.DailyRecord) error {
	data, err := marshalRecord(rec)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO daily_records (date, scraped_at, record) VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET scraped_at = excluded.scraped_at, record = excluded.record`,
		day.Format(types.DateLayout), rec.DateOfScrape, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert %s: %w", day.Format(types.DateLayout), err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", day.Format(types.DateLayout), err)
	}
	return nil
}
