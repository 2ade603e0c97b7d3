// internal/database/queries.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// FetchRecord is the stored outcome of one section fetch.
type FetchRecord struct {
	ID        int64
	Source    string
	OK        bool
	ItemCount int
	Error     string
	Duration  time.Duration
	FetchedAt time.Time
}

// GetSetting retrieves a setting value
func (db *DB) GetSetting(ctx context.Context, key string) (string, error) {
	var value sql.NullString
	err := db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?",
		key,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value.String, err
}

// GetSettings returns every setting as a map
func (db *DB) GetSettings(ctx context.Context) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("error querying settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("error scanning setting: %w", err)
		}
		settings[key] = value.String
	}
	return settings, rows.Err()
}

// UpdateSetting inserts or replaces a setting
func (db *DB) UpdateSetting(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrInvalidInput
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (key, value, type, updated_at)
		VALUES (?, ?, 'string', CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	return err
}

// RecordFetch stores a fetch outcome and prunes the log to the retention limit.
func (db *DB) RecordFetch(ctx context.Context, rec FetchRecord) error {
	if rec.Source == "" {
		return ErrInvalidInput
	}
	if rec.FetchedAt.IsZero() {
		rec.FetchedAt = time.Now()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO fetch_log (source, ok, item_count, error, duration_ms, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Source, rec.OK, rec.ItemCount, nullIfEmpty(rec.Error),
		rec.Duration.Milliseconds(), rec.FetchedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("error inserting fetch record: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM fetch_log WHERE id IN (
			SELECT id FROM fetch_log ORDER BY id DESC LIMIT -1 OFFSET ?
		)`, db.retention)
	if err != nil {
		return fmt.Errorf("error pruning fetch log: %w", err)
	}

	return tx.Commit()
}

// RecentFetches returns up to limit records, newest first.
func (db *DB) RecentFetches(ctx context.Context, limit int) ([]FetchRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, source, ok, item_count, error, duration_ms, fetched_at
		FROM fetch_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying fetch log: %w", err)
	}
	defer rows.Close()
	return scanFetchRecords(rows)
}

// LatestFetchBySource returns the newest record for each source.
func (db *DB) LatestFetchBySource(ctx context.Context) (map[string]FetchRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT f.id, f.source, f.ok, f.item_count, f.error, f.duration_ms, f.fetched_at
		FROM fetch_log f
		JOIN (SELECT source, MAX(id) AS id FROM fetch_log GROUP BY source) latest
		ON latest.id = f.id`)
	if err != nil {
		return nil, fmt.Errorf("error querying latest fetches: %w", err)
	}
	defer rows.Close()

	records, err := scanFetchRecords(rows)
	if err != nil {
		return nil, err
	}
	bySource := make(map[string]FetchRecord, len(records))
	for _, r := range records {
		bySource[r.Source] = r
	}
	return bySource, nil
}

func scanFetchRecords(rows *sql.Rows) ([]FetchRecord, error) {
	var records []FetchRecord
	for rows.Next() {
		var (
			r          FetchRecord
			errText    sql.NullString
			durationMS int64
		)
		if err := rows.Scan(&r.ID, &r.Source, &r.OK, &r.ItemCount, &errText, &durationMS, &r.FetchedAt); err != nil {
			return nil, fmt.Errorf("error scanning fetch record: %w", err)
		}
		r.Error = errText.String
		r.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, r)
	}
	return records, rows.Err()
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
