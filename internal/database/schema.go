// internal/database/schema.go
// Database schema and migration logic for the muses site
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const Schema = `
-- Settings table
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT,
    type TEXT,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Outcome of every dashboard section fetch
CREATE TABLE IF NOT EXISTS fetch_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source TEXT NOT NULL,
    ok BOOLEAN NOT NULL,
    item_count INTEGER NOT NULL DEFAULT 0,
    error TEXT,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    fetched_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_fetch_log_source ON fetch_log(source, id DESC);
`

type DB struct {
	*sql.DB
	retention int
}

// Config holds database configuration
type Config struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	// FetchLogRetention is how many fetch_log rows survive each prune.
	FetchLogRetention int
}

// DefaultConfig returns the default database configuration
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:      25,
		MaxIdleConns:      10,
		ConnMaxLifetime:   time.Hour,
		ConnMaxIdleTime:   5 * time.Minute,
		FetchLogRetention: 500,
	}
}

// NewDB opens (creating if needed) the database at dbPath and applies the schema.
func NewDB(dbPath string, cfg Config) (*DB, error) {
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=ON&_synchronous=NORMAL",
		dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Each connection to :memory: is its own database.
	if dbPath == ":memory:" {
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
		cfg.ConnMaxLifetime = 0
		cfg.ConnMaxIdleTime = 0
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating schema: %w", err)
	}

	retention := cfg.FetchLogRetention
	if retention <= 0 {
		retention = DefaultConfig().FetchLogRetention
	}
	return &DB{DB: db, retention: retention}, nil
}

func createSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(Schema); err != nil {
		return fmt.Errorf("error executing schema: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing schema: %w", err)
	}

	if err := performMigrations(db); err != nil {
		return fmt.Errorf("error performing migrations: %w", err)
	}
	return insertDefaultSettings(db)
}

// performMigrations upgrades databases created before a column existed.
func performMigrations(db *sql.DB) error {
	exists, err := columnExists(db, "fetch_log", "duration_ms")
	if err != nil {
		return err
	}
	if !exists {
		if _, err := db.Exec("ALTER TABLE fetch_log ADD COLUMN duration_ms INTEGER NOT NULL DEFAULT 0"); err != nil {
			return fmt.Errorf("error adding duration_ms column: %w", err)
		}
	}
	return nil
}

func columnExists(db *sql.DB, tableName, columnName string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return false, fmt.Errorf("error reading table info for %s: %w", tableName, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == columnName {
			return true, nil
		}
	}
	return false, rows.Err()
}

// DefaultSettings are inserted for any key missing from the settings table.
var DefaultSettings = map[string]string{
	"site_title":       "muses",
	"author_name":      "",
	"bio":              "Things I have been reading, watching and listening to.",
	"footer_text":      "",
	"site_url":         "",
	"meta_description": "Recently read books, watched films and played music.",
}

func insertDefaultSettings(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO settings (key, value, type)
		SELECT ?, ?, 'string' WHERE NOT EXISTS (SELECT 1 FROM settings WHERE key = ?)`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close()

	for key, value := range DefaultSettings {
		if _, err := stmt.Exec(key, value, key); err != nil {
			return fmt.Errorf("error inserting default setting %s: %w", key, err)
		}
	}
	return tx.Commit()
}
