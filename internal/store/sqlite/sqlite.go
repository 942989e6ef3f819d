package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/wirechat-client/internal/store"
)

// Schema creates the transcript table. It is safe to apply more than once.
const Schema = `
CREATE TABLE IF NOT EXISTS entries (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	channel    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	sender     TEXT NOT NULL DEFAULT '',
	recipient  TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL DEFAULT '',
	self       BOOLEAN NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS entries_channel_seq ON entries (channel, seq);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens dbPath and applies Schema. ":memory:" keeps the transcript for the life of the process.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single connection also keeps an in-memory database alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRecord appends a record.
func (s *SQLiteStore) SaveRecord(ctx context.Context, rec *store.Record) error {
	query := `
		INSERT INTO entries (id, channel, kind, sender, recipient, content, self, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Channel, rec.Kind, rec.From, rec.To, rec.Content, rec.Self, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	rec.Seq = seq
	return nil
}

// ListRecords returns up to limit most recent records of channel in chronological order.
// A non-positive limit returns the whole channel.
func (s *SQLiteStore) ListRecords(ctx context.Context, channel string, limit int) ([]*store.Record, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `
		SELECT seq, id, channel, kind, sender, recipient, content, self, created_at
		FROM entries
		WHERE channel = ?
		ORDER BY seq DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, channel, limit)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var records []*store.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	// Reverse to get chronological order
	for i := 0; i < len(records)/2; i++ {
		records[i], records[len(records)-1-i] = records[len(records)-1-i], records[i]
	}

	return records, rows.Err()
}

// GetRecord retrieves a record by entry ID.
func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*store.Record, error) {
	query := `
		SELECT seq, id, channel, kind, sender, recipient, content, self, created_at
		FROM entries
		WHERE id = ?
	`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("entry %s: %w", id, store.ErrNotFound)
		}
		return nil, err
	}
	return rec, nil
}

// CountRecords returns how many records channel holds.
func (s *SQLiteStore) CountRecords(ctx context.Context, channel string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE channel = ?`, channel).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*store.Record, error) {
	var rec store.Record
	err := row.Scan(
		&rec.Seq,
		&rec.ID,
		&rec.Channel,
		&rec.Kind,
		&rec.From,
		&rec.To,
		&rec.Content,
		&rec.Self,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	return &rec, nil
}
