package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lecternlabs/lectern/pkg/summary"
)

// SQLiteStorer persists records in a SQLite database. Pass ":memory:" for an
// ephemeral database. database/sql serializes access, so the storer is safe
// for concurrent use.
type SQLiteStorer struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	text       TEXT NOT NULL,
	levels     TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_kind ON records(kind);
`

// NewSQLiteStorer opens (creating if needed) the database at path.
func NewSQLiteStorer(path string) (*SQLiteStorer, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStorer{db: db}, nil
}

func (s *SQLiteStorer) Put(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("cannot store nil record")
	}

	var levels any
	if rec.Levels != nil {
		data, err := json.Marshal(rec.Levels)
		if err != nil {
			return fmt.Errorf("marshal levels: %w", err)
		}
		levels = string(data)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO records (id, kind, title, text, levels, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Kind), rec.Title, rec.Text, levels,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *SQLiteStorer) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, title, text, levels, created_at FROM records WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound{ID: id}
	}
	return rec, err
}

func (s *SQLiteStorer) Has(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM records WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query record: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStorer) List(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, title, text, levels, created_at
		 FROM records ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStorer) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if n == 0 {
		return ErrNotFound{ID: id}
	}
	return nil
}

func (s *SQLiteStorer) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec       Record
		kind      string
		levels    sql.NullString
		createdAt string
	)
	if err := row.Scan(&rec.ID, &kind, &rec.Title, &rec.Text, &levels, &createdAt); err != nil {
		return nil, err
	}
	rec.Kind = Kind(kind)

	if levels.Valid {
		var snap summary.Snapshot
		if err := json.Unmarshal([]byte(levels.String), &snap); err != nil {
			return nil, fmt.Errorf("unmarshal levels: %w", err)
		}
		rec.Levels = &snap
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	rec.CreatedAt = ts

	return &rec, nil
}
