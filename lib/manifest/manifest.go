// Package manifest keeps a local record of every output file produced, so
// `lectern status` can show what has already been downloaded.
package manifest

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS outputs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	title TEXT NOT NULL,
	path TEXT NOT NULL,
	item_count INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS outputs_created_at ON outputs (created_at);
`

// Entry is one produced output file.
type Entry struct {
	Kind      string
	Title     string
	Path      string
	ItemCount int
	CreatedAt time.Time
}

type Manifest struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the manifest database. Use
// ":memory:" for tests.
func Open(path string) (Manifest, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return Manifest{}, err
	}
	_, err = db.Exec(schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		db.Close()
		return Manifest{}, err
	}
	return Manifest{db: db}, nil
}

func (m Manifest) Close() error {
	return m.db.Close()
}

func (m Manifest) Record(ctx context.Context, entry Entry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO outputs (kind, title, path, item_count, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.Kind, entry.Title, entry.Path, entry.ItemCount, createdAt.Unix(),
	)
	return err
}

// Recent returns the newest entries first.
func (m Manifest) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT kind, title, path, item_count, created_at
		 FROM outputs ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt int64
		err = rows.Scan(&e.Kind, &e.Title, &e.Path, &e.ItemCount, &createdAt)
		if err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
