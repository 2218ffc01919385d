package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteOperationTimeout = 5 * time.Second

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS notes (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	content_length INTEGER NOT NULL,
	last_seen_modified_time TEXT NOT NULL DEFAULT '',
	largest_attachment_size INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS snapshot_meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteBackend stores one row per note. Save replaces every row inside a
// single transaction so a failed save leaves the previous snapshot intact.
type SQLiteBackend struct {
	path   string
	openDB sqlOpenFunc

	initOnce sync.Once
	initErr  error
	db       *sql.DB
}

func NewSQLiteBackend(path string) (Backend, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: empty sqlite path", ErrInvalidSnapshot)
	}
	return &SQLiteBackend{path: path, openDB: sql.Open}, nil
}

func (b *SQLiteBackend) Load() (Snapshot, error) {
	if b == nil {
		return nil, nil
	}
	if err := b.ensureReady(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), sqliteOperationTimeout)
	defer cancel()

	var rawVersion string
	err := b.db.QueryRowContext(ctx, `SELECT value FROM snapshot_meta WHERE key = 'version'`).Scan(&rawVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	version, err := strconv.Atoi(rawVersion)
	if err != nil || version != formatVersion {
		return nil, fmt.Errorf("%w: got %q, want %d", ErrVersionMismatch, rawVersion, formatVersion)
	}

	rows, err := b.db.QueryContext(ctx, `SELECT id, title, content_length, last_seen_modified_time, largest_attachment_size FROM notes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := New()
	for rows.Next() {
		var record NoteRecord
		if err := rows.Scan(&record.ID, &record.Title, &record.ContentLength, &record.LastSeenModifiedTime, &record.LargestAttachmentSize); err != nil {
			return nil, err
		}
		out[record.ID] = &record
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *SQLiteBackend) Save(s Snapshot) error {
	if b == nil {
		return nil
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if err := b.ensureReady(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), sqliteOperationTimeout)
	defer cancel()

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO notes (id, title, content_length, last_seen_modified_time, largest_attachment_size) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, id := range s.IDs() {
		record := s[id]
		if _, err := stmt.ExecContext(ctx, record.ID, record.Title, record.ContentLength, record.LastSeenModifiedTime, record.LargestAttachmentSize); err != nil {
			return fmt.Errorf("insert note %s: %w", id, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO snapshot_meta (key, value) VALUES ('version', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`, strconv.Itoa(formatVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func (b *SQLiteBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *SQLiteBackend) ensureReady() error {
	b.initOnce.Do(func() {
		if dir := filepath.Dir(b.path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				b.initErr = err
				return
			}
		}
		db, err := b.openDB("sqlite", b.path)
		if err != nil {
			b.initErr = err
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), sqliteOperationTimeout)
		defer cancel()
		if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
			_ = db.Close()
			b.initErr = err
			return
		}
		b.db = db
	})
	return b.initErr
}
