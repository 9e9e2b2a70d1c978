package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"tablero/internal"
)

const MemoryPath = ":memory:"

type DB struct {
	conn *sql.DB
}

// Open opens the sqlite database at path. The in-memory database lives on a
// single connection and is gone once it is closed.
func Open(path string) (*DB, error) {
	memory := path == "" || path == MemoryPath
	if memory {
		path = MemoryPath
	} else if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if memory {
		conn.SetMaxOpenConns(1)
	} else if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS uploads (
  id TEXT PRIMARY KEY,
  dashboard TEXT NOT NULL,
  source TEXT NOT NULL,
  hash TEXT NOT NULL,
  rowCount INTEGER NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_uploads_hash ON uploads(hash);

CREATE TABLE IF NOT EXISTS category_counts (
  uploadId TEXT NOT NULL,
  category TEXT NOT NULL,
  count INTEGER NOT NULL,
  PRIMARY KEY(uploadId, category),
  FOREIGN KEY(uploadId) REFERENCES uploads(id)
);

CREATE TABLE IF NOT EXISTS mails (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  attachment TEXT NOT NULL,
  path TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId, attachment)
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// InsertUpload records a loaded workbook together with its rows per category.
func (d *DB) InsertUpload(rec internal.UploadRecord, counts []internal.CategoryCount) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
INSERT INTO uploads (id, dashboard, source, hash, rowCount)
VALUES (?, ?, ?, ?, ?)
`, rec.ID, rec.Dashboard, rec.Source, rec.Hash, rec.Rows); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO category_counts (uploadId, category, count) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range counts {
		if _, err := stmt.Exec(rec.ID, string(c.Category), c.Count); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListUploads returns the most recent uploads first.
func (d *DB) ListUploads(limit int) ([]internal.UploadRecord, error) {
	rows, err := d.conn.Query(`
SELECT id, dashboard, source, hash, rowCount, createdAt
FROM uploads ORDER BY createdAt DESC, rowid DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.UploadRecord
	for rows.Next() {
		var rec internal.UploadRecord
		if err := rows.Scan(&rec.ID, &rec.Dashboard, &rec.Source, &rec.Hash, &rec.Rows, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (d *DB) GetUpload(id string) (*internal.UploadRecord, error) {
	var rec internal.UploadRecord
	err := d.conn.QueryRow(`
SELECT id, dashboard, source, hash, rowCount, createdAt FROM uploads WHERE id = ?
`, id).Scan(&rec.ID, &rec.Dashboard, &rec.Source, &rec.Hash, &rec.Rows, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CategoryCounts returns the per-category row counts of one upload, largest first.
func (d *DB) CategoryCounts(uploadID string) ([]internal.CategoryCount, error) {
	rows, err := d.conn.Query(`
SELECT category, count FROM category_counts
WHERE uploadId = ? ORDER BY count DESC, category ASC
`, uploadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CategoryCount
	for rows.Next() {
		var c internal.CategoryCount
		var category string
		if err := rows.Scan(&category, &c.Count); err != nil {
			return nil, err
		}
		c.Category = internal.Category(category)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (d *DB) MailSeen(provider, messageID, attachment string) (bool, error) {
	var n int
	err := d.conn.QueryRow(`
SELECT COUNT(1) FROM mails WHERE provider = ? AND messageId = ? AND attachment = ?
`, provider, messageID, attachment).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertMail records an attachment saved from a message. Saving the same
// attachment twice is a no-op.
func (d *DB) InsertMail(msg internal.FetchedMailMessage, attachment, path string) error {
	_, err := d.conn.Exec(`
INSERT INTO mails (provider, messageId, subject, sender, receivedAt, attachment, path)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId, attachment) DO NOTHING
`, msg.Provider, msg.MessageID, msg.Subject, msg.From, msg.ReceivedAt, attachment, path)
	return err
}
