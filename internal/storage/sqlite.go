package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/tagnote/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id         TEXT PRIMARY KEY,
	position   INTEGER NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL DEFAULT '',
	tags       TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_position ON notes(position);
`

// SQLite implements Provider on a SQLite database. The notes table always
// holds exactly the last saved snapshot.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("storage: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Load returns every stored note ordered by position.
func (db *SQLite) Load() ([]models.Note, error) {
	rows, err := db.conn.Query(`SELECT id, title, content, tags, created_at FROM notes ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("storage: load: %w", err)
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		var (
			n       models.Note
			tagsRaw string
			created time.Time
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &tagsRaw, &created); err != nil {
			return nil, fmt.Errorf("storage: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(tagsRaw), &n.Tags); err != nil {
			return nil, fmt.Errorf("storage: decode tags of %s: %w", n.ID, err)
		}
		n.CreatedAt = created.UTC()
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: load: %w", err)
	}
	return normalize(out), nil
}

// Save replaces the table contents with notes within a transaction.
func (db *SQLite) Save(notes []models.Note) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("storage: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM notes`); err != nil {
		return fmt.Errorf("storage: clear: %w", err)
	}

	if len(notes) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO notes (id, position, title, content, tags, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("storage: prepare insert: %w", err)
		}
		defer stmt.Close()
		for i, n := range normalize(notes) {
			tagsJSON, _ := json.Marshal(n.Tags)
			if _, err := stmt.Exec(n.ID, i, n.Title, n.Content, string(tagsJSON), n.CreatedAt.UTC()); err != nil {
				return fmt.Errorf("storage: insert %s: %w", n.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (db *SQLite) Close() error {
	return db.conn.Close()
}
