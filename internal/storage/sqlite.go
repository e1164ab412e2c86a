package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var ddl embed.FS

const documentName = "state"

// SQLite keeps the document as a single row, so each save is one atomic upsert.
type SQLite struct{ *sql.DB }

// OpenSQLite opens (and migrates) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err = migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db}, nil
}

func migrate(db *sql.DB) error {
	b, err := ddl.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(b))
	return err
}

// Load returns the stored document or an empty one.
func (d *SQLite) Load() (*Document, error) {
	var body string
	err := d.QueryRow(`SELECT body FROM documents WHERE name = ?`, documentName).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, err
	}
	doc := NewDocument()
	if err := json.Unmarshal([]byte(body), doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return doc, nil
}

// Save upserts the document row.
func (d *SQLite) Save(doc *Document) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = d.Exec(`
        INSERT INTO documents (name, body, updated_at) VALUES (?,?,?)
        ON CONFLICT(name) DO UPDATE SET body=excluded.body, updated_at=excluded.updated_at
    `, documentName, string(b), time.Now().Unix())
	return err
}
