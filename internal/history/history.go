// Package history persists completed study sessions in a SQLite database so
// past work can be browsed from the CLI and the HTTP API.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a record ID does not exist.
var ErrNotFound = errors.New("history record not found")

// Session kinds stored in the archive.
const (
	KindLearning   = "learning"
	KindVideo      = "video"
	KindAssessment = "assessment"
)

// Record is one archived study session.
type Record struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Topic      string `json:"topic"`
	Language   string `json:"language"`
	Level      string `json:"level"`
	Summary    string `json:"summary"`
	Evaluation string `json:"evaluation,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// Store wraps the SQLite connection.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the archive location under the data directory.
func DefaultDBPath(dataDir string) string {
	return filepath.Join(dataDir, "history.db")
}

// Open creates or opens the archive at the given path and ensures the schema
// exists. WAL mode keeps reads cheap while the CLI writes.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite handles one writer at a time

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		topic TEXT NOT NULL,
		language TEXT NOT NULL,
		level TEXT NOT NULL,
		summary TEXT NOT NULL,
		evaluation TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);`
	_, err := db.Exec(schema)
	return err
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add archives a session. A missing ID or timestamp is filled in, and the
// assigned ID is returned.
func (s *Store) Add(rec *Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}

	_, err := s.db.Exec(
		`INSERT INTO sessions (id, kind, topic, language, level, summary, evaluation, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Kind, rec.Topic, rec.Language, rec.Level, rec.Summary, rec.Evaluation, rec.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return rec.ID, nil
}

// List returns sessions newest first. A non-positive limit returns all.
func (s *Store) List(limit int) ([]Record, error) {
	query := `SELECT id, kind, topic, language, level, summary, evaluation, created_at
		FROM sessions ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Kind, &r.Topic, &r.Language, &r.Level, &r.Summary, &r.Evaluation, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// Get fetches one session by ID.
func (s *Store) Get(id string) (*Record, error) {
	var r Record
	err := s.db.QueryRow(
		`SELECT id, kind, topic, language, level, summary, evaluation, created_at
		 FROM sessions WHERE id = ?`, id).
		Scan(&r.ID, &r.Kind, &r.Topic, &r.Language, &r.Level, &r.Summary, &r.Evaluation, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &r, nil
}

// Delete removes one session by ID.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}
