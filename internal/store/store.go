package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/assessor/internal/model"

	_ "modernc.org/sqlite"
)

// SchemaVersion is written to the metadata table on migrate.
const SchemaVersion = "1"

// Store is the submission log.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS submissions (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		text_length INTEGER NOT NULL DEFAULT 0,
		media_type TEXT NOT NULL DEFAULT '',
		attachment_size INTEGER NOT NULL DEFAULT 0,
		page_count INTEGER NOT NULL DEFAULT 0,
		backend TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL,
		error_kind TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL DEFAULT ''
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.SetMetadata(keySchemaVersion, SchemaVersion)
}

// RecordSubmission appends one call to the log. An empty ID gets a fresh
// UUID and a zero CreatedAt is set to now. The stored row is returned.
func (s *Store) RecordSubmission(sub model.Submission) (model.Submission, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	sub.CreatedAt = sub.CreatedAt.UTC()
	if sub.State == "" {
		return sub, fmt.Errorf("record submission %s: empty state", sub.ID)
	}
	_, err := s.db.Exec(
		`INSERT INTO submissions (id, created_at, text_length, media_type, attachment_size, page_count,
		                          backend, model, state, error_kind, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.CreatedAt, sub.TextLength, sub.MediaType, sub.AttachmentSize, sub.PageCount,
		sub.Backend, sub.Model, sub.State, sub.ErrorKind, sub.DurationMS,
	)
	if err != nil {
		return sub, fmt.Errorf("record submission %s: %w", sub.ID, err)
	}
	return sub, nil
}

const submissionColumns = `id, created_at, text_length, media_type, attachment_size, page_count,
	backend, model, state, error_kind, duration_ms`

// ListSubmissions returns up to limit submissions, newest first.
// A limit of zero or less returns all of them.
func (s *Store) ListSubmissions(limit int) ([]model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []model.Submission
	for rows.Next() {
		var sub model.Submission
		if err := rows.Scan(&sub.ID, &sub.CreatedAt, &sub.TextLength, &sub.MediaType, &sub.AttachmentSize,
			&sub.PageCount, &sub.Backend, &sub.Model, &sub.State, &sub.ErrorKind, &sub.DurationMS); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// GetSubmission returns a submission by ID.
func (s *Store) GetSubmission(id string) (model.Submission, error) {
	var sub model.Submission
	err := s.db.QueryRow(
		`SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.TextLength, &sub.MediaType, &sub.AttachmentSize,
		&sub.PageCount, &sub.Backend, &sub.Model, &sub.State, &sub.ErrorKind, &sub.DurationMS)
	return sub, err
}

// SubmissionCount returns the number of logged submissions.
func (s *Store) SubmissionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM submissions`).Scan(&count)
	return count, err
}
