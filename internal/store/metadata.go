package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pavelanni/assessor/internal/model"
)

// Metadata keys.
const (
	keySchemaVersion = "schema_version"
	keyBackend       = "backend"
	keyModel         = "model"
	keyLang          = "lang"
	keyStartedAt     = "started_at"
)

// SetMetadata stores value under key, replacing any previous value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// GetMetadata reads the value stored under key. A missing key reads as "".
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	switch err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value); {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("metadata %q: %w", key, err)
	}
	return value, nil
}

// SetDeployment records the serving backend, model and language in one
// transaction.
func (s *Store) SetDeployment(d model.Deployment) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rows := map[string]string{
		keyBackend:   d.Backend,
		keyModel:     d.Model,
		keyLang:      d.Lang,
		keyStartedAt: d.StartedAt.UTC().Format(time.RFC3339),
	}
	for k, v := range rows {
		if _, err := tx.Exec(
			`INSERT INTO metadata (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v); err != nil {
			return fmt.Errorf("metadata %q: %w", k, err)
		}
	}
	return tx.Commit()
}

// Deployment returns the last recorded deployment, or nil if no server
// has written one.
func (s *Store) Deployment() (*model.Deployment, error) {
	var d model.Deployment
	var started string
	for _, f := range []struct {
		key string
		dst *string
	}{
		{keyBackend, &d.Backend},
		{keyModel, &d.Model},
		{keyLang, &d.Lang},
		{keyStartedAt, &started},
	} {
		v, err := s.GetMetadata(f.key)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	if started == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, started)
	if err != nil {
		return nil, fmt.Errorf("metadata %q: %w", keyStartedAt, err)
	}
	d.StartedAt = t
	return &d, nil
}
