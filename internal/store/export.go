package store

import (
	"fmt"
	"time"

	"github.com/pavelanni/assessor/internal/model"
)

// ExportSubmissions builds the export document for the whole log,
// oldest first.
func (s *Store) ExportSubmissions() (model.SubmissionExport, error) {
	subs, err := s.ListSubmissions(0)
	if err != nil {
		return model.SubmissionExport{}, fmt.Errorf("list submissions: %w", err)
	}
	version, err := s.GetMetadata(keySchemaVersion)
	if err != nil {
		return model.SubmissionExport{}, fmt.Errorf("read schema version: %w", err)
	}
	dep, err := s.Deployment()
	if err != nil {
		return model.SubmissionExport{}, fmt.Errorf("read deployment: %w", err)
	}

	// ListSubmissions is newest first.
	ordered := make([]model.Submission, len(subs))
	for i, sub := range subs {
		ordered[len(subs)-1-i] = sub
	}

	return model.SubmissionExport{
		ExportedAt:    time.Now().UTC(),
		SchemaVersion: version,
		Deployment:    dep,
		Count:         len(ordered),
		Submissions:   ordered,
	}, nil
}
