package store

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/assessor/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func recordTestSubmission(t *testing.T, s *Store, offset time.Duration, state model.CallState, kind string) model.Submission {
	t.Helper()
	sub, err := s.RecordSubmission(model.Submission{
		CreatedAt:      baseTime.Add(offset),
		TextLength:     12,
		MediaType:      "application/pdf",
		AttachmentSize: 2048,
		PageCount:      3,
		Backend:        "gemini",
		Model:          "gemini-2.5-flash",
		State:          state,
		ErrorKind:      kind,
		DurationMS:     1500,
	})
	if err != nil {
		t.Fatalf("recordTestSubmission: %v", err)
	}
	return sub
}

func TestRecordAndGetSubmission(t *testing.T) {
	s := newTestStore(t)

	count, err := s.SubmissionCount()
	if err != nil {
		t.Fatalf("SubmissionCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 submissions, got %d", count)
	}

	sub := recordTestSubmission(t, s, 0, model.CallSucceeded, "")
	if _, err := uuid.Parse(sub.ID); err != nil {
		t.Errorf("expected a generated UUID, got %q", sub.ID)
	}

	got, err := s.GetSubmission(sub.ID)
	if err != nil {
		t.Fatalf("GetSubmission: %v", err)
	}
	if !got.CreatedAt.Equal(baseTime) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, baseTime)
	}
	if got.MediaType != "application/pdf" || got.AttachmentSize != 2048 || got.PageCount != 3 {
		t.Errorf("attachment metadata not kept: %+v", got)
	}
	if got.State != model.CallSucceeded || got.ErrorKind != "" {
		t.Errorf("state = %q kind = %q", got.State, got.ErrorKind)
	}
	if got.Backend != "gemini" || got.DurationMS != 1500 {
		t.Errorf("unexpected row %+v", got)
	}

	_, err = s.GetSubmission("missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
}

func TestRecordSubmissionDefaults(t *testing.T) {
	s := newTestStore(t)

	before := time.Now().Add(-time.Second)
	sub, err := s.RecordSubmission(model.Submission{ID: "fixed-id", State: model.CallFailed, ErrorKind: "backend"})
	if err != nil {
		t.Fatalf("RecordSubmission: %v", err)
	}
	if sub.ID != "fixed-id" {
		t.Errorf("explicit ID should be kept, got %q", sub.ID)
	}
	if sub.CreatedAt.Before(before) {
		t.Errorf("CreatedAt should default to now, got %v", sub.CreatedAt)
	}

	if _, err := s.RecordSubmission(model.Submission{ID: "fixed-id", State: model.CallFailed}); err == nil {
		t.Error("expected duplicate ID to fail")
	}
	if _, err := s.RecordSubmission(model.Submission{}); err == nil {
		t.Error("expected empty state to fail")
	}
}

func TestListSubmissions(t *testing.T) {
	s := newTestStore(t)
	oldest := recordTestSubmission(t, s, 0, model.CallSucceeded, "")
	middle := recordTestSubmission(t, s, time.Minute, model.CallFailed, "backend")
	newest := recordTestSubmission(t, s, 2*time.Minute, model.CallFailed, "response_format")

	tests := []struct {
		name    string
		limit   int
		wantIDs []string
	}{
		{"all", 0, []string{newest.ID, middle.ID, oldest.ID}},
		{"negative means all", -1, []string{newest.ID, middle.ID, oldest.ID}},
		{"limited", 2, []string{newest.ID, middle.ID}},
		{"limit above count", 10, []string{newest.ID, middle.ID, oldest.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs, err := s.ListSubmissions(tt.limit)
			if err != nil {
				t.Fatalf("ListSubmissions: %v", err)
			}
			if len(subs) != len(tt.wantIDs) {
				t.Fatalf("expected %d submissions, got %d", len(tt.wantIDs), len(subs))
			}
			for i, id := range tt.wantIDs {
				if subs[i].ID != id {
					t.Errorf("position %d: got %s, want %s", i, subs[i].ID, id)
				}
			}
		})
	}

	count, _ := s.SubmissionCount()
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
}

func TestMetadata(t *testing.T) {
	s := newTestStore(t)

	v, err := s.GetMetadata("schema_version")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if v != SchemaVersion {
		t.Errorf("schema_version = %q, want %q", v, SchemaVersion)
	}

	v, err = s.GetMetadata("missing")
	if err != nil || v != "" {
		t.Errorf("missing key: got %q, %v", v, err)
	}

	if err := s.SetMetadata("deployment", "school-a"); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	if err := s.SetMetadata("deployment", "school-b"); err != nil {
		t.Fatalf("SetMetadata update: %v", err)
	}
	v, _ = s.GetMetadata("deployment")
	if v != "school-b" {
		t.Errorf("expected 'school-b', got %q", v)
	}
}

func TestExportSubmissions(t *testing.T) {
	s := newTestStore(t)

	exp, err := s.ExportSubmissions()
	if err != nil {
		t.Fatalf("ExportSubmissions empty: %v", err)
	}
	if exp.Count != 0 || len(exp.Submissions) != 0 || exp.Deployment != nil {
		t.Errorf("expected empty export, got %+v", exp)
	}

	first := recordTestSubmission(t, s, 0, model.CallSucceeded, "")
	second := recordTestSubmission(t, s, time.Hour, model.CallFailed, "encoding")

	exp, err = s.ExportSubmissions()
	if err != nil {
		t.Fatalf("ExportSubmissions: %v", err)
	}
	if exp.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %q", exp.SchemaVersion)
	}
	if exp.Count != 2 {
		t.Fatalf("Count = %d, want 2", exp.Count)
	}
	if exp.Submissions[0].ID != first.ID || exp.Submissions[1].ID != second.ID {
		t.Errorf("export should be oldest first, got %s, %s", exp.Submissions[0].ID, exp.Submissions[1].ID)
	}
	if exp.ExportedAt.IsZero() {
		t.Error("ExportedAt should be set")
	}

	if err := s.SetDeployment(model.Deployment{Backend: "openai", Model: "gpt-4o-mini", Lang: "en", StartedAt: baseTime}); err != nil {
		t.Fatalf("SetDeployment: %v", err)
	}
	exp, _ = s.ExportSubmissions()
	if exp.Deployment == nil || exp.Deployment.Backend != "openai" {
		t.Errorf("export deployment = %+v", exp.Deployment)
	}
}

func TestDeployment(t *testing.T) {
	s := newTestStore(t)

	d, err := s.Deployment()
	if err != nil || d != nil {
		t.Fatalf("fresh store: got %+v, %v", d, err)
	}

	want := model.Deployment{Backend: "gemini", Model: "gemini-2.5-flash", Lang: "zh-TW", StartedAt: baseTime}
	if err := s.SetDeployment(want); err != nil {
		t.Fatalf("SetDeployment: %v", err)
	}
	want.Model = "gemini-2.5-pro"
	want.StartedAt = baseTime.Add(time.Hour)
	if err := s.SetDeployment(want); err != nil {
		t.Fatalf("SetDeployment again: %v", err)
	}

	d, err = s.Deployment()
	if err != nil {
		t.Fatalf("Deployment: %v", err)
	}
	if d == nil || d.Backend != want.Backend || d.Model != want.Model || d.Lang != want.Lang || !d.StartedAt.Equal(want.StartedAt) {
		t.Errorf("Deployment = %+v, want %+v", d, want)
	}

	if err := s.SetMetadata(keyStartedAt, "yesterday"); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	if _, err := s.Deployment(); err == nil {
		t.Error("expected an error for a malformed start time")
	}
}

func TestReopenFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assessor.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sub := recordTestSubmission(t, s, 0, model.CallSucceeded, "")
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.GetSubmission(sub.ID); err != nil {
		t.Errorf("submission lost after reopen: %v", err)
	}
}
