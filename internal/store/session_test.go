package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newTestStore creates a new Store in a temporary directory for testing.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "fingercount-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(tmpDir)
	})

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestSessionRepository_Create(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess, err := repo.Create(2)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	if len(sess.ID) != 36 {
		t.Errorf("ID = %q, want a UUID", sess.ID)
	}
	if sess.StartedAt.IsZero() {
		t.Error("StartedAt should be set after create")
	}

	got, err := repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("failed to get session: %v", err)
	}
	if got.DeviceID != 2 {
		t.Errorf("DeviceID = %d, want 2", got.DeviceID)
	}
	if got.EndedAt != nil {
		t.Errorf("EndedAt = %v, want nil for an open session", got.EndedAt)
	}
	if got.Frames != 0 {
		t.Errorf("Frames = %d, want 0", got.Frames)
	}
}

func TestSessionRepository_End(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess, err := repo.Create(0)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	if err := repo.End(sess.ID, 42); err != nil {
		t.Fatalf("failed to end session: %v", err)
	}

	got, err := repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("failed to get session: %v", err)
	}
	if got.EndedAt == nil {
		t.Fatal("EndedAt should be set after End")
	}
	if got.EndedAt.Before(got.StartedAt) {
		t.Errorf("EndedAt %v before StartedAt %v", got.EndedAt, got.StartedAt)
	}
	if got.Frames != 42 {
		t.Errorf("Frames = %d, want 42", got.Frames)
	}

	if err := repo.End("missing", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("End(missing) = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Sessions().GetByID("non-existent-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sessions, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("expected empty list, got %d sessions", len(sessions))
	}

	first, _ := repo.Create(0)
	time.Sleep(10 * time.Millisecond)
	second, _ := repo.Create(1)

	sessions, err = repo.List()
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != second.ID || sessions[1].ID != first.ID {
		t.Error("sessions should be listed newest first")
	}
}

func TestSessionRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess, _ := repo.Create(0)
	err := s.Readings().CreateBatch([]Reading{
		{SessionID: sess.ID, Frame: 1, Fingers: 2, Status: "ok", CreatedAt: time.Now()},
	})
	if err != nil {
		t.Fatalf("failed to create readings: %v", err)
	}

	if err := repo.Delete(sess.ID); err != nil {
		t.Fatalf("failed to delete session: %v", err)
	}

	if _, err := repo.GetByID(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Readings are removed with the session
	readings, err := s.Readings().ListBySession(sess.ID)
	if err != nil {
		t.Fatalf("failed to list readings: %v", err)
	}
	if len(readings) != 0 {
		t.Errorf("expected readings to cascade, got %d", len(readings))
	}

	if err := repo.Delete(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestReadingRepository_CreateBatch(t *testing.T) {
	s := newTestStore(t)
	sess, _ := s.Sessions().Create(0)

	now := time.Now()
	batch := []Reading{
		{SessionID: sess.ID, Frame: 2, Fingers: 3, Status: "ok", Area: 5000, Defects: 4, CreatedAt: now},
		{SessionID: sess.ID, Frame: 1, Fingers: 0, Status: "no_candidate", CreatedAt: now},
	}
	if err := s.Readings().CreateBatch(batch); err != nil {
		t.Fatalf("failed to create readings: %v", err)
	}

	readings, err := s.Readings().ListBySession(sess.ID)
	if err != nil {
		t.Fatalf("failed to list readings: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(readings))
	}
	if readings[0].Frame != 1 || readings[1].Frame != 2 {
		t.Error("readings should be ordered by frame")
	}
	if readings[1].Fingers != 3 || readings[1].Area != 5000 || readings[1].Defects != 4 {
		t.Errorf("reading = %+v", readings[1])
	}

	if err := s.Readings().CreateBatch(nil); err != nil {
		t.Errorf("empty batch should be a no-op, got %v", err)
	}
}

func TestReadingRepository_RejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	sess, _ := s.Sessions().Create(0)

	tests := []struct {
		name    string
		reading Reading
	}{
		{name: "unknown session", reading: Reading{SessionID: "nope", Frame: 1, Status: "ok"}},
		{name: "count above five", reading: Reading{SessionID: sess.ID, Frame: 1, Fingers: 6, Status: "ok"}},
		{name: "negative count", reading: Reading{SessionID: sess.ID, Frame: 1, Fingers: -1, Status: "ok"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.reading.CreatedAt = time.Now()
			if err := s.Readings().CreateBatch([]Reading{tt.reading}); err == nil {
				t.Error("expected error")
			}
		})
	}

	// A failed batch writes nothing
	readings, _ := s.Readings().ListBySession(sess.ID)
	if len(readings) != 0 {
		t.Errorf("expected no readings, got %d", len(readings))
	}
}
