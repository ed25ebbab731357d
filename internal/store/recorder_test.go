package store

import (
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/fingercount/internal/app"
	"github.com/ayusman/fingercount/internal/detector"
)

func TestRecorder(t *testing.T) {
	s := newTestStore(t)
	rec := NewRecorder(s, 1, 2)

	if rec.Session() != nil {
		t.Fatal("no session before the first frame")
	}

	results := []*detector.Result{
		{Fingers: 5, Status: detector.StatusOK, Contour: &detector.Contour{Area: 30000}, Defects: make([]detector.Defect, 4)},
		{Fingers: 0, Status: detector.StatusNoCandidate},
		{Fingers: 1, Status: detector.StatusOK, Contour: &detector.Contour{Area: 20000}},
	}

	frame := gocv.NewMat()
	defer frame.Close()

	for _, res := range results {
		if err := rec.Consume(frame, res); err != nil {
			t.Fatalf("Consume() error = %v", err)
		}
	}

	sess := rec.Session()
	if sess == nil {
		t.Fatal("session should exist after the first frame")
	}

	// Two readings flushed as one batch, the third still buffered
	readings, _ := s.Readings().ListBySession(sess.ID)
	if len(readings) != 2 {
		t.Fatalf("expected 2 flushed readings, got %d", len(readings))
	}
	if readings[0].Fingers != 5 || readings[0].Area != 30000 || readings[0].Defects != 4 {
		t.Errorf("first reading = %+v", readings[0])
	}
	if readings[1].Status != "no_candidate" {
		t.Errorf("second reading status = %q", readings[1].Status)
	}

	if err := rec.EndSession(); err != nil {
		t.Fatalf("EndSession() error = %v", err)
	}

	readings, _ = s.Readings().ListBySession(sess.ID)
	if len(readings) != 3 {
		t.Errorf("expected 3 readings after EndSession, got %d", len(readings))
	}

	got, err := s.Sessions().GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.EndedAt == nil || got.Frames != 3 || got.DeviceID != 1 {
		t.Errorf("session = %+v", got)
	}

	// The next frame opens a new session
	if err := rec.Consume(frame, results[0]); err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if next := rec.Session(); next == nil || next.ID == sess.ID {
		t.Error("expected a new session after EndSession")
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}

	sessions, _ := s.Sessions().List()
	if len(sessions) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(sessions))
	}
}

func TestRecorder_ImplementsSink(t *testing.T) {
	var _ app.Sink = (*Recorder)(nil)
	var _ app.SessionEnder = (*Recorder)(nil)
}
