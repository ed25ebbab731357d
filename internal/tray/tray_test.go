package tray

import (
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/fingercount/internal/app"
	"github.com/ayusman/fingercount/internal/detector"
)

func TestTray_Toggle(t *testing.T) {
	tr := New()

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	if !tr.IsEnabled() {
		t.Fatal("new tray should be enabled")
	}

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || got[0] != false || got[1] != true {
		t.Errorf("toggle callbacks = %v, want [false true]", got)
	}
	if !tr.IsEnabled() {
		t.Error("two toggles should leave the tray enabled")
	}
}

func TestTray_Dashboard(t *testing.T) {
	tr := New()

	called := false
	tr.OnDashboard(func() { called = true })
	tr.handleDashboard()

	if !called {
		t.Error("dashboard callback not called")
	}
}

func TestTray_Consume(t *testing.T) {
	tr := New()
	frame := gocv.NewMat()
	defer frame.Close()

	if err := tr.Consume(frame, &detector.Result{Fingers: 3, Status: detector.StatusOK}); err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if tr.Fingers() != 3 {
		t.Errorf("Fingers() = %d, want 3", tr.Fingers())
	}
}

func TestLabels(t *testing.T) {
	tests := []struct {
		fingers int
		status  detector.Status
		want    string
	}{
		{fingers: 4, status: detector.StatusOK, want: "Fingers: 4"},
		{fingers: 0, status: detector.StatusNoCandidate, want: "Fingers: no hand"},
		{fingers: 0, status: detector.StatusTooSmall, want: "Fingers: 0 (too_small)"},
	}

	for _, tt := range tests {
		if got := fingersLabel(tt.fingers, tt.status); got != tt.want {
			t.Errorf("fingersLabel(%d, %v) = %q, want %q", tt.fingers, tt.status, got, tt.want)
		}
	}

	if toggleLabel(true) == toggleLabel(false) {
		t.Error("toggle labels should differ")
	}
}

func TestTray_IsSink(t *testing.T) {
	var _ app.Sink = (*Tray)(nil)
}
