package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/fingercount/internal/app"
	"github.com/ayusman/fingercount/internal/capture"
	"github.com/ayusman/fingercount/internal/detector"
	"github.com/ayusman/fingercount/internal/server"
	"github.com/ayusman/fingercount/internal/store"
	"github.com/ayusman/fingercount/internal/testutil"
)

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "data.db")

	s, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	// Five open hands, two fingers, then an empty region
	region := detector.DefaultConfig().Region.Rect()
	var frames []*gocv.Mat
	frames = append(frames, testutil.Sequence(5, func(f *gocv.Mat) { testutil.DrawHand(f, region, 5) })...)
	frames = append(frames, testutil.Sequence(3, func(f *gocv.Mat) { testutil.DrawHand(f, region, 2) })...)
	frames = append(frames, testutil.Sequence(2, func(*gocv.Mat) {})...)
	defer testutil.CloseAll(frames)

	cfg := app.DefaultConfig()
	cfg.FPS = 100
	application, err := app.New(cfg)
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	defer application.Close()
	application.SetCamera(capture.NewMockCamera(frames, false))

	recorder := store.NewRecorder(s, 0, 4)
	broadcaster := server.NewBroadcaster()
	defer broadcaster.Close()

	application.AddSink(recorder)
	application.AddSink(broadcaster)

	srv := server.New(server.Config{
		Store:       s,
		App:         application,
		Broadcaster: broadcaster,
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	t.Run("RunPipeline", func(t *testing.T) {
		if err := application.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		last := application.LastResult()
		if last.Frame != len(frames) {
			t.Errorf("LastResult().Frame = %d, want %d", last.Frame, len(frames))
		}
		if last.Fingers != 0 || last.Status != detector.StatusNoCandidate {
			t.Errorf("last frame = %d fingers (%v), want 0 no_candidate", last.Fingers, last.Status)
		}
	})

	var sessionID string

	t.Run("ListSessions", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/sessions")
		if err != nil {
			t.Fatalf("list sessions error = %v", err)
		}
		defer resp.Body.Close()

		var result struct {
			Sessions []store.Session `json:"sessions"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("decode error = %v", err)
		}

		if len(result.Sessions) != 1 {
			t.Fatalf("got %d sessions, want 1", len(result.Sessions))
		}
		sess := result.Sessions[0]
		if sess.EndedAt == nil {
			t.Error("session should be ended when the pipeline stops")
		}
		if sess.Frames != len(frames) {
			t.Errorf("Frames = %d, want %d", sess.Frames, len(frames))
		}
		sessionID = sess.ID
	})

	t.Run("SessionSummary", func(t *testing.T) {
		if sessionID == "" {
			t.Skip("no session recorded")
		}

		resp, err := client.Get(ts.URL + "/api/sessions/" + sessionID)
		if err != nil {
			t.Fatalf("get session error = %v", err)
		}
		defer resp.Body.Close()

		var result struct {
			Summary store.Summary `json:"summary"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("decode error = %v", err)
		}

		sum := result.Summary
		if sum.Frames != 10 || sum.Detected != 8 {
			t.Errorf("frames/detected = %d/%d, want 10/8", sum.Frames, sum.Detected)
		}
		if sum.Mode != 5 {
			t.Errorf("Mode = %d, want 5", sum.Mode)
		}
		want := [store.MaxFingers + 1]int{2, 0, 3, 0, 0, 5}
		if sum.Histogram != want {
			t.Errorf("Histogram = %v, want %v", sum.Histogram, want)
		}
	})

	t.Run("Chart", func(t *testing.T) {
		if sessionID == "" {
			t.Skip("no session recorded")
		}

		resp, err := client.Get(ts.URL + "/api/sessions/" + sessionID + "/chart")
		if err != nil {
			t.Fatalf("get chart error = %v", err)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if !strings.Contains(string(body), "echarts") {
			t.Error("chart page should load echarts")
		}
	})

	t.Run("Snapshot", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/snapshot")
		if err != nil {
			t.Fatalf("get snapshot error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("Content-Type = %q, want image/jpeg", ct)
		}
	})

	t.Run("Status", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/status")
		if err != nil {
			t.Fatalf("get status error = %v", err)
		}
		defer resp.Body.Close()

		var status struct {
			State   string `json:"state"`
			Enabled bool   `json:"enabled"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			t.Fatalf("decode error = %v", err)
		}
		if status.State != "stopped" || !status.Enabled {
			t.Errorf("status = %+v, want stopped and enabled", status)
		}
	})
}
