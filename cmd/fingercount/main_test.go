package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/fingercount/internal/detector"
	"github.com/ayusman/fingercount/internal/store"
)

func TestDashboardURL(t *testing.T) {
	tests := map[string]string{
		"":               "",
		":8080":          "http://localhost:8080/",
		"127.0.0.1:9000": "http://127.0.0.1:9000/",
	}

	for listen, want := range tests {
		if got := dashboardURL(listen); got != want {
			t.Errorf("dashboardURL(%q) = %q, want %q", listen, got, want)
		}
	}
}

func TestLoadDetectorConfig(t *testing.T) {
	dir := t.TempDir()

	st, err := store.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()

	t.Run("defaults without saved settings", func(t *testing.T) {
		cfg, err := loadDetectorConfig(st, "")
		if err != nil {
			t.Fatalf("loadDetectorConfig() error = %v", err)
		}
		if cfg != detector.DefaultConfig() {
			t.Errorf("cfg = %+v, want defaults", cfg)
		}
	})

	saved := detector.DefaultConfig()
	saved.DefectDepth = 7000
	saved.MaxFingers = 4
	if err := st.Settings().SetDetectorConfig(saved); err != nil {
		t.Fatalf("SetDetectorConfig() error = %v", err)
	}

	t.Run("saved settings", func(t *testing.T) {
		cfg, err := loadDetectorConfig(st, "")
		if err != nil {
			t.Fatalf("loadDetectorConfig() error = %v", err)
		}
		if cfg != saved {
			t.Errorf("cfg = %+v, want saved %+v", cfg, saved)
		}
	})

	t.Run("file overrides saved settings", func(t *testing.T) {
		path := filepath.Join(dir, "cfg.json")
		if err := os.WriteFile(path, []byte(`{"max_fingers": 2}`), 0644); err != nil {
			t.Fatalf("write config: %v", err)
		}

		cfg, err := loadDetectorConfig(st, path)
		if err != nil {
			t.Fatalf("loadDetectorConfig() error = %v", err)
		}
		if cfg.MaxFingers != 2 || cfg.DefectDepth != 7000 {
			t.Errorf("cfg = %+v, want file max_fingers over saved defect_depth", cfg)
		}
	})

	t.Run("invalid file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(path, []byte(`{"kernel_size": 2}`), 0644); err != nil {
			t.Fatalf("write config: %v", err)
		}

		if _, err := loadDetectorConfig(st, path); err == nil {
			t.Error("expected validation error")
		}
	})
}
