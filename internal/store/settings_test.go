package store

import (
	"errors"
	"testing"

	"github.com/ayusman/fingercount/internal/detector"
)

func TestSettingsRepository_GetSet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if _, err := repo.Get("theme"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}

	if err := repo.Set("theme", "dark"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set("theme", "light"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	got, err := repo.Get("theme")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "light" {
		t.Errorf("Get() = %q, want light", got)
	}
}

func TestSettingsRepository_DetectorConfig(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	t.Run("defaults when unset", func(t *testing.T) {
		cfg, err := repo.DetectorConfig()
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("DetectorConfig() = %v, want ErrNotFound", err)
		}
		if cfg != detector.DefaultConfig() {
			t.Error("unset config should return defaults")
		}
	})

	t.Run("round trip", func(t *testing.T) {
		cfg := detector.DefaultConfig()
		cfg.Region = detector.Region{X: 0, Y: 0, W: 200, H: 240}
		cfg.DefectDepth = 7000
		cfg.AnalyzeApprox = true

		if err := repo.SetDetectorConfig(cfg); err != nil {
			t.Fatalf("SetDetectorConfig() error = %v", err)
		}

		got, err := repo.DetectorConfig()
		if err != nil {
			t.Fatalf("DetectorConfig() error = %v", err)
		}
		if got != cfg {
			t.Errorf("DetectorConfig() = %+v, want %+v", got, cfg)
		}
	})

	t.Run("invalid config rejected", func(t *testing.T) {
		cfg := detector.DefaultConfig()
		cfg.KernelSize = 0

		if err := repo.SetDetectorConfig(cfg); !errors.Is(err, detector.ErrInvalidConfig) {
			t.Errorf("SetDetectorConfig() = %v, want ErrInvalidConfig", err)
		}
	})

	t.Run("corrupt value", func(t *testing.T) {
		if err := repo.Set(DetectorConfigKey, "{not json"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		cfg, err := repo.DetectorConfig()
		if err == nil {
			t.Error("expected decode error")
		}
		if cfg != detector.DefaultConfig() {
			t.Error("corrupt value should fall back to defaults")
		}
	})
}
