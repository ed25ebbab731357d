package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/fingercount/internal/detector"
)

// DetectorConfigKey is the settings key holding the detector configuration.
const DetectorConfigKey = "detector_config"

// SettingsRepository stores application settings as key-value pairs.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value stored under key.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// DetectorConfig loads the persisted detector configuration merged over the
// defaults. It returns ErrNotFound when nothing was saved yet.
func (r *SettingsRepository) DetectorConfig() (detector.Config, error) {
	cfg := detector.DefaultConfig()

	value, err := r.Get(DetectorConfigKey)
	if err != nil {
		return cfg, err
	}

	if err := json.Unmarshal([]byte(value), &cfg); err != nil {
		return detector.DefaultConfig(), fmt.Errorf("decode %s: %w", DetectorConfigKey, err)
	}
	if err := cfg.Validate(); err != nil {
		return detector.DefaultConfig(), err
	}

	return cfg, nil
}

// SetDetectorConfig validates and persists cfg.
func (r *SettingsRepository) SetDetectorConfig(cfg detector.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return r.Set(DetectorConfigKey, string(data))
}
