package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ayusman/fingercount/internal/detector"
	"github.com/ayusman/fingercount/internal/store"
)

// Configurer reads and replaces the active detector configuration.
type Configurer interface {
	DetectorConfig() detector.Config
	Reconfigure(cfg detector.Config) error
}

// ConfigHandler handles GET and PUT of the detector configuration.
type ConfigHandler struct {
	target Configurer
	store  *store.Store
}

// NewConfigHandler creates a ConfigHandler. A nil store disables persistence.
func NewConfigHandler(target Configurer, s *store.Store) *ConfigHandler {
	return &ConfigHandler{target: target, store: s}
}

// ServeHTTP implements the http.Handler interface.
func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.target.DetectorConfig())
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// update handles PUT /api/config. Fields missing from the body keep their
// current value.
func (h *ConfigHandler) update(w http.ResponseWriter, r *http.Request) {
	cfg := h.target.DetectorConfig()
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.target.Reconfigure(cfg); err != nil {
		if errors.Is(err, detector.ErrInvalidConfig) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to apply configuration")
		return
	}

	if h.store != nil {
		if err := h.store.Settings().SetDetectorConfig(cfg); err != nil {
			log.Printf("Error saving detector config: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to save configuration")
			return
		}
	}

	writeJSON(w, http.StatusOK, cfg)
}
