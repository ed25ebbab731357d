package server

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/disintegration/imaging"
)

// maxSnapshotWidth bounds the width query parameter.
const maxSnapshotWidth = 1920

// SnapshotHandler serves the latest annotated frame as a single JPEG,
// optionally scaled down to a thumbnail.
type SnapshotHandler struct {
	source *Broadcaster
}

// NewSnapshotHandler creates a new SnapshotHandler reading from b.
func NewSnapshotHandler(b *Broadcaster) *SnapshotHandler {
	return &SnapshotHandler{source: b}
}

// ServeHTTP handles GET /api/snapshot[?width=N].
func (h *SnapshotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	width := 0
	if v := r.URL.Query().Get("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxSnapshotWidth {
			http.Error(w, "Invalid width", http.StatusBadRequest)
			return
		}
		width = n
	}

	jpeg, _ := h.source.Latest()
	if jpeg == nil {
		http.Error(w, "No frame available", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")

	if width == 0 {
		w.Write(jpeg)
		return
	}

	img, err := imaging.Decode(bytes.NewReader(jpeg))
	if err != nil {
		http.Error(w, "Failed to decode frame", http.StatusInternalServerError)
		return
	}
	if width < img.Bounds().Dx() {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(85))
}
