package server

import (
	"fmt"
	"net/http"
)

// StreamHandler serves the annotated frames of a Broadcaster as MJPEG.
type StreamHandler struct {
	source *Broadcaster
}

// NewStreamHandler creates a new StreamHandler reading from b.
func NewStreamHandler(b *Broadcaster) *StreamHandler {
	return &StreamHandler{source: b}
}

// ServeHTTP streams MJPEG frames to connected clients. A frame is written
// each time the pipeline publishes one.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for {
		jpeg, next := h.source.Latest()

		if jpeg != nil {
			// Write MJPEG frame
			fmt.Fprintf(w, "--frame\r\n")
			fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
			fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(jpeg))
			if _, err := w.Write(jpeg); err != nil {
				return
			}
			fmt.Fprintf(w, "\r\n")

			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-next:
		}
	}
}
