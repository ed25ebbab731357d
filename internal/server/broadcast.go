package server

import (
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/fingercount/internal/app"
	"github.com/ayusman/fingercount/internal/detector"
	"github.com/ayusman/fingercount/internal/display"
)

// Broadcaster is a pipeline sink that keeps the latest annotated frame as
// JPEG for the MJPEG stream and fans every result out to WebSocket clients.
type Broadcaster struct {
	results *ResultsHandler
	canvas  gocv.Mat

	mu      sync.Mutex
	frames  int
	jpeg    []byte
	summary app.Summary
	updated chan struct{}
}

// NewBroadcaster creates a Broadcaster with its own results hub.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		results: NewResultsHandler(),
		canvas:  gocv.NewMat(),
		updated: make(chan struct{}),
	}
}

// Consume annotates a copy of frame, encodes it and publishes the result.
func (b *Broadcaster) Consume(frame gocv.Mat, res *detector.Result) error {
	frame.CopyTo(&b.canvas)
	display.Annotate(&b.canvas, res.Region, res)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, b.canvas)
	if err != nil {
		return err
	}
	jpeg := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	b.mu.Lock()
	b.frames++
	sum := app.NewSummary(b.frames, res, time.Now())
	b.jpeg = jpeg
	b.summary = sum
	close(b.updated)
	b.updated = make(chan struct{})
	b.mu.Unlock()

	b.results.Publish(sum)
	return nil
}

// EndSession restarts frame numbering so it follows the App's count for the
// next Running period. The last frame stays available.
func (b *Broadcaster) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = 0
	return nil
}

// Latest returns the most recent JPEG frame, nil before the first one, and
// a channel that is closed when a newer frame arrives.
func (b *Broadcaster) Latest() ([]byte, <-chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.jpeg, b.updated
}

// Summary returns the most recently published result.
func (b *Broadcaster) Summary() app.Summary {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.summary
}

// Results returns the WebSocket handler fed by this broadcaster.
func (b *Broadcaster) Results() *ResultsHandler {
	return b.results
}

// Close stops the results hub and releases the drawing buffer.
func (b *Broadcaster) Close() error {
	b.results.Close()
	return b.canvas.Close()
}
