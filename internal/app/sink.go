package app

import (
	"errors"

	"gocv.io/x/gocv"

	"github.com/ayusman/fingercount/internal/detector"
)

// ErrStop is returned by a Sink to end the session cleanly, for example when
// the user closes the preview window.
var ErrStop = errors.New("stop requested")

// Sink consumes one processed frame. The frame and result are only valid for
// the duration of the call; sinks that keep data must copy it. Sinks must
// not modify the frame.
type Sink interface {
	Consume(frame gocv.Mat, res *detector.Result) error
}

// SessionEnder is implemented by sinks that keep per-session state. The
// pipeline calls EndSession once the capture session is released.
type SessionEnder interface {
	EndSession() error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(frame gocv.Mat, res *detector.Result) error

// Consume calls f(frame, res).
func (f SinkFunc) Consume(frame gocv.Mat, res *detector.Result) error {
	return f(frame, res)
}
