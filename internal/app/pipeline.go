package app

import (
	"errors"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/fingercount/internal/detector"
)

// runPipeline is the main detection loop that processes frames from the camera.
//
// Pipeline logic:
// 1. Tick at the configured FPS until stopped
// 2. Skip the tick while processing is disabled
// 3. Read a frame; a read failure ends the stream and the session
// 4. Swap in a pending detector, then detect on the frame
// 5. Hand the frame and result to each sink in order
// 6. A sink returning ErrStop ends the session after the current frame
//
// A detection error only drops the current frame. Nothing is carried from
// one frame to the next.
func (a *App) runPipeline(r *run) {
	defer a.finish(r)

	ticker := time.NewTicker(time.Second / time.Duration(r.fps))
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := r.session.Next()
			if err != nil {
				log.Printf("Frame acquisition ended: %v", err)
				return
			}

			stop := a.processFrame(frame)
			frame.Close()

			if stop {
				log.Println("Stop requested by sink")
				return
			}
		}
	}
}

// processFrame runs detection on a single frame and fans the result out to
// the sinks. It reports whether a sink asked to stop.
func (a *App) processFrame(frame *gocv.Mat) bool {
	d, sinks := a.frameContext()
	if d == nil {
		return false
	}

	res, err := d.Detect(frame)
	if err != nil {
		log.Printf("Error detecting fingers: %v", err)
		return false
	}
	defer res.Close()

	a.mu.Lock()
	a.frames++
	a.last = NewSummary(a.frames, res, time.Now())
	a.mu.Unlock()

	stop := false
	for _, s := range sinks {
		if err := s.Consume(*frame, res); err != nil {
			if errors.Is(err, ErrStop) {
				stop = true
				continue
			}
			log.Printf("Sink error: %v", err)
		}
	}

	return stop
}

// frameContext installs a pending detector and returns the detector and
// sinks to use for the next frame.
func (a *App) frameContext() (detector.Detector, []Sink) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pending != nil {
		if a.detector != nil {
			a.detector.Close()
		}
		a.detector = a.pending
		a.pending = nil
		log.Println("Detector configuration applied")
	}

	sinks := make([]Sink, len(a.sinks))
	copy(sinks, a.sinks)
	return a.detector, sinks
}

// finish releases the capture session and transitions to StateStopped.
func (a *App) finish(r *run) {
	if err := r.session.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	a.mu.Lock()
	if a.stopCh == r.stop {
		a.stopCh = nil
	}
	a.state = StateStopped
	frames := a.frames
	sinks := make([]Sink, len(a.sinks))
	copy(sinks, a.sinks)
	a.mu.Unlock()

	for _, s := range sinks {
		if e, ok := s.(SessionEnder); ok {
			if err := e.EndSession(); err != nil {
				log.Printf("Error ending sink session: %v", err)
			}
		}
	}

	close(r.done)
	log.Printf("Detection pipeline stopped after %d frames", frames)
}
