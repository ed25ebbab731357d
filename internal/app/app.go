// Package app provides the main application logic for the finger counter.
package app

import (
	"context"
	"errors"
	"image"
	"log"
	"sync"
	"time"

	"github.com/ayusman/fingercount/internal/capture"
	"github.com/ayusman/fingercount/internal/detector"
)

// ErrAlreadyRunning is returned by Run when the pipeline is already active.
var ErrAlreadyRunning = errors.New("pipeline already running")

// State is the lifecycle state of the detection pipeline.
type State int

const (
	// StateStopped means no frames are being requested.
	StateStopped State = iota
	// StateRunning means the pipeline loop is active.
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "stopped"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Config holds configuration options for the application.
type Config struct {
	Detector detector.Config
	CameraID int
	FPS      int
	Mirror   bool
}

// DefaultConfig returns the configuration used when no flags are given.
func DefaultConfig() Config {
	return Config{
		Detector: detector.DefaultConfig(),
		FPS:      capture.DefaultFPS,
		Mirror:   true,
	}
}

// Summary is a snapshot of one processed frame.
type Summary struct {
	Frame   int             `json:"frame"`
	Fingers int             `json:"fingers"`
	Status  detector.Status `json:"status"`
	Area    float64         `json:"area"`
	Defects int             `json:"defects"`
	Region  detector.Region `json:"region"`
	// Contour is the hand outline in frame coordinates.
	Contour [][2]int  `json:"contour,omitempty"`
	Time    time.Time `json:"timestamp"`
}

// NewSummary condenses res, the result of the given frame, into a Summary.
func NewSummary(frame int, res *detector.Result, t time.Time) Summary {
	sum := Summary{
		Frame:   frame,
		Fingers: res.Fingers,
		Status:  res.Status,
		Defects: len(res.Defects),
		Region:  res.Region,
		Time:    t,
	}

	if res.Contour != nil {
		sum.Area = res.Contour.Area
		sum.Contour = make([][2]int, len(res.Contour.Points))
		for i, p := range res.Contour.Points {
			sum.Contour[i] = [2]int{p.X + res.Region.X, p.Y + res.Region.Y}
		}
	}

	return sum
}

// App drives the capture session through the detector and hands every
// result to the registered sinks.
type App struct {
	config   Config
	camera   capture.Camera
	detector detector.Detector
	pending  detector.Detector
	sinks    []Sink
	enabled  bool
	state    State
	stopCh   chan struct{}
	done     chan struct{}
	frames   int
	last     Summary
	// frameSize is the frame dimension of the open session.
	frameSize image.Point
	mu        sync.RWMutex
}

// New creates a new App reading from the configured camera device.
// The detector configuration is validated here, before any frame is read.
func New(config Config) (*App, error) {
	if config.FPS <= 0 {
		config.FPS = capture.DefaultFPS
	}

	fc, err := detector.NewFingerCounter(config.Detector)
	if err != nil {
		return nil, err
	}

	camera := capture.NewCamera(config.CameraID)
	camera.SetMirror(config.Mirror)

	done := make(chan struct{})
	close(done)

	return &App{
		config:   config,
		camera:   camera,
		detector: fc,
		enabled:  true,
		state:    StateStopped,
		done:     done,
	}, nil
}

// SetCamera replaces the frame source. It has no effect on a running pipeline.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetDetector sets the detector implementation to use and closes the one it
// replaces.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StateRunning {
		if a.pending != nil {
			a.pending.Close()
		}
		a.pending = d
		return
	}
	if a.detector != nil && a.detector != d {
		a.detector.Close()
	}
	a.detector = d
}

// Reconfigure builds a detector for cfg and swaps it in. A running pipeline
// picks it up before the next frame; its region must fit the frames of the
// open session.
func (a *App) Reconfigure(cfg detector.Config) error {
	fc, err := detector.NewFingerCounter(cfg)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateRunning {
		if err := cfg.ValidateFrame(a.frameSize.X, a.frameSize.Y); err != nil {
			fc.Close()
			return err
		}
	}

	a.config.Detector = cfg
	if a.state == StateRunning {
		if a.pending != nil {
			a.pending.Close()
		}
		a.pending = fc
		return nil
	}

	if a.detector != nil {
		a.detector.Close()
	}
	a.detector = fc
	return nil
}

// Config returns the current application configuration.
func (a *App) Config() Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}

// DetectorConfig returns the active detector configuration.
func (a *App) DetectorConfig() detector.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config.Detector
}

// AddSink registers a sink. Sinks are called in registration order.
func (a *App) AddSink(s Sink) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sinks = append(a.sinks, s)
}

// SetEnabled pauses or resumes frame processing without closing the camera.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether frame processing is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// State returns the current pipeline state.
func (a *App) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// LastResult returns a snapshot of the most recently processed frame.
func (a *App) LastResult() Summary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Done returns a channel that is closed when the pipeline stops.
func (a *App) Done() <-chan struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.done
}

// run holds the resources of one Running period.
type run struct {
	session *capture.Session
	stop    chan struct{}
	done    chan struct{}
	fps     int
}

// begin validates the configuration against the camera, opens the capture
// session and transitions to StateRunning.
func (a *App) begin() (*run, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateRunning {
		return nil, ErrAlreadyRunning
	}

	if err := a.config.Detector.Validate(); err != nil {
		return nil, err
	}

	session, err := capture.OpenSession(a.camera)
	if err != nil {
		return nil, err
	}

	w, h := session.Size()
	if err := a.config.Detector.ValidateFrame(w, h); err != nil {
		session.Close()
		return nil, err
	}

	a.camera.SetFPS(a.config.FPS)

	r := &run{
		session: session,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		fps:     a.config.FPS,
	}
	a.stopCh = r.stop
	a.done = r.done
	a.frames = 0
	a.frameSize = image.Pt(w, h)
	a.state = StateRunning

	log.Printf("Detection pipeline started (%dx%d @ %d fps)", w, h, r.fps)
	return r, nil
}

// Start begins the detection pipeline in a new goroutine.
func (a *App) Start() error {
	r, err := a.begin()
	if errors.Is(err, ErrAlreadyRunning) {
		return nil
	}
	if err != nil {
		return err
	}

	go a.runPipeline(r)
	return nil
}

// Run runs the detection pipeline on the calling goroutine until the stream
// ends, a sink requests a stop, Stop is called, or ctx is cancelled.
// GUI sinks need this because windows must be driven from the main thread.
func (a *App) Run(ctx context.Context) error {
	r, err := a.begin()
	if err != nil {
		return err
	}

	go func() {
		select {
		case <-ctx.Done():
			a.signalStop()
		case <-r.done:
		}
	}()

	a.runPipeline(r)
	return ctx.Err()
}

// Stop signals the pipeline to stop and waits for it to release the camera.
// It must not be called from a Sink; sinks return ErrStop instead.
func (a *App) Stop() {
	done := a.signalStop()
	<-done
}

func (a *App) signalStop() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}
	return a.done
}

// Close stops the pipeline and releases the detector.
func (a *App) Close() error {
	a.Stop()

	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	if a.pending != nil {
		errs = append(errs, a.pending.Close())
		a.pending = nil
	}
	if a.detector != nil {
		errs = append(errs, a.detector.Close())
		a.detector = nil
	}
	return errors.Join(errs...)
}
