package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// ErrSessionClosed is returned by Next after Close.
var ErrSessionClosed = errors.New("capture session closed")

// Session is a scoped acquisition of a Camera. The camera is opened by
// OpenSession and released exactly once by Close. Frames form a lazy,
// non-restartable sequence: the first read error ends the session.
type Session struct {
	camera Camera
	mu     sync.Mutex
	frames int
	err    error
	once   sync.Once
}

// OpenSession opens the camera and returns a session owning it.
func OpenSession(camera Camera) (*Session, error) {
	if err := camera.Open(); err != nil {
		return nil, fmt.Errorf("open capture session: %w", err)
	}
	return &Session{camera: camera}, nil
}

// Next returns the next frame. The caller must close it. Once Next has
// returned an error every further call returns the same error.
func (s *Session) Next() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	frame, err := s.camera.ReadFrame()
	if err != nil {
		if !errors.Is(err, ErrEndOfStream) {
			err = fmt.Errorf("%w: %w", ErrEndOfStream, err)
		}
		s.err = err
		return nil, err
	}

	s.frames++
	return frame, nil
}

// Frames returns how many frames were read successfully.
func (s *Session) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Size returns the frame dimensions of the underlying camera.
func (s *Session) Size() (int, int) {
	return s.camera.Size()
}

// Close releases the camera. It is safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		if s.err == nil {
			s.err = ErrSessionClosed
		}
		s.mu.Unlock()
		err = s.camera.Close()
	})
	return err
}
