package store

import (
	"fmt"
	"log"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/fingercount/internal/detector"
)

// DefaultBatchSize is how many readings the Recorder buffers per transaction.
const DefaultBatchSize = 30

// Recorder is a pipeline sink that persists one reading per frame. A session
// row is created on the first frame and ended when the pipeline stops.
type Recorder struct {
	store     *Store
	deviceID  int
	batchSize int

	mu      sync.Mutex
	session *Session
	frames  int
	pending []Reading
}

// NewRecorder creates a Recorder for the given camera device. A batchSize
// of zero or less uses DefaultBatchSize.
func NewRecorder(s *Store, deviceID, batchSize int) *Recorder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Recorder{
		store:     s,
		deviceID:  deviceID,
		batchSize: batchSize,
	}
}

// Consume buffers a reading for res and flushes full batches.
func (r *Recorder) Consume(_ gocv.Mat, res *detector.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		sess, err := r.store.Sessions().Create(r.deviceID)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		r.session = sess
		r.frames = 0
		log.Printf("Recording session %s", sess.ID)
	}

	r.frames++
	rd := Reading{
		SessionID: r.session.ID,
		Frame:     r.frames,
		Fingers:   res.Fingers,
		Status:    res.Status.String(),
		Defects:   len(res.Defects),
		CreatedAt: time.Now().UTC(),
	}
	if res.Contour != nil {
		rd.Area = res.Contour.Area
	}
	r.pending = append(r.pending, rd)

	if len(r.pending) >= r.batchSize {
		return r.flush()
	}
	return nil
}

// Session returns the session being recorded, nil before the first frame.
func (r *Recorder) Session() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

func (r *Recorder) flush() error {
	if err := r.store.Readings().CreateBatch(r.pending); err != nil {
		return fmt.Errorf("write readings: %w", err)
	}
	r.pending = r.pending[:0]
	return nil
}

// EndSession flushes buffered readings and ends the session. The next frame
// starts a new session.
func (r *Recorder) EndSession() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return nil
	}

	if err := r.flush(); err != nil {
		return err
	}
	if err := r.store.Sessions().End(r.session.ID, r.frames); err != nil {
		return fmt.Errorf("end session: %w", err)
	}

	log.Printf("Recorded session %s (%d frames)", r.session.ID, r.frames)
	r.session = nil
	return nil
}

// Close ends the current session, if any.
func (r *Recorder) Close() error {
	return r.EndSession()
}
