package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	result Result
	err    error
	calls  int
	mu     sync.Mutex
}

// NewMockDetector creates a new MockDetector that reports no candidate blob.
func NewMockDetector() *MockDetector {
	return &MockDetector{result: Result{Status: StatusNoCandidate}}
}

// SetResult sets the result that will be returned by Detect. The mask of r
// is ignored; each call gets its own empty mask.
func (m *MockDetector) SetResult(r Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.Mask = gocv.Mat{}
	m.result = r
}

// SetFingers is a shortcut for a successful result with the given count.
func (m *MockDetector) SetFingers(n int) {
	m.SetResult(Result{Fingers: n, Status: StatusOK})
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.err = err
}

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls
}

// Detect returns a copy of the pre-configured result or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}

	res := m.result
	res.Mask = gocv.NewMat()
	return &res, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}
