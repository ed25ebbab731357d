package detector

import (
	"image"

	"gocv.io/x/gocv"
)

// Result is the outcome of processing one frame.
type Result struct {
	// Fingers is the estimated number of extended fingers, 0 when no hand
	// blob was analyzed.
	Fingers int `json:"fingers"`

	// Status tells why Fingers is zero when no analysis took place.
	Status Status `json:"status"`

	// Region is the frame rectangle the geometry below is relative to.
	Region Region `json:"region"`

	// Contour is the dominant blob, nil when none passed the area guard.
	Contour *Contour `json:"contour,omitempty"`

	// Hull indexes into the analyzed point sequence.
	Hull []int `json:"hull,omitempty"`

	// Defects are all convexity defects, deep or not.
	Defects []Defect `json:"defects,omitempty"`

	// Mask is the cleaned skin mask of the region. Owned by the Result.
	Mask gocv.Mat `json:"-"`
}

// Analyzed returns the points hull and defect indices refer to.
func (r *Result) Analyzed(approx bool) []image.Point {
	if r.Contour == nil {
		return nil
	}
	if approx {
		return r.Contour.Approx
	}
	return r.Contour.Points
}

// Close releases the mask.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	return r.Mask.Close()
}

// FingerCounter implements Detector with skin segmentation and convexity
// defect analysis. It keeps no state between frames.
type FingerCounter struct {
	config    Config
	segmenter *Segmenter
}

// NewFingerCounter validates cfg and creates a FingerCounter.
func NewFingerCounter(cfg Config) (*FingerCounter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &FingerCounter{
		config:    cfg,
		segmenter: NewSegmenter(cfg.Skin()),
	}, nil
}

// Config returns the configuration the counter was built with.
func (f *FingerCounter) Config() Config {
	return f.config
}

// Detect runs region extraction, segmentation, shape extraction and
// convexity analysis on one frame. Only an empty frame or a region outside
// the frame produce an error; missing or poor blobs are reported through
// Result.Status with zero fingers.
func (f *FingerCounter) Detect(frame *gocv.Mat) (*Result, error) {
	if frame == nil || frame.Empty() {
		return nil, ErrEmptyFrame
	}

	roi, err := ExtractRegion(*frame, f.config.Region)
	if err != nil {
		return nil, err
	}
	defer roi.Close()

	res := &Result{
		Region: f.config.Region,
		Mask:   f.segmenter.Segment(roi),
	}

	contour, status := ExtractShape(res.Mask, f.config.Shape())
	res.Status = status
	if contour == nil {
		return res, nil
	}
	res.Contour = contour

	analysis := AnalyzeConvexity(res.Analyzed(f.config.AnalyzeApprox), f.config.Convexity())
	res.Hull = analysis.Hull
	res.Defects = analysis.Defects
	res.Fingers = analysis.Fingers
	res.Status = analysis.Status

	return res, nil
}

// Close releases the segmentation kernel.
func (f *FingerCounter) Close() error {
	return f.segmenter.Close()
}
