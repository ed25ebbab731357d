// Package detector estimates the number of extended fingers in a video frame
// from the convexity defects of a skin-colored hand blob.
package detector

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"
)

// Detector defines the interface for finger counting implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the finger count and the
	// geometry it was derived from. The caller must Close the result.
	Detect(frame *gocv.Mat) (*Result, error)

	// Close releases any resources held by the detector.
	Close() error
}

// ErrInvalidConfig is the root of every configuration error. Use errors.Is
// to test for it.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrEmptyFrame is returned when Detect is called without pixels.
var ErrEmptyFrame = errors.New("frame is empty")

// ConfigError describes a single invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// OutOfBoundsError is returned when the region of interest does not lie
// entirely inside the frame.
type OutOfBoundsError struct {
	Region Region
	Frame  image.Rectangle
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("region %v lies outside frame %dx%d",
		e.Region.Rect(), e.Frame.Dx(), e.Frame.Dy())
}

func (e *OutOfBoundsError) Unwrap() error { return ErrInvalidConfig }

// Region is the rectangle of the frame where the hand is expected.
type Region struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// HSV is a color in OpenCV 8-bit HSV space (hue 0-179).
type HSV struct {
	H uint8 `json:"h"`
	S uint8 `json:"s"`
	V uint8 `json:"v"`
}

// Scalar converts the color to a gocv.Scalar for InRange.
func (c HSV) Scalar() gocv.Scalar {
	return gocv.NewScalar(float64(c.H), float64(c.S), float64(c.V), 0)
}

// Config holds every tunable of the finger counting pipeline.
type Config struct {
	// Region is the sub-rectangle of the frame that is analyzed.
	Region Region `json:"region"`

	// SkinLower and SkinUpper bound the inclusive HSV skin range.
	SkinLower HSV `json:"skin_lower"`
	SkinUpper HSV `json:"skin_upper"`

	// KernelSize is the diameter of the elliptical morphology element.
	KernelSize int `json:"kernel_size"`

	// MinArea is the blob area in px² that must be exceeded before any
	// shape analysis is attempted.
	MinArea float64 `json:"min_area"`

	// DefectDepth is the depth a defect must exceed to count as a finger
	// valley, in OpenCV fixed point (1/256 px).
	DefectDepth int `json:"defect_depth"`

	// ApproxEpsilon is the polyline approximation tolerance as a fraction
	// of the contour perimeter.
	ApproxEpsilon float64 `json:"approx_epsilon"`

	// MaxFingers clamps the reported count.
	MaxFingers int `json:"max_fingers"`

	// AnalyzeApprox runs hull and defect analysis on the simplified
	// polyline instead of the full contour.
	AnalyzeApprox bool `json:"analyze_approx"`
}

// DefaultConfig returns a Config with the calibrated default values.
func DefaultConfig() Config {
	return Config{
		Region:        Region{X: 100, Y: 50, W: 300, H: 300},
		SkinLower:     HSV{H: 0, S: 20, V: 70},
		SkinUpper:     HSV{H: 20, S: 255, V: 255},
		KernelSize:    5,
		MinArea:       1000,
		DefectDepth:   5000,
		ApproxEpsilon: 0.02,
		MaxFingers:    5,
	}
}

// Validate checks the configuration independent of any frame size.
func (c Config) Validate() error {
	switch {
	case c.Region.W <= 0 || c.Region.H <= 0:
		return &ConfigError{Field: "region", Reason: "width and height must be positive"}
	case c.Region.X < 0 || c.Region.Y < 0:
		return &ConfigError{Field: "region", Reason: "offset must not be negative"}
	case c.SkinLower.H > c.SkinUpper.H:
		return &ConfigError{Field: "skin_lower.h", Reason: "lower bound exceeds upper bound"}
	case c.SkinLower.S > c.SkinUpper.S:
		return &ConfigError{Field: "skin_lower.s", Reason: "lower bound exceeds upper bound"}
	case c.SkinLower.V > c.SkinUpper.V:
		return &ConfigError{Field: "skin_lower.v", Reason: "lower bound exceeds upper bound"}
	case c.SkinUpper.H > 179:
		return &ConfigError{Field: "skin_upper.h", Reason: "hue must be at most 179"}
	case c.KernelSize <= 0 || c.KernelSize%2 == 0:
		return &ConfigError{Field: "kernel_size", Reason: "must be a positive odd number"}
	case c.MinArea < 0:
		return &ConfigError{Field: "min_area", Reason: "must not be negative"}
	case c.DefectDepth < 0:
		return &ConfigError{Field: "defect_depth", Reason: "must not be negative"}
	case c.ApproxEpsilon <= 0 || c.ApproxEpsilon >= 1:
		return &ConfigError{Field: "approx_epsilon", Reason: "must be in (0, 1)"}
	case c.MaxFingers < 1 || c.MaxFingers > 5:
		return &ConfigError{Field: "max_fingers", Reason: "must be in [1, 5]"}
	}
	return nil
}

// ValidateFrame checks that the region fits in a frame of the given size.
func (c Config) ValidateFrame(width, height int) error {
	frame := image.Rect(0, 0, width, height)
	if !c.Region.Rect().In(frame) {
		return &OutOfBoundsError{Region: c.Region, Frame: frame}
	}
	return nil
}

// LoadConfig reads a JSON configuration file. Fields missing from the file
// keep their default values.
func LoadConfig(path string) (Config, error) {
	return DefaultConfig().Overlay(path)
}

// Overlay reads the JSON file at path over a copy of c. Fields the file
// leaves out keep the value they have in c.
func (c Config) Overlay(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}

	cfg := c
	if err := json.Unmarshal(data, &cfg); err != nil {
		return c, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return c, err
	}

	return cfg, nil
}
