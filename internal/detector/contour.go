package detector

import (
	"image"

	"gocv.io/x/gocv"
)

// Status reports how far the analysis of a frame got.
type Status int

const (
	// StatusOK means hull and defects were computed for the hand blob.
	StatusOK Status = iota
	// StatusNoCandidate means the mask contained no foreground blob.
	StatusNoCandidate
	// StatusTooSmall means the largest blob did not exceed the minimum area.
	StatusTooSmall
	// StatusDegenerate means the blob geometry was too poor for defect analysis.
	StatusDegenerate
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoCandidate:
		return "no_candidate"
	case StatusTooSmall:
		return "too_small"
	case StatusDegenerate:
		return "degenerate"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Contour is the boundary of the dominant blob in region coordinates.
type Contour struct {
	Points    []image.Point `json:"points"`
	Approx    []image.Point `json:"approx"`
	Area      float64       `json:"area"`
	Perimeter float64       `json:"perimeter"`
}

// ShapeConfig is the subset of Config used by ExtractShape.
type ShapeConfig struct {
	MinArea       float64
	ApproxEpsilon float64
}

// Shape returns the shape extraction settings of the configuration.
func (c Config) Shape() ShapeConfig {
	return ShapeConfig{MinArea: c.MinArea, ApproxEpsilon: c.ApproxEpsilon}
}

// ExtractShape finds every blob boundary in the mask (full hierarchy) and
// returns the one enclosing the largest area as the hand candidate.
// It returns a nil contour with StatusNoCandidate when the mask is empty and
// StatusTooSmall when the largest area does not exceed cfg.MinArea.
func ExtractShape(mask gocv.Mat, cfg ShapeConfig) (*Contour, Status) {
	if mask.Empty() || gocv.CountNonZero(mask) == 0 {
		return nil, StatusNoCandidate
	}

	contours := gocv.FindContours(mask, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		return nil, StatusNoCandidate
	}

	best := -1
	bestArea := 0.0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if best < 0 || area > bestArea {
			best = i
			bestArea = area
		}
	}

	if bestArea <= cfg.MinArea {
		return nil, StatusTooSmall
	}

	cnt := contours.At(best)
	perimeter := gocv.ArcLength(cnt, true)

	approx := gocv.ApproxPolyDP(cnt, cfg.ApproxEpsilon*perimeter, true)
	defer approx.Close()

	return &Contour{
		Points:    cnt.ToPoints(),
		Approx:    approx.ToPoints(),
		Area:      bestArea,
		Perimeter: perimeter,
	}, StatusOK
}
