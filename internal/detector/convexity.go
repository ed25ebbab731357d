package detector

import (
	"image"

	"gocv.io/x/gocv"
)

// Defect is a place where the contour dips inward from an edge of its
// convex hull. Start, End and Far index into the analyzed contour; Depth is
// the distance of Far from the hull edge in 1/256 px.
type Defect struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Far   int `json:"far"`
	Depth int `json:"depth"`
}

// Analysis is the outcome of AnalyzeConvexity.
type Analysis struct {
	Hull    []int
	Defects []Defect
	Fingers int
	Status  Status
}

// ConvexityConfig is the subset of Config used by AnalyzeConvexity.
type ConvexityConfig struct {
	DefectDepth int
	MaxFingers  int
}

// Convexity returns the convexity analysis settings of the configuration.
func (c Config) Convexity() ConvexityConfig {
	return ConvexityConfig{DefectDepth: c.DefectDepth, MaxFingers: c.MaxFingers}
}

// AnalyzeConvexity computes the index hull and convexity defects of a closed
// contour and derives a finger count from them. Contours that are too small
// to have a hull of more than three points, or whose hull OpenCV rejects,
// report StatusDegenerate and zero fingers.
func AnalyzeConvexity(points []image.Point, cfg ConvexityConfig) Analysis {
	if len(points) < 4 {
		return Analysis{Status: StatusDegenerate}
	}

	contour := gocv.NewPointVectorFromPoints(points)
	defer contour.Close()

	hullMat := gocv.NewMat()
	defer hullMat.Close()
	if err := gocv.ConvexHull(contour, &hullMat, false, false); err != nil {
		return Analysis{Status: StatusDegenerate}
	}

	hull := make([]int, hullMat.Total())
	for i := range hull {
		hull[i] = int(hullMat.GetIntAt(i, 0))
	}

	if len(hull) <= 3 {
		return Analysis{Hull: hull, Status: StatusDegenerate}
	}

	defectsMat := gocv.NewMat()
	defer defectsMat.Close()
	// Self-intersecting outlines give a non-monotonic hull and OpenCV
	// refuses to compute defects for them.
	if err := gocv.ConvexityDefects(contour, hullMat, &defectsMat); err != nil {
		return Analysis{Hull: hull, Status: StatusDegenerate}
	}

	defects := make([]Defect, 0, defectsMat.Rows())
	for i := 0; i < defectsMat.Rows(); i++ {
		v := defectsMat.GetVeciAt(i, 0)
		if len(v) < 4 {
			continue
		}
		defects = append(defects, Defect{
			Start: int(v[0]),
			End:   int(v[1]),
			Far:   int(v[2]),
			Depth: int(v[3]),
		})
	}

	return Analysis{
		Hull:    hull,
		Defects: defects,
		Fingers: CountFingers(defects, cfg.DefectDepth, cfg.MaxFingers),
		Status:  StatusOK,
	}
}

// CountFingers applies the valley heuristic: the palm counts as one and
// every defect deeper than depthThreshold adds a finger. The result is
// clamped to [0, maxFingers].
func CountFingers(defects []Defect, depthThreshold, maxFingers int) int {
	fingers := 1
	for _, d := range defects {
		if d.Depth > depthThreshold {
			fingers++
		}
	}

	return max(0, min(fingers, maxFingers))
}
