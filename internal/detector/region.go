package detector

import (
	"image"

	"gocv.io/x/gocv"
)

// ExtractRegion returns a view of the frame pixels inside r. The view shares
// memory with the frame and must be closed by the caller. A region that is
// not entirely inside the frame is rejected rather than clipped.
func ExtractRegion(frame gocv.Mat, r Region) (gocv.Mat, error) {
	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	if r.W <= 0 || r.H <= 0 || !r.Rect().In(bounds) {
		return gocv.Mat{}, &OutOfBoundsError{Region: r, Frame: bounds}
	}

	return frame.Region(r.Rect()), nil
}
