package detector

import (
	"image"

	"gocv.io/x/gocv"
)

// SkinConfig is the subset of Config used by the Segmenter.
type SkinConfig struct {
	Lower      HSV
	Upper      HSV
	KernelSize int
}

// Skin returns the segmentation settings of the configuration.
func (c Config) Skin() SkinConfig {
	return SkinConfig{Lower: c.SkinLower, Upper: c.SkinUpper, KernelSize: c.KernelSize}
}

// Segmenter classifies pixels as skin by HSV range and cleans the result
// with a morphological close followed by an open.
type Segmenter struct {
	lower  gocv.Scalar
	upper  gocv.Scalar
	kernel gocv.Mat
}

// NewSegmenter creates a Segmenter. The structuring element is built once
// and released by Close.
func NewSegmenter(cfg SkinConfig) *Segmenter {
	size := cfg.KernelSize
	if size <= 0 {
		size = 1
	}

	return &Segmenter{
		lower:  cfg.Lower.Scalar(),
		upper:  cfg.Upper.Scalar(),
		kernel: gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{X: size, Y: size}),
	}
}

// Segment converts a BGR region into a binary skin mask (255 = skin).
// The caller owns the returned Mat.
func (s *Segmenter) Segment(roi gocv.Mat) gocv.Mat {
	mask := gocv.NewMat()
	if roi.Empty() {
		return mask
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(roi, &hsv, gocv.ColorBGRToHSV)

	gocv.InRangeWithScalar(hsv, s.lower, s.upper, &mask)

	// Fill holes inside the blob, then drop specks around it.
	gocv.MorphologyEx(mask, &mask, gocv.MorphClose, s.kernel)
	gocv.MorphologyEx(mask, &mask, gocv.MorphOpen, s.kernel)

	return mask
}

// Close releases the structuring element.
func (s *Segmenter) Close() error {
	return s.kernel.Close()
}
