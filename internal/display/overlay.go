// Package display draws detection results onto frames and shows them in
// desktop windows.
package display

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/fingercount/internal/detector"
)

var (
	regionColor  = color.RGBA{R: 0, G: 0, B: 255, A: 0}
	contourColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	bannerColor  = color.RGBA{R: 0, G: 0, B: 0, A: 0}
	hintColor    = color.RGBA{R: 255, G: 100, B: 100, A: 0}
)

// Banner is the filled box behind the finger count text.
var Banner = image.Rect(10, 10, 300, 80)

// Annotate draws the region of interest, the hand contour and the finger
// count onto frame. A nil result only draws the region.
func Annotate(frame *gocv.Mat, region detector.Region, res *detector.Result) {
	gocv.Rectangle(frame, region.Rect(), regionColor, 2)

	fingers := 0
	if res != nil {
		fingers = res.Fingers
		if res.Contour != nil && len(res.Contour.Points) > 0 {
			drawContour(frame, res.Region, res.Contour.Points)
		}
	}

	gocv.Rectangle(frame, Banner, bannerColor, -1)
	gocv.PutText(frame, fmt.Sprintf("Fingers Detected: %d", fingers), image.Pt(20, 50),
		gocv.FontHersheySimplex, 1.5, contourColor, 2)
	gocv.PutText(frame, "Place hand in blue box", image.Pt(20, 70),
		gocv.FontHersheySimplex, 0.6, hintColor, 1)
}

// drawContour draws a contour given in region coordinates.
func drawContour(frame *gocv.Mat, region detector.Region, points []image.Point) {
	origin := image.Pt(region.X, region.Y)

	shifted := make([]image.Point, len(points))
	for i, p := range points {
		shifted[i] = p.Add(origin)
	}

	pv := gocv.NewPointsVectorFromPoints([][]image.Point{shifted})
	defer pv.Close()

	gocv.DrawContours(frame, pv, 0, contourColor, 2)
}
