// Package testutil draws synthetic camera frames for pipeline tests.
package testutil

import (
	"image"
	"image/color"
	"math/rand/v2"

	"gocv.io/x/gocv"
)

// Frame dimensions matching the camera defaults.
const (
	FrameWidth  = 640
	FrameHeight = 480
)

// Skin is a BGR color inside the default HSV skin range (H=10, S=153, V=200).
var Skin = color.RGBA{R: 200, G: 120, B: 80, A: 255}

// Background is dark enough (V=40) to never classify as skin.
var Background = color.RGBA{R: 40, G: 40, B: 40, A: 255}

// NewFrame returns a FrameWidth x FrameHeight BGR frame filled with Background.
// The caller must close it.
func NewFrame() gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(float64(Background.B), float64(Background.G), float64(Background.R), 0),
		FrameHeight, FrameWidth, gocv.MatTypeCV8UC3)
}

// HandPolygon returns the outline of a palm with the given number of
// pointed fingers, drawn inside region. Finger tips lie on a downward arch
// so every tip is a hull vertex and each gap between two fingers forms one
// deep convexity defect.
func HandPolygon(region image.Rectangle, fingers int) []image.Point {
	if fingers < 1 {
		fingers = 1
	}

	w, h := region.Dx(), region.Dy()
	left := region.Min.X + w/5
	right := region.Min.X + 4*w/5
	top := region.Min.Y + h/8
	bottom := region.Min.Y + 15*h/16
	valley := top + (bottom-top)*55/100

	step := (right - left) / (2*fingers - 1)
	tip := min(step, 24)
	center := float64(left+right) / 2
	half := float64(right-left) / 2

	pts := []image.Point{{X: left, Y: bottom}}
	var xr int
	for i := 0; i < fingers; i++ {
		xl := left + 2*i*step
		xr = xl + step
		ax := xl + step/2
		t := (float64(ax) - center) / half
		ay := top + int(40*t*t)

		pts = append(pts,
			image.Point{X: xl, Y: ay + tip},
			image.Point{X: ax, Y: ay},
			image.Point{X: xr, Y: ay + tip},
		)
		if i < fingers-1 {
			pts = append(pts,
				image.Point{X: xr, Y: valley},
				image.Point{X: xr + step, Y: valley},
			)
		}
	}
	pts = append(pts, image.Point{X: xr, Y: bottom})

	return pts
}

// DrawHand fills a hand outline with Skin.
func DrawHand(frame *gocv.Mat, region image.Rectangle, fingers int) {
	FillPolygon(frame, HandPolygon(region, fingers), Skin)
}

// FillPolygon fills a closed polygon.
func FillPolygon(frame *gocv.Mat, pts []image.Point, c color.RGBA) {
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
	defer pv.Close()
	gocv.FillPoly(frame, pv, c)
}

// DrawDisc fills a circle with Skin.
func DrawDisc(frame *gocv.Mat, center image.Point, radius int) {
	gocv.Circle(frame, center, radius, Skin, -1)
}

// DrawRect fills a rectangle with Skin.
func DrawRect(frame *gocv.Mat, r image.Rectangle) {
	gocv.Rectangle(frame, r, Skin, -1)
}

// Speckle scatters n skin dots of the given radius inside region using a
// deterministic source.
func Speckle(frame *gocv.Mat, region image.Rectangle, n, radius int, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for i := 0; i < n; i++ {
		p := image.Point{
			X: region.Min.X + rng.IntN(region.Dx()),
			Y: region.Min.Y + rng.IntN(region.Dy()),
		}
		gocv.Circle(frame, p, radius, Skin, -1)
	}
}

// Sequence returns n copies of frames produced by draw. The caller must
// close every frame.
func Sequence(n int, draw func(frame *gocv.Mat)) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		f := NewFrame()
		if draw != nil {
			draw(&f)
		}
		frames[i] = &f
	}
	return frames
}

// CloseAll closes every frame.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}
