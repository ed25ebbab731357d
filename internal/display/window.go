package display

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/fingercount/internal/app"
	"github.com/ayusman/fingercount/internal/detector"
)

// Window titles.
const (
	FrameTitle = "Finger Counter (q quit)"
	MaskTitle  = "Mask (Skin Detection)"
)

const keyEsc = 27

// Window is an app.Sink that shows the annotated frame and the skin mask.
// It must be driven from the main goroutine, so use it with App.Run.
type Window struct {
	frame  *gocv.Window
	mask   *gocv.Window
	canvas gocv.Mat
}

// NewWindow opens the preview and mask windows.
func NewWindow() *Window {
	return &Window{
		frame:  gocv.NewWindow(FrameTitle),
		mask:   gocv.NewWindow(MaskTitle),
		canvas: gocv.NewMat(),
	}
}

// Consume draws res onto a copy of frame and refreshes both windows. It
// returns app.ErrStop once 'q' or Esc is pressed.
func (w *Window) Consume(frame gocv.Mat, res *detector.Result) error {
	frame.CopyTo(&w.canvas)
	Annotate(&w.canvas, res.Region, res)

	w.frame.IMShow(w.canvas)
	if !res.Mask.Empty() {
		w.mask.IMShow(res.Mask)
	}

	switch w.frame.WaitKey(1) & 0xFF {
	case 'q', keyEsc:
		return app.ErrStop
	}
	return nil
}

// Close destroys both windows.
func (w *Window) Close() error {
	w.canvas.Close()
	w.mask.Close()
	return w.frame.Close()
}
