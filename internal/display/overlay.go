package display

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Pinch overlay style.
var (
	PinchColor = color.RGBA{R: 0, G: 0, B: 255, A: 0}
	TextColor  = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

const (
	tipRadius     = 6
	lineThickness = 3
	textScale     = 0.8
	textThickness = 2
)

// DrawPinch marks the thumb and index fingertips, joins them with a line and
// prints the current brightness level in the top-left corner.
func DrawPinch(frame *gocv.Mat, thumb, index image.Point, level int) {
	if frame == nil || frame.Empty() {
		return
	}
	gocv.Circle(frame, thumb, tipRadius, PinchColor, -1)
	gocv.Circle(frame, index, tipRadius, PinchColor, -1)
	gocv.Line(frame, thumb, index, PinchColor, lineThickness)
	gocv.PutText(frame, fmt.Sprintf("Brightness: %d%%", level), image.Pt(10, 30),
		gocv.FontHersheySimplex, textScale, TextColor, textThickness)
}
