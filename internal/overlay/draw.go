package overlay

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/strumspace/strumspace/internal/fretboard"
)

// Drawing style.
const (
	MarkerRadius = 14
	promptScale  = 1.0
	promptThick  = 2
)

var (
	markerColor    = color.RGBA{R: 255, A: 255}
	promptColor    = color.RGBA{R: 255, G: 255, A: 255}
	fretboardColor = color.RGBA{G: 200, A: 255}
	promptOrigin   = image.Pt(30, 40)
)

// DrawMarkers paints each marker as a filled circle on frame.
func DrawMarkers(frame *gocv.Mat, markers []Marker) {
	for _, m := range markers {
		gocv.Circle(frame, image.Pt(m.X, m.Y), MarkerRadius, markerColor, -1)
	}
}

// DrawPrompt writes the "Play: <chord>" instruction in the top-left corner.
func DrawPrompt(frame *gocv.Mat, text string) {
	gocv.PutText(frame, text, promptOrigin, gocv.FontHersheySimplex, promptScale, promptColor, promptThick)
}

// DrawFretboard outlines the merged fretboard area.
func DrawFretboard(frame *gocv.Mat, box fretboard.BoundingBox) {
	if !box.Usable() {
		return
	}
	gocv.Rectangle(frame, box.Rect(), fretboardColor, 2)
}
