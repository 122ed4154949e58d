package overlay

import (
	"testing"

	"gocv.io/x/gocv"

	"github.com/strumspace/strumspace/internal/fretboard"
)

func TestDrawMarkers(t *testing.T) {
	img := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer img.Close()

	DrawMarkers(&img, []Marker{{X: 100, Y: 120, Fret: 1, String: 2, Finger: 1}})

	px := img.GetVecbAt(120, 100)
	if px[2] != 255 || px[0] != 0 || px[1] != 0 {
		t.Errorf("marker center = %v, want red", px)
	}
	if px := img.GetVecbAt(120, 100+MarkerRadius+2); px[2] != 0 {
		t.Errorf("pixel outside the radius was painted: %v", px)
	}
}

func TestDrawFretboard(t *testing.T) {
	img := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer img.Close()

	DrawFretboard(&img, fretboard.BoundingBox{X1: 50, Y1: 50, X2: 50, Y2: 100})
	if px := img.GetVecbAt(50, 50); px[1] != 0 {
		t.Errorf("degenerate box was drawn: %v", px)
	}

	DrawFretboard(&img, fretboard.BoundingBox{X1: 50, Y1: 50, X2: 150, Y2: 100})
	if px := img.GetVecbAt(50, 100); px[1] != 200 {
		t.Errorf("top edge = %v, want green outline", px)
	}
	if px := img.GetVecbAt(75, 100); px[1] != 0 {
		t.Errorf("box interior was filled: %v", px)
	}
}
