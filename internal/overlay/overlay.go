// Package overlay computes where finger markers go on a detected fretboard.
package overlay

import (
	"github.com/strumspace/strumspace/internal/chord"
	"github.com/strumspace/strumspace/internal/fretboard"
)

// Marker is a finger position in frame pixel coordinates.
type Marker struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Fret   int `json:"fret"`
	String int `json:"string"`
	// Finger currently mirrors Fret; there is no fingering model yet.
	Finger int `json:"finger"`
}

// Compute places one marker per chord position whose fret zone was detected.
//
// The six strings are spread evenly across the fret box width, with string 1
// on the right edge and string 6 on the left as seen by a camera facing the
// player. Markers sit on the vertical midpoint of the box. Positions with an
// undetected fret, a string outside 1-6, or a box of non-positive width are
// skipped. The result preserves the order of positions and may be empty.
func Compute(positions []chord.Position, boxes fretboard.FretBoxMap) []Marker {
	markers := make([]Marker, 0, len(positions))

	for _, p := range positions {
		box, ok := boxes[p.Fret]
		if !ok {
			continue
		}
		if p.String < 1 || p.String > fretboard.NumStrings {
			continue
		}
		if !box.Usable() {
			continue
		}

		spacing := float64(box.X2-box.X1) / float64(fretboard.NumStrings-1)
		col := fretboard.NumStrings - p.String

		markers = append(markers, Marker{
			X:      int(float64(box.X1) + float64(col)*spacing),
			Y:      int(float64(box.Y1+box.Y2) / 2),
			Fret:   p.Fret,
			String: p.String,
			Finger: p.Fret,
		})
	}

	return markers
}
