// Package fretboard maps detector output onto fret positions of a guitar neck.
package fretboard

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Fretboard geometry constants.
const (
	// NumFrets is the number of fret zones the detector is trained on.
	NumFrets = 12
	// NumStrings is the number of guitar strings.
	NumStrings = 6
	// MinConfidence is the threshold a detection must exceed to contribute a fret box.
	MinConfidence = 0.5
	// MergeConfidence is the lower threshold used when merging boxes into one fretboard outline.
	MergeConfidence = 0.4
)

const zonePrefix = "Zone"

// BoundingBox is an axis-aligned box in pixel coordinates.
type BoundingBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Usable reports whether the box has a positive width.
func (b BoundingBox) Usable() bool {
	return b.X2 > b.X1
}

// Rect converts the box to an image.Rectangle.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// FromRect converts an image.Rectangle to a BoundingBox.
func FromRect(r image.Rectangle) BoundingBox {
	return BoundingBox{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// Detection is one labeled box reported by a fretboard detector.
type Detection struct {
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
}

// FretBoxMap maps a fret number (1-12) to the box detected for it in one frame.
type FretBoxMap map[int]BoundingBox

// ZoneFret returns the fret number for a detector label such as "Zone7".
func ZoneFret(label string) (int, bool) {
	if !strings.HasPrefix(label, zonePrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(label[len(zonePrefix):])
	if err != nil || n < 1 || n > NumFrets {
		return 0, false
	}
	return n, true
}

// ZoneLabel returns the detector label for a fret number.
func ZoneLabel(fret int) string {
	return fmt.Sprintf("%s%d", zonePrefix, fret)
}

// ZoneLabels returns the labels Zone1..Zone12 in fret order.
func ZoneLabels() []string {
	labels := make([]string, NumFrets)
	for i := range labels {
		labels[i] = ZoneLabel(i + 1)
	}
	return labels
}

// BuildFretBoxes builds the fret map for one frame.
// Detections with an unknown label or a confidence not above MinConfidence are
// dropped. When a fret is reported more than once the later detection replaces
// the earlier one, whatever their confidences.
func BuildFretBoxes(detections []Detection) FretBoxMap {
	boxes := make(FretBoxMap)

	for _, d := range detections {
		fret, ok := ZoneFret(d.Label)
		if !ok || d.Confidence <= MinConfidence {
			continue
		}
		boxes[fret] = d.Box
	}

	return boxes
}

// Merge returns the union of all boxes whose confidence reaches MergeConfidence,
// giving one outline for the whole visible fretboard.
func Merge(detections []Detection) (BoundingBox, bool) {
	var union BoundingBox
	found := false

	for _, d := range detections {
		if d.Confidence < MergeConfidence {
			continue
		}
		if !found {
			union = d.Box
			found = true
			continue
		}
		union.X1 = min(union.X1, d.Box.X1)
		union.Y1 = min(union.Y1, d.Box.Y1)
		union.X2 = max(union.X2, d.Box.X2)
		union.Y2 = max(union.Y2, d.Box.Y2)
	}

	return union, found
}
