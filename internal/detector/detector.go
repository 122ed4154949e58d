// Package detector finds fret zones on a guitar neck in video frames.
package detector

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/strumspace/strumspace/internal/fretboard"
)

// Detector defines the interface for fretboard zone detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the labeled zones found in it.
	// Returns an empty slice if nothing is detected.
	Detect(frame *gocv.Mat) ([]fretboard.Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for fretboard detection.
type Config struct {
	// ModelPath is a YOLOv8 ONNX export. Used by DNNDetector.
	ModelPath string

	// LabelsPath lists one class name per line. Empty means Zone1..Zone12.
	LabelsPath string

	// ScriptPath is the detection service run by SubprocessDetector.
	ScriptPath string

	// PythonPath overrides the interpreter for ScriptPath.
	PythonPath string

	// InputSize is the square network input edge in pixels (default: 640).
	InputSize int

	// MinConfidence drops raw detections below this score before they
	// reach the fret box builder (default: 0.25).
	MinConfidence float64

	// IdleTimeout stops an idle detection subprocess (default: 30s).
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		InputSize:     640,
		MinConfidence: 0.25,
		IdleTimeout:   30 * time.Second,
	}
}
