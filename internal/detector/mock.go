package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/strumspace/strumspace/internal/fretboard"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu         sync.Mutex
	detections []fretboard.Detection
	err        error
	calls      int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetDetections sets the detections that will be returned by Detect.
func (m *MockDetector) SetDetections(d []fretboard.Detection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detections = d
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured detections or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]fretboard.Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]fretboard.Detection, len(m.detections))
	copy(out, m.detections)
	return out, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// NeckDetections returns confident detections for frets 1..frets laid out
// left to right as adjacent zones of the given size, starting at origin.
// It stands in for a real model in tests and demos.
func NeckDetections(frets, x, y, zoneWidth, zoneHeight int) []fretboard.Detection {
	if frets > fretboard.NumFrets {
		frets = fretboard.NumFrets
	}
	out := make([]fretboard.Detection, 0, frets)
	for f := 1; f <= frets; f++ {
		x1 := x + (f-1)*zoneWidth
		out = append(out, fretboard.Detection{
			Label:      fretboard.ZoneLabel(f),
			Confidence: 0.9,
			Box:        fretboard.BoundingBox{X1: x1, Y1: y, X2: x1 + zoneWidth, Y2: y + zoneHeight},
		})
	}
	return out
}
