package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion detection constants
const (
	// BlurSize is the Gaussian kernel edge used to suppress sensor noise.
	BlurSize = 21
	// DiffThreshold is the per-pixel difference that counts as change.
	DiffThreshold = 25
)

// MotionDetector reports whether consecutive frames differ, optionally only
// inside a region such as the detected fretboard. The live loop uses it to
// drop to a low frame rate while the player's hands are still.
type MotionDetector struct {
	threshold   float64
	region      image.Rectangle
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewMotionDetector creates a detector that fires when more than threshold
// percent of the watched pixels change.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// SetRegion restricts detection to r. An empty rectangle watches the whole
// frame. Changing the region resets the baseline.
func (m *MotionDetector) SetRegion(r image.Rectangle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r == m.region {
		return
	}
	m.region = r
	m.reset()
}

// Detect compares frame with the previous one and returns whether motion
// was seen together with the percentage of changed pixels. The first frame
// after a reset only establishes the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	src := *frame
	if !m.region.Empty() {
		r := m.region.Intersect(image.Rect(0, 0, frame.Cols(), frame.Rows()))
		if r.Empty() {
			return false, 0
		}
		roi := frame.Region(r)
		defer roi.Close()
		src = roi
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if src.Channels() > 1 {
		gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	} else {
		src.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(BlurSize, BlurSize), 0, 0, gocv.BorderDefault)

	if !m.initialized || m.prevGray.Rows() != blurred.Rows() || m.prevGray.Cols() != blurred.Cols() {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(thresh)) / float64(thresh.Rows()*thresh.Cols()) * 100.0

	blurred.CopyTo(&m.prevGray)

	return changed > m.threshold, changed
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

func (m *MotionDetector) reset() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
}

// Close releases resources used by the motion detector.
func (m *MotionDetector) Close() {
	m.Reset()
}

// SetThreshold changes the change percentage needed to report motion.
// Values less than or equal to 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.threshold = threshold
}
