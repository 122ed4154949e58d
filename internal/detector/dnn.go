package detector

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/strumspace/strumspace/internal/fretboard"
)

// DNNDetector runs a YOLOv8 ONNX export in-process through OpenCV's DNN module.
// The network output is expected as [1, 4+classes, anchors] with boxes in
// center/size form relative to the square input.
type DNNDetector struct {
	mu      sync.Mutex
	net     gocv.Net
	labels  []string
	size    int
	minConf float64
}

// NewDNNDetector loads the model and class labels named in config.
func NewDNNDetector(config Config) (*DNNDetector, error) {
	if config.ModelPath == "" {
		return nil, fmt.Errorf("no model path configured")
	}
	labels, err := LoadLabels(config.LabelsPath)
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNetFromONNX(config.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("load model %s", config.ModelPath)
	}

	size := config.InputSize
	if size <= 0 {
		size = DefaultConfig().InputSize
	}

	return &DNNDetector{
		net:     net,
		labels:  labels,
		size:    size,
		minConf: config.MinConfidence,
	}, nil
}

// Detect implements Detector.
func (d *DNNDetector) Detect(frame *gocv.Mat) ([]fretboard.Detection, error) {
	if frame == nil || frame.Empty() {
		return nil, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	blob := gocv.BlobFromImage(*frame, 1.0/255.0, image.Pt(d.size, d.size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	dims := out.Size()
	if len(dims) != 3 || dims[1] < 5 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	sx := float64(frame.Cols()) / float64(d.size)
	sy := float64(frame.Rows()) / float64(d.size)

	return decodeYOLO(data, dims[1], dims[2], d.labels, d.minConf, sx, sy), nil
}

// Close releases the network.
func (d *DNNDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// decodeYOLO turns a [rows, anchors] YOLOv8 output into detections scaled
// to frame pixels, keeping the best box of each class.
func decodeYOLO(data []float32, rows, anchors int, labels []string, minConf, sx, sy float64) []fretboard.Detection {
	classes := rows - 4
	var dets []fretboard.Detection

	for i := 0; i < anchors; i++ {
		best, score := -1, float32(0)
		for c := 0; c < classes; c++ {
			if s := data[(4+c)*anchors+i]; s > score {
				best, score = c, s
			}
		}
		if best < 0 || float64(score) < minConf || best >= len(labels) {
			continue
		}

		cx := float64(data[i])
		cy := float64(data[anchors+i])
		w := float64(data[2*anchors+i])
		h := float64(data[3*anchors+i])

		dets = append(dets, fretboard.Detection{
			Label:      labels[best],
			Confidence: float64(score),
			Box: fretboard.BoundingBox{
				X1: int((cx - w/2) * sx),
				Y1: int((cy - h/2) * sy),
				X2: int((cx + w/2) * sx),
				Y2: int((cy + h/2) * sy),
			},
		})
	}

	return bestPerLabel(dets)
}
