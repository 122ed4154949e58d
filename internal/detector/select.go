package detector

import (
	"os"

	"github.com/strumspace/strumspace/internal/logger"
)

// Kind names the detector implementation picked by New.
type Kind string

const (
	KindDNN        Kind = "dnn"
	KindSubprocess Kind = "subprocess"
	KindMock       Kind = "mock"
)

// New picks the best available detector: the in-process ONNX model when its
// file exists, then the external detection service, then a mock that sees
// nothing.
func New(config Config) (Detector, Kind) {
	if config.ModelPath != "" {
		if _, err := os.Stat(config.ModelPath); err == nil {
			d, err := NewDNNDetector(config)
			if err == nil {
				return d, KindDNN
			}
			logger.Warn("detector", "onnx model unavailable: %v", err)
		}
	}

	d, err := NewSubprocessDetector(config)
	if err == nil {
		return d, KindSubprocess
	}
	logger.Warn("detector", "detection service unavailable: %v", err)

	logger.Warn("detector", "using mock detector, no fret zones will be found")
	return NewMockDetector(), KindMock
}
