// Package metrics exposes practice and pipeline counters to Prometheus.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics.
type Metrics struct {
	// Frame pipeline
	FramesProcessed atomic.Uint64
	Detections      atomic.Uint64
	MarkersDrawn    atomic.Uint64
	DetectErrors    atomic.Uint64

	// Verification
	Verifications        atomic.Uint64
	VerificationsCorrect atomic.Uint64
	VerifyErrors         atomic.Uint64
	Advances             atomic.Uint64
	MoveOns              atomic.Uint64

	// Sessions
	ActiveSessions    atomic.Int64
	SessionsCompleted atomic.Uint64

	// Average detection latency in ms
	DetectLatencyMs atomic.Uint64

	registry *prometheus.Registry
}

// New creates a Metrics instance with its own Prometheus registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}
	m.register()
	return m
}

func (m *Metrics) gauge(name, help string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: name, Help: help},
		fn,
	))
}

func (m *Metrics) register() {
	m.gauge("strumspace_frames_processed_total", "Total frames run through the detector",
		func() float64 { return float64(m.FramesProcessed.Load()) })
	m.gauge("strumspace_detections_total", "Total fret zone detections accepted",
		func() float64 { return float64(m.Detections.Load()) })
	m.gauge("strumspace_markers_total", "Total finger markers computed",
		func() float64 { return float64(m.MarkersDrawn.Load()) })
	m.gauge("strumspace_detect_errors_total", "Total detector failures",
		func() float64 { return float64(m.DetectErrors.Load()) })

	m.gauge("strumspace_verifications_total", "Total chord verifications",
		func() float64 { return float64(m.Verifications.Load()) })
	m.gauge("strumspace_verifications_correct_total", "Total verifications that matched the expected chord",
		func() float64 { return float64(m.VerificationsCorrect.Load()) })
	m.gauge("strumspace_verify_errors_total", "Total verifier failures",
		func() float64 { return float64(m.VerifyErrors.Load()) })
	m.gauge("strumspace_advances_total", "Total session advances",
		func() float64 { return float64(m.Advances.Load()) })
	m.gauge("strumspace_move_ons_total", "Total times the attempt cap was reached",
		func() float64 { return float64(m.MoveOns.Load()) })

	m.gauge("strumspace_active_sessions", "Sessions currently held in memory",
		func() float64 { return float64(m.ActiveSessions.Load()) })
	m.gauge("strumspace_sessions_completed_total", "Sessions that reached the end of their sequence",
		func() float64 { return float64(m.SessionsCompleted.Load()) })

	m.gauge("strumspace_detect_latency_ms", "Average detector latency in milliseconds",
		func() float64 { return float64(m.DetectLatencyMs.Load()) })
}

// ObserveDetect folds a detector run into the moving latency average.
func (m *Metrics) ObserveDetect(d time.Duration) {
	ms := uint64(d.Milliseconds())
	prev := m.DetectLatencyMs.Load()
	if prev == 0 {
		m.DetectLatencyMs.Store(ms)
		return
	}
	// exponential moving average, alpha = 0.1
	m.DetectLatencyMs.Store((prev*9 + ms) / 10)
}

// RecordVerification counts a verifier result.
func (m *Metrics) RecordVerification(correct bool) {
	m.Verifications.Add(1)
	if correct {
		m.VerificationsCorrect.Add(1)
	}
}

// Handler returns the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
