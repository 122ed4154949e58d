package audio

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/strumspace/strumspace/internal/chord"
)

var (
	// ErrEmptySample is returned for a sample with no audio frames or only silence.
	ErrEmptySample = errors.New("empty audio sample")
	// ErrUnsupportedSample is returned when an uploaded sample cannot be decoded.
	ErrUnsupportedSample = errors.New("unsupported audio sample")
)

// Sample is mono PCM audio scaled to [-1, 1].
type Sample struct {
	Rate int
	Data []float64
}

// Result is the outcome of one verification.
type Result struct {
	Expected string  `json:"expected"`
	Detected string  `json:"detected"`
	Correct  bool    `json:"correct"`
	Score    float64 `json:"score"`
}

// Verifier decides whether a sample contains the expected chord.
// Implementations may take noticeable wall clock time.
type Verifier interface {
	Verify(ctx context.Context, expected string, s Sample) (Result, error)
}

// ChromaVerifier matches the sample's chroma profile against chord templates.
type ChromaVerifier struct {
	templates []Template
	threshold float64
	table     *chord.Table
}

// NewChromaVerifier creates a verifier over the default triad templates.
// When table is non-nil, expected names are resolved through it and its
// chords are added as extra templates.
func NewChromaVerifier(table *chord.Table) *ChromaVerifier {
	templates := DefaultTemplates()
	if table != nil {
		templates = TableTemplates(templates, table)
	}
	return &ChromaVerifier{
		templates: templates,
		threshold: DefaultThreshold,
		table:     table,
	}
}

// SetThreshold overrides the similarity threshold.
func (v *ChromaVerifier) SetThreshold(t float64) {
	v.threshold = t
}

// Detect names the chord heard in s.
func (v *ChromaVerifier) Detect(ctx context.Context, s Sample) (string, float64, error) {
	chroma, err := Chroma(ctx, s)
	if err != nil {
		return "", 0, err
	}
	name, score := Match(chroma, v.templates, v.threshold)
	return name, score, nil
}

// Verify implements Verifier.
func (v *ChromaVerifier) Verify(ctx context.Context, expected string, s Sample) (Result, error) {
	want := expected
	if v.table != nil {
		if c, err := v.table.Get(expected); err == nil {
			want = c.Label()
		}
	}

	name, score, err := v.Detect(ctx, s)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Expected: want,
		Detected: name,
		Correct:  name == want,
		Score:    score,
	}, nil
}

// MockVerifier is a Verifier with scripted results for testing.
type MockVerifier struct {
	mu       sync.Mutex
	detected string
	correct  *bool
	err      error
	delay    time.Duration
	calls    []string
}

// NewMockVerifier creates a mock that reports every sample as the expected chord.
func NewMockVerifier() *MockVerifier {
	return &MockVerifier{}
}

// SetDetected makes the mock report name as the heard chord.
func (m *MockVerifier) SetDetected(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detected = name
}

// SetCorrect forces the correctness flag regardless of names.
func (m *MockVerifier) SetCorrect(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.correct = &ok
}

// SetError makes every call fail with err.
func (m *MockVerifier) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetDelay makes every call take d before answering, like a real recording.
func (m *MockVerifier) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Calls returns the expected chord names passed so far.
func (m *MockVerifier) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Verify implements Verifier.
func (m *MockVerifier) Verify(ctx context.Context, expected string, s Sample) (Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, expected)
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(delay):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return Result{}, m.err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	detected := m.detected
	if detected == "" {
		detected = expected
	}
	correct := detected == expected
	if m.correct != nil {
		correct = *m.correct
	}
	return Result{Expected: expected, Detected: detected, Correct: correct, Score: 1}, nil
}
