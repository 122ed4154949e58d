package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// Recorder captures one verification take.
type Recorder interface {
	Record(ctx context.Context) (Sample, error)
}

// DefaultRecordCommand records a 2 second mono take and writes WAV to stdout.
var DefaultRecordCommand = []string{
	"arecord", "-q",
	"-d", strconv.Itoa(RecordSeconds),
	"-r", strconv.Itoa(RecordRate),
	"-c", "1", "-f", "S16_LE", "-t", "wav", "-",
}

// CommandRecorder runs an external recorder and parses the WAV it prints.
type CommandRecorder struct {
	command []string
	timeout time.Duration
}

// NewCommandRecorder creates a recorder. An empty command selects
// DefaultRecordCommand; a zero timeout allows twice the take length.
func NewCommandRecorder(command []string, timeout time.Duration) *CommandRecorder {
	if len(command) == 0 {
		command = DefaultRecordCommand
	}
	if timeout <= 0 {
		timeout = 2 * RecordSeconds * time.Second
	}
	return &CommandRecorder{command: command, timeout: timeout}
}

// Record implements Recorder.
func (r *CommandRecorder) Record(ctx context.Context) (Sample, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Sample{}, fmt.Errorf("recorder timeout after %s", r.timeout)
	}
	if err != nil {
		if msg := stderr.String(); msg != "" {
			return Sample{}, fmt.Errorf("recorder failed: %w, stderr: %s", err, msg)
		}
		return Sample{}, fmt.Errorf("recorder failed: %w", err)
	}

	return DecodeWAV(bytes.NewReader(stdout.Bytes()))
}

// MockRecorder returns a fixed sample.
type MockRecorder struct {
	Sample Sample
	Err    error
}

// Record implements Recorder.
func (m *MockRecorder) Record(ctx context.Context) (Sample, error) {
	if m.Err != nil {
		return Sample{}, m.Err
	}
	return m.Sample, ctx.Err()
}
