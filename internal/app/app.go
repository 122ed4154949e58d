// Package app runs the live chord trainer: camera frames in, finger markers
// and verification results out.
package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"

	"github.com/strumspace/strumspace/internal/audio"
	"github.com/strumspace/strumspace/internal/capture"
	"github.com/strumspace/strumspace/internal/chord"
	"github.com/strumspace/strumspace/internal/detector"
	"github.com/strumspace/strumspace/internal/logger"
	"github.com/strumspace/strumspace/internal/metrics"
	"github.com/strumspace/strumspace/internal/server"
	"github.com/strumspace/strumspace/internal/session"
	"github.com/strumspace/strumspace/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate when no motion is detected.
	IdleFPS = 5
	// ActiveFPS is the frame rate while the player is moving.
	ActiveFPS = 15
	// IdleTimeoutMs is the time in milliseconds to wait before switching back to idle mode.
	IdleTimeoutMs = 2000
	// StatusDebounce coalesces bursts of status changes.
	StatusDebounce = 250 * time.Millisecond
)

// Config holds configuration options for the live application.
type Config struct {
	// Camera overrides the capture device built from CameraConfig.
	Camera       capture.Camera
	CameraConfig capture.Config
	MotionThresh float64

	Table       *chord.Table
	Difficulty  chord.Difficulty
	MaxAttempts int

	Detector detector.Detector
	Verifier audio.Verifier
	// Recorder captures audio for verification. Nil disables verification.
	Recorder audio.Recorder

	Store   *store.Store
	Metrics *metrics.Metrics
	// Feed receives annotated frames and markers for HTTP clients.
	Feed *server.Feed

	// ShowWindow opens a local preview window that accepts q and n keys.
	ShowWindow bool
	// ShowFretboard outlines the union of all detected zones.
	ShowFretboard bool
}

// Status is a summary of the live session for status displays.
type Status struct {
	Chord     string
	Score     int
	Attempts  int
	Complete  bool
	Guidance  bool
	Active    bool
	Verifying bool
}

// Line renders the status as a single line such as "Play: Am · Score 10".
func (s Status) Line() string {
	if s.Chord == "" {
		return fmt.Sprintf("Done · Score %d", s.Score)
	}
	return fmt.Sprintf("Play: %s · Score %d", s.Chord, s.Score)
}

// App is the live application that ties capture, detection, overlay and
// verification together.
type App struct {
	config   Config
	camera   capture.Camera
	motion   *capture.MotionDetector
	detector detector.Detector
	verifier audio.Verifier
	table    *chord.Table

	mu       sync.RWMutex
	session  *session.Session
	guidance bool
	active   bool
	onStatus func(Status)
	stopCh   chan struct{}
	cancel   context.CancelFunc
	quitCh   chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup

	verifying atomic.Bool
	debounced func(func())
}

// New creates a new App with the given configuration. Missing collaborators
// get defaults: the built-in chord table, an auto-selected detector and the
// chroma verifier.
func New(config Config) *App {
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0 // Default threshold: 1% pixel change
	}
	if config.Table == nil {
		config.Table = chord.DefaultTable()
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = session.DefaultMaxAttempts
	}

	a := &App{
		config:    config,
		camera:    config.Camera,
		motion:    capture.NewMotionDetector(motionThreshold),
		detector:  config.Detector,
		verifier:  config.Verifier,
		table:     config.Table,
		guidance:  true,
		quitCh:    make(chan struct{}),
		debounced: debounce.New(StatusDebounce),
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(config.CameraConfig)
	}
	if a.detector == nil {
		d, kind := detector.New(detector.DefaultConfig())
		logger.Info("app", "using %s fretboard detector", kind)
		a.detector = d
	}
	if a.verifier == nil {
		a.verifier = audio.NewChromaVerifier(a.table)
	}

	a.session = a.newSession()
	return a
}

func (a *App) newSession() *session.Session {
	s := session.New(uuid.New().String(), a.config.Difficulty)
	s.SetMaxAttempts(a.config.MaxAttempts)
	if a.config.Metrics != nil {
		a.config.Metrics.ActiveSessions.Store(1)
	}
	return s
}

// Session returns the current practice session.
func (a *App) Session() *session.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// SetGuidance turns the marker overlay on or off.
func (a *App) SetGuidance(on bool) {
	a.mu.Lock()
	a.guidance = on
	a.mu.Unlock()
	a.notify()
}

// Guidance reports whether markers are drawn.
func (a *App) Guidance() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.guidance
}

// OnStatus registers fn to receive debounced status updates.
func (a *App) OnStatus(fn func(Status)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onStatus = fn
}

// Status returns the current live status.
func (a *App) Status() Status {
	a.mu.RLock()
	s := a.session
	st := Status{Guidance: a.guidance, Active: a.active}
	a.mu.RUnlock()

	snap := s.Snapshot()
	st.Chord = snap.CurrentChord
	st.Score = snap.Score
	st.Attempts = snap.Attempts
	st.Complete = snap.Complete
	st.Verifying = a.verifying.Load()
	return st
}

// notify schedules a status callback. Bursts within StatusDebounce collapse
// into one call carrying the latest status.
func (a *App) notify() {
	a.mu.RLock()
	fn := a.onStatus
	a.mu.RUnlock()
	if fn == nil {
		return
	}
	a.debounced(func() { fn(a.Status()) })
}

// Skip moves to the next chord without scoring, restarting the session
// after the last one.
func (a *App) Skip() {
	s := a.Session()
	if s.Skip() {
		logger.Info("app", "skipped to %s", currentName(s))
	}
	a.restartIfComplete()
	a.notify()
}

// restartIfComplete records a finished session and starts a fresh one.
func (a *App) restartIfComplete() {
	a.mu.Lock()
	old := a.session
	if !old.Complete() {
		a.mu.Unlock()
		return
	}
	a.session = a.newSession()
	a.mu.Unlock()

	snap := old.Snapshot()
	logger.Info("app", "sequence complete with score %d, starting over", snap.Score)
	if m := a.config.Metrics; m != nil {
		m.SessionsCompleted.Add(1)
	}
	if a.config.Store != nil {
		err := a.config.Store.Results().Create(&store.SessionResult{
			SessionID:  snap.ID,
			Difficulty: string(snap.Difficulty),
			Score:      snap.Score,
			Completed:  snap.Completed,
			StartedAt:  snap.CreatedAt,
		})
		if err != nil {
			logger.Warn("app", "record result: %v", err)
		}
	}
}

// Start opens the camera and begins the frame pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	// Set initial FPS to idle mode
	a.camera.SetFPS(IdleFPS)

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.stopCh = make(chan struct{})
	a.wg.Add(1)
	go a.runPipeline(ctx, a.stopCh)

	logger.Info("app", "live pipeline started (%s)", a.session.Difficulty())
	return nil
}

// Stop halts the pipeline, waits for in-flight work and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	if a.stopCh == nil {
		a.mu.Unlock()
		return
	}
	close(a.stopCh)
	a.stopCh = nil
	a.cancel()
	a.mu.Unlock()

	a.wg.Wait()

	if err := a.camera.Close(); err != nil {
		logger.Warn("app", "error closing camera: %v", err)
	}
	a.motion.Close()
	if err := a.detector.Close(); err != nil {
		logger.Warn("app", "error closing detector: %v", err)
	}

	logger.Info("app", "live pipeline stopped")
}

// Quit asks the owner of the App to shut down. It is triggered by the q key.
func (a *App) Quit() {
	a.quitOnce.Do(func() { close(a.quitCh) })
}

// Done is closed once Quit has been called.
func (a *App) Done() <-chan struct{} {
	return a.quitCh
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the fretboard detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}

func currentName(s *session.Session) string {
	name, ok := s.Current()
	if !ok {
		return "(done)"
	}
	return name
}
