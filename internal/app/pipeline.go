package app

import (
	"context"
	"errors"
	"runtime"
	"time"

	"gocv.io/x/gocv"

	"github.com/strumspace/strumspace/internal/audio"
	"github.com/strumspace/strumspace/internal/capture"
	"github.com/strumspace/strumspace/internal/fretboard"
	"github.com/strumspace/strumspace/internal/frame"
	"github.com/strumspace/strumspace/internal/logger"
	"github.com/strumspace/strumspace/internal/overlay"
	"github.com/strumspace/strumspace/internal/server"
	"github.com/strumspace/strumspace/internal/store"
)

// WindowName is the title of the local preview window.
const WindowName = "StrumSpace"

// runPipeline is the main loop that processes frames from the camera.
//
// Pipeline logic:
// 1. Start in idle mode (IdleFPS=5)
// 2. On motion detected, switch to active mode (ActiveFPS=15)
// 3. Run the fret zone detector on every processed frame; fret boxes are
//    rebuilt from scratch and never carried to the next frame
// 4. Compute and draw the markers for the current chord
// 5. Start a background verification when none is in flight
// 6. Publish the frame and markers, show the preview window
// 7. After 2s without motion, switch back to idle mode
func (a *App) runPipeline(ctx context.Context, stopCh <-chan struct{}) {
	defer a.wg.Done()

	var window *gocv.Window
	if a.config.ShowWindow {
		// HighGUI calls must stay on one OS thread
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		window = gocv.NewWindow(WindowName)
		defer window.Close()
	}

	activeMode := false
	lastMotionTime := time.Now()

	ticker := time.NewTicker(time.Second / time.Duration(IdleFPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			img, err := a.camera.ReadFrame()
			if err != nil {
				if errors.Is(err, capture.ErrEndOfStream) {
					logger.Info("app", "video source ended")
					a.Quit()
					return
				}
				logger.Debug("app", "error reading frame: %v", err)
				continue
			}

			motionDetected, _ := a.motion.Detect(img)
			if motionDetected {
				lastMotionTime = time.Now()
				if !activeMode {
					activeMode = true
					a.setActive(true)
					a.camera.SetFPS(ActiveFPS)
					ticker.Reset(time.Second / time.Duration(ActiveFPS))
					logger.Debug("app", "switched to active mode")
				}
			} else if activeMode && time.Since(lastMotionTime) > time.Duration(IdleTimeoutMs)*time.Millisecond {
				activeMode = false
				a.setActive(false)
				a.camera.SetFPS(IdleFPS)
				ticker.Reset(time.Second / time.Duration(IdleFPS))
				logger.Debug("app", "switched to idle mode")
			}

			markers := a.processFrame(img)
			a.maybeVerify(ctx)
			a.publish(img, markers)

			if window != nil {
				window.IMShow(*img)
				a.handleKey(window.WaitKey(1))
			}
			img.Close()
		}
	}
}

func (a *App) setActive(on bool) {
	a.mu.Lock()
	a.active = on
	a.mu.Unlock()
	a.notify()
}

// processFrame runs the detector on img, then draws the guidance for the
// current chord and returns its markers. A failed detection draws no markers.
func (a *App) processFrame(img *gocv.Mat) []overlay.Marker {
	m := a.config.Metrics

	boxes := fretboard.FretBoxMap{}
	var neck fretboard.BoundingBox
	hasNeck := false

	start := time.Now()
	dets, err := a.detector.Detect(img)
	if err != nil {
		logger.Warn("app", "detect: %v", err)
		if m != nil {
			m.DetectErrors.Add(1)
		}
	} else {
		boxes = fretboard.BuildFretBoxes(dets)
		neck, hasNeck = fretboard.Merge(dets)
		if m != nil {
			m.FramesProcessed.Add(1)
			m.Detections.Add(uint64(len(dets)))
			m.ObserveDetect(time.Since(start))
		}
	}

	current, ok := a.Session().Current()
	markers := []overlay.Marker{}
	if ok {
		markers = overlay.Compute(a.table.Positions(current), boxes)
	}

	if a.config.ShowFretboard && hasNeck {
		overlay.DrawFretboard(img, neck)
	}
	if a.Guidance() {
		overlay.DrawMarkers(img, markers)
		if m != nil {
			m.MarkersDrawn.Add(uint64(len(markers)))
		}
	}
	if ok {
		overlay.DrawPrompt(img, "Play: "+current)
	}
	return markers
}

// publish hands the annotated frame and its markers to HTTP clients.
func (a *App) publish(img *gocv.Mat, markers []overlay.Marker) {
	feed := a.config.Feed
	if feed == nil {
		return
	}

	if data, err := frame.EncodeJPEG(*img); err == nil {
		feed.PublishFrame(data)
	}

	st := a.Status()
	feed.PublishOverlay(server.OverlayMessage{
		Chord:    st.Chord,
		Markers:  markers,
		Score:    st.Score,
		Complete: st.Complete,
	})
}

// handleKey reacts to preview window key presses.
func (a *App) handleKey(key int) {
	switch key {
	case 'q', 27:
		a.Quit()
	case 'n':
		a.Skip()
	case 'g':
		a.SetGuidance(!a.Guidance())
	}
}

// maybeVerify starts a background verification unless one is in flight.
// The frame loop never waits on it.
func (a *App) maybeVerify(ctx context.Context) {
	if a.config.Recorder == nil {
		return
	}
	if !a.verifying.CompareAndSwap(false, true) {
		return
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.verifying.Store(false)
		a.verifyOnce(ctx)
	}()
}

// verifyOnce records one take and applies the verdict to the session. After
// the attempt cap the live loop moves on by itself.
func (a *App) verifyOnce(ctx context.Context) {
	s := a.Session()
	expected, ok := s.Current()
	if !ok {
		a.restartIfComplete()
		return
	}

	sample, err := a.config.Recorder.Record(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("app", "record: %v", err)
			// keep a broken recorder from spinning at frame rate
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
		return
	}

	m := a.config.Metrics
	res, err := a.verifier.Verify(ctx, expected, sample)
	if errors.Is(err, audio.ErrEmptySample) {
		logger.Debug("app", "silent take for %s, not counted", expected)
		return
	}
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("app", "verify %s: %v", expected, err)
			if m != nil {
				m.VerifyErrors.Add(1)
			}
		}
		return
	}

	out := s.RecordAttempt(expected, res.Correct)
	if out.Stale {
		logger.Debug("app", "dropping result for %s, session moved on", expected)
		return
	}
	if m != nil {
		m.RecordVerification(res.Correct)
		if out.Advanced {
			m.Advances.Add(1)
		}
		if out.MoveOn {
			m.MoveOns.Add(1)
		}
	}
	if a.config.Store != nil {
		err := a.config.Store.Attempts().Create(&store.Attempt{
			SessionID: s.ID(),
			Expected:  expected,
			Detected:  res.Detected,
			Correct:   res.Correct,
			Score:     res.Score,
		})
		if err != nil {
			logger.Warn("app", "record attempt: %v", err)
		}
	}

	switch {
	case out.Advanced:
		logger.Info("app", "correct %s, next %s", expected, currentName(s))
	case out.MoveOn:
		logger.Info("app", "moving on from %s after %d attempts", expected, out.Attempts)
		s.SkipIf(expected)
	default:
		logger.Debug("app", "heard %s, expected %s (attempt %d)", res.Detected, expected, out.Attempts)
	}

	a.restartIfComplete()
	a.notify()
}
