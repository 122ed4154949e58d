package api

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/strumspace/strumspace/internal/audio"
	"github.com/strumspace/strumspace/internal/chord"
	"github.com/strumspace/strumspace/internal/detector"
	"github.com/strumspace/strumspace/internal/frame"
	"github.com/strumspace/strumspace/internal/fretboard"
	"github.com/strumspace/strumspace/internal/logger"
	"github.com/strumspace/strumspace/internal/metrics"
	"github.com/strumspace/strumspace/internal/overlay"
	"github.com/strumspace/strumspace/internal/session"
	"github.com/strumspace/strumspace/internal/store"
)

// SessionConfig holds the collaborators of a SessionHandler. Sessions and
// Table are required; the rest are optional.
type SessionConfig struct {
	Sessions *session.Store
	Table    *chord.Table
	Detector detector.Detector
	Verifier audio.Verifier
	Store    *store.Store
	Metrics  *metrics.Metrics
}

// SessionHandler serves practice sessions and their detect/verify/skip actions.
type SessionHandler struct {
	config SessionConfig

	// Detectors wrap a single network or subprocess and are not safe for
	// concurrent frames.
	detectMu sync.Mutex
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(config SessionConfig) *SessionHandler {
	return &SessionHandler{config: config}
}

// Register adds the session routes to r.
func (h *SessionHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/sessions", h.create).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}", h.delete).Methods(http.MethodDelete)
	r.HandleFunc("/api/sessions/{id}/detect", h.detect).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}/verify", h.verify).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}/skip", h.skip).Methods(http.MethodPost)
}

type createSessionRequest struct {
	Difficulty string `json:"difficulty"`
}

type detectRequest struct {
	Image    string `json:"image"`
	Annotate bool   `json:"annotate"`
}

type detectResponse struct {
	Chord         string           `json:"chord"`
	Markers       []overlay.Marker `json:"markers"`
	FretsDetected []int            `json:"frets_detected"`
	Complete      bool             `json:"complete"`
	Image         string           `json:"image,omitempty"`
}

type verifyResponse struct {
	Correct    bool    `json:"correct"`
	Expected   string  `json:"expected,omitempty"`
	Detected   string  `json:"detected,omitempty"`
	Similarity float64 `json:"similarity"`
	Score      int     `json:"score"`
	Attempts   int     `json:"attempts"`
	MoveOn     bool    `json:"move_on"`
	Stale      bool    `json:"stale,omitempty"`
	Advanced   bool    `json:"advanced"`
	Complete   bool    `json:"complete"`
	NextChord  string  `json:"next_chord,omitempty"`
}

// lookup resolves the {id} route variable, answering 404 when it is unknown.
func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.config.Sessions.Get(pathVar(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) updateActive() {
	if h.config.Metrics != nil {
		h.config.Metrics.ActiveSessions.Store(int64(h.config.Sessions.Len()))
	}
}

// create handles POST /api/sessions. Unknown difficulties fall back to beginner.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	s := h.config.Sessions.Create(chord.Difficulty(strings.ToLower(req.Difficulty)))
	h.updateActive()
	logger.Info("api", "session %s started (%s)", s.ID(), s.Difficulty())

	writeJSON(w, http.StatusCreated, s.Snapshot())
}

// get handles GET /api/sessions/{id}.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// delete handles DELETE /api/sessions/{id}.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.config.Sessions.Delete(pathVar(r, "id")); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	h.updateActive()
	w.WriteHeader(http.StatusNoContent)
}

// detect handles POST /api/sessions/{id}/detect. It locates the fret zones in
// the posted image and returns the markers for the session's current chord.
// A chord with no known fingering yields an empty marker list.
func (h *SessionHandler) detect(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req detectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "Image is required")
		return
	}

	current, ok := s.Current()
	if !ok {
		writeJSON(w, http.StatusOK, detectResponse{
			Markers:       []overlay.Marker{},
			FretsDetected: []int{},
			Complete:      true,
		})
		return
	}

	if h.config.Detector == nil {
		writeError(w, http.StatusServiceUnavailable, "Detector not available")
		return
	}

	data, err := frame.DecodeBase64(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid image encoding")
		return
	}
	img, err := frame.DecodeMat(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid image")
		return
	}
	defer img.Close()

	h.detectMu.Lock()
	start := time.Now()
	dets, err := h.config.Detector.Detect(&img)
	elapsed := time.Since(start)
	h.detectMu.Unlock()

	m := h.config.Metrics
	if err != nil {
		if m != nil {
			m.DetectErrors.Add(1)
		}
		logger.Error("api", "detect: %v", err)
		writeError(w, http.StatusInternalServerError, "Detection failed")
		return
	}

	boxes := fretboard.BuildFretBoxes(dets)
	markers := overlay.Compute(h.config.Table.Positions(current), boxes)

	if m != nil {
		m.FramesProcessed.Add(1)
		m.Detections.Add(uint64(len(dets)))
		m.MarkersDrawn.Add(uint64(len(markers)))
		m.ObserveDetect(elapsed)
	}

	resp := detectResponse{
		Chord:         current,
		Markers:       markers,
		FretsDetected: sortedFrets(boxes),
	}

	if req.Annotate {
		for _, fret := range resp.FretsDetected {
			overlay.DrawFretboard(&img, boxes[fret])
		}
		overlay.DrawMarkers(&img, markers)
		overlay.DrawPrompt(&img, "Play: "+current)
		url, err := frame.EncodeDataURL(img)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to encode image")
			return
		}
		resp.Image = url
	}

	writeJSON(w, http.StatusOK, resp)
}

// verify handles POST /api/sessions/{id}/verify. A correct chord advances the
// session; an incorrect one counts an attempt and sets move_on once the
// attempt cap is reached. Advancing past a capped chord is left to the client.
// A result for a chord the session has already left, through a skip or an
// overlapping verify, changes nothing and is answered with 409 and stale set.
func (h *SessionHandler) verify(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	sample, err := readSample(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	current, ok := s.Current()
	if !ok {
		snap := s.Snapshot()
		writeJSON(w, http.StatusOK, verifyResponse{Score: snap.Score, Complete: true})
		return
	}

	if h.config.Verifier == nil {
		writeError(w, http.StatusServiceUnavailable, "Verifier not available")
		return
	}

	m := h.config.Metrics
	res, err := h.config.Verifier.Verify(r.Context(), current, sample)
	if err != nil {
		if errors.Is(err, audio.ErrEmptySample) || errors.Is(err, audio.ErrUnsupportedSample) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if m != nil {
			m.VerifyErrors.Add(1)
		}
		logger.Error("api", "verify %s: %v", current, err)
		writeError(w, http.StatusInternalServerError, "Verification failed")
		return
	}

	out := s.RecordAttempt(current, res.Correct)
	snap := s.Snapshot()

	if m != nil {
		m.RecordVerification(res.Correct)
		if out.Advanced {
			m.Advances.Add(1)
		}
		if out.MoveOn {
			m.MoveOns.Add(1)
		}
	}
	h.recordAttempt(s.ID(), current, res)
	if out.Advanced && out.Complete {
		h.finish(snap)
	}

	status := http.StatusOK
	if out.Stale {
		status = http.StatusConflict
	}
	writeJSON(w, status, verifyResponse{
		Correct:    res.Correct,
		Expected:   current,
		Detected:   res.Detected,
		Similarity: res.Score,
		Score:      snap.Score,
		Attempts:   out.Attempts,
		MoveOn:     out.MoveOn,
		Stale:      out.Stale,
		Advanced:   out.Advanced,
		Complete:   out.Complete,
		NextChord:  out.Next,
	})
}

// skip handles POST /api/sessions/{id}/skip. The chord is passed without
// scoring and without being added to the completed list.
func (h *SessionHandler) skip(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if !s.Skip() {
		writeError(w, http.StatusConflict, "Session already complete")
		return
	}

	snap := s.Snapshot()
	if snap.Complete {
		h.finish(snap)
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *SessionHandler) recordAttempt(sessionID, expected string, res audio.Result) {
	if h.config.Store == nil {
		return
	}
	err := h.config.Store.Attempts().Create(&store.Attempt{
		SessionID: sessionID,
		Expected:  expected,
		Detected:  res.Detected,
		Correct:   res.Correct,
		Score:     res.Score,
	})
	if err != nil {
		logger.Warn("api", "record attempt: %v", err)
	}
}

// finish persists a session that just reached its terminal state.
func (h *SessionHandler) finish(snap session.Snapshot) {
	if h.config.Metrics != nil {
		h.config.Metrics.SessionsCompleted.Add(1)
	}
	logger.Info("api", "session %s complete, score %d", snap.ID, snap.Score)

	if h.config.Store == nil {
		return
	}
	err := h.config.Store.Results().Create(&store.SessionResult{
		SessionID:  snap.ID,
		Difficulty: string(snap.Difficulty),
		Score:      snap.Score,
		Completed:  snap.Completed,
		StartedAt:  snap.CreatedAt,
	})
	if err != nil {
		logger.Warn("api", "record result: %v", err)
	}
}

func sortedFrets(boxes fretboard.FretBoxMap) []int {
	frets := make([]int, 0, len(boxes))
	for f := range boxes {
		frets = append(frets, f)
	}
	sort.Ints(frets)
	return frets
}
