package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/strumspace/strumspace/internal/chord"
	"github.com/strumspace/strumspace/internal/fretboard"
	"github.com/strumspace/strumspace/internal/logger"
	"github.com/strumspace/strumspace/internal/session"
	"github.com/strumspace/strumspace/internal/store"
)

// ChordHandler serves the chord library, progressions and difficulty tiers.
type ChordHandler struct {
	table *chord.Table
	store *store.Store
}

// NewChordHandler creates a ChordHandler. The store is optional; without it
// custom chords only live until the process exits.
func NewChordHandler(t *chord.Table, s *store.Store) *ChordHandler {
	return &ChordHandler{table: t, store: s}
}

// Register adds the chord routes to r.
func (h *ChordHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/chords", h.list).Methods(http.MethodGet)
	r.HandleFunc("/api/chords/search", h.search).Methods(http.MethodGet)
	r.HandleFunc("/api/chords/{name}/midi", h.midi).Methods(http.MethodGet)
	r.HandleFunc("/api/chords/{name}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/api/chords/{name}", h.put).Methods(http.MethodPut)
	r.HandleFunc("/api/progressions/{key}", h.progression).Methods(http.MethodGet)
	r.HandleFunc("/api/tiers", h.tiers).Methods(http.MethodGet)
}

type chordListResponse struct {
	Chords []*chord.Chord `json:"chords"`
	Count  int            `json:"count"`
}

type chordNotFoundResponse struct {
	Error     string   `json:"error"`
	Available []string `json:"available"`
}

type progressionResponse struct {
	Key    string         `json:"key"`
	Chords []*chord.Chord `json:"chords"`
}

func newChordList(chords []*chord.Chord) chordListResponse {
	if chords == nil {
		chords = []*chord.Chord{}
	}
	return chordListResponse{Chords: chords, Count: len(chords)}
}

// writeChordNotFound answers 404 with the names the table does know.
func writeChordNotFound(w http.ResponseWriter, t *chord.Table, name string) {
	writeJSON(w, http.StatusNotFound, chordNotFoundResponse{
		Error:     fmt.Sprintf("chord %q not found", name),
		Available: t.Names(),
	})
}

// list handles GET /api/chords?difficulty=.
func (h *ChordHandler) list(w http.ResponseWriter, r *http.Request) {
	d := chord.Difficulty(strings.ToLower(r.URL.Query().Get("difficulty")))
	if d != "" && !d.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid difficulty")
		return
	}
	writeJSON(w, http.StatusOK, newChordList(h.table.List(d)))
}

// search handles GET /api/chords/search?q=.
func (h *ChordHandler) search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "Query parameter q is required")
		return
	}
	writeJSON(w, http.StatusOK, newChordList(h.table.Search(q)))
}

// get handles GET /api/chords/{name}.
func (h *ChordHandler) get(w http.ResponseWriter, r *http.Request) {
	name := pathVar(r, "name")
	c, err := h.table.Get(name)
	if err != nil {
		writeChordNotFound(w, h.table, name)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// midi handles GET /api/chords/{name}/midi and returns the chord as a
// one-bar Standard MIDI File.
func (h *ChordHandler) midi(w http.ResponseWriter, r *http.Request) {
	name := pathVar(r, "name")
	c, err := h.table.Get(name)
	if err != nil {
		writeChordNotFound(w, h.table, name)
		return
	}

	var buf bytes.Buffer
	if err := chord.WriteMIDI(&buf, c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render MIDI")
		return
	}

	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", c.ID+".mid"))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// put handles PUT /api/chords/{name}, storing a custom shape and adding it
// to the live table.
func (h *ChordHandler) put(w http.ResponseWriter, r *http.Request) {
	name := pathVar(r, "name")

	var c chord.Chord
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := validatePositions(c.Positions); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if c.Difficulty == "" {
		c.Difficulty = chord.Beginner
	}
	if !c.Difficulty.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid difficulty")
		return
	}
	c.ID = chord.Normalize(name)
	if c.ID == "" {
		writeError(w, http.StatusBadRequest, "Chord name is required")
		return
	}
	if c.Display == "" {
		c.Display = name
	}
	if c.Name == "" {
		c.Name = name
	}

	if h.store != nil {
		if err := h.store.Chords().Save(&c); err != nil {
			logger.Error("api", "save chord %s: %v", c.ID, err)
			writeError(w, http.StatusInternalServerError, "Failed to save chord")
			return
		}
	}
	if err := h.table.Add(&c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := h.table.Get(c.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load chord")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// progression handles GET /api/progressions/{key}.
func (h *ChordHandler) progression(w http.ResponseWriter, r *http.Request) {
	key, chords := h.table.Progression(pathVar(r, "key"))
	if chords == nil {
		chords = []*chord.Chord{}
	}
	writeJSON(w, http.StatusOK, progressionResponse{Key: key, Chords: chords})
}

// tiers handles GET /api/tiers.
func (h *ChordHandler) tiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, session.Tiers())
}

var errNoPositions = errors.New("at least one position is required")

// validatePositions checks a user supplied fingering. Open strings (fret 0)
// are allowed here even though they never produce a marker.
func validatePositions(ps []chord.Position) error {
	if len(ps) == 0 {
		return errNoPositions
	}
	for _, p := range ps {
		if p.Fret < 0 || p.Fret > fretboard.NumFrets {
			return fmt.Errorf("fret %d out of range 0-%d", p.Fret, fretboard.NumFrets)
		}
		if p.String < 1 || p.String > fretboard.NumStrings {
			return fmt.Errorf("string %d out of range 1-%d", p.String, fretboard.NumStrings)
		}
	}
	return nil
}
