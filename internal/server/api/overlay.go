package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/strumspace/strumspace/internal/chord"
	"github.com/strumspace/strumspace/internal/fretboard"
	"github.com/strumspace/strumspace/internal/overlay"
)

// OverlayHandler computes markers for caller supplied fret boxes without any
// session state.
type OverlayHandler struct {
	table *chord.Table
}

// NewOverlayHandler creates an OverlayHandler.
func NewOverlayHandler(t *chord.Table) *OverlayHandler {
	return &OverlayHandler{table: t}
}

// Register adds the overlay route to r.
func (h *OverlayHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/overlay", h.compute).Methods(http.MethodPost)
}

type overlayRequest struct {
	Chord     string            `json:"chord"`
	Positions []chord.Position  `json:"positions"`
	FretBoxes map[string][4]int `json:"fret_boxes"`
}

type overlayResponse struct {
	Chord   string           `json:"chord,omitempty"`
	Markers []overlay.Marker `json:"markers"`
}

// compute handles POST /api/overlay. Explicit positions take precedence over
// a chord name.
func (h *OverlayHandler) compute(w http.ResponseWriter, r *http.Request) {
	var req overlayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	positions := req.Positions
	if len(positions) == 0 {
		if req.Chord == "" {
			writeError(w, http.StatusBadRequest, "Chord or positions is required")
			return
		}
		c, err := h.table.Get(req.Chord)
		if err != nil {
			writeChordNotFound(w, h.table, req.Chord)
			return
		}
		positions = c.Positions
	}

	boxes := make(fretboard.FretBoxMap, len(req.FretBoxes))
	for key, b := range req.FretBoxes {
		fret, err := strconv.Atoi(key)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Fret box keys must be fret numbers")
			return
		}
		boxes[fret] = fretboard.BoundingBox{X1: b[0], Y1: b[1], X2: b[2], Y2: b[3]}
	}

	writeJSON(w, http.StatusOK, overlayResponse{
		Chord:   req.Chord,
		Markers: overlay.Compute(positions, boxes),
	})
}
