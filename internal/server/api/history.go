package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/strumspace/strumspace/internal/store"
)

// HistoryHandler serves persisted practice attempts.
type HistoryHandler struct {
	store *store.Store
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(s *store.Store) *HistoryHandler {
	return &HistoryHandler{store: s}
}

// Register adds the history route to r.
func (h *HistoryHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/history", h.list).Methods(http.MethodGet)
}

type historyResponse struct {
	Attempts []*store.Attempt  `json:"attempts"`
	Stats    []store.ChordStats `json:"stats"`
}

// list handles GET /api/history?limit=&session=.
func (h *HistoryHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	var (
		attempts []*store.Attempt
		err      error
	)
	if id := q.Get("session"); id != "" {
		attempts, err = h.store.Attempts().ListBySession(id)
	} else {
		attempts, err = h.store.Attempts().Recent(limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list attempts")
		return
	}

	stats, err := h.store.Attempts().Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}

	if attempts == nil {
		attempts = []*store.Attempt{}
	}
	if stats == nil {
		stats = []store.ChordStats{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Attempts: attempts, Stats: stats})
}
