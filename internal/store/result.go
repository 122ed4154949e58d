package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SessionResult is the final state of a finished practice session.
type SessionResult struct {
	SessionID  string    `json:"session_id"`
	Difficulty string    `json:"difficulty"`
	Score      int       `json:"score"`
	Completed  []string  `json:"completed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// ResultRepository stores finished sessions.
type ResultRepository struct {
	db *sql.DB
}

// Results returns the session result repository for this store.
func (s *Store) Results() *ResultRepository {
	return &ResultRepository{db: s.db}
}

// Create records a finished session. Recording the same session twice is an error.
func (r *ResultRepository) Create(res *SessionResult) error {
	completed, err := json.Marshal(res.Completed)
	if err != nil {
		return fmt.Errorf("encode completed: %w", err)
	}
	if res.FinishedAt.IsZero() {
		res.FinishedAt = time.Now()
	}

	_, err = r.db.Exec(
		`INSERT INTO session_results (session_id, difficulty, score, completed, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		res.SessionID, res.Difficulty, res.Score, string(completed), res.StartedAt, res.FinishedAt,
	)
	return err
}

// Get retrieves the result of one session.
func (r *ResultRepository) Get(sessionID string) (*SessionResult, error) {
	res := &SessionResult{}
	var completed string

	err := r.db.QueryRow(
		`SELECT session_id, difficulty, score, completed, started_at, finished_at
		 FROM session_results WHERE session_id = ?`, sessionID,
	).Scan(&res.SessionID, &res.Difficulty, &res.Score, &completed, &res.StartedAt, &res.FinishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(completed), &res.Completed); err != nil {
		return nil, fmt.Errorf("decode completed: %w", err)
	}
	return res, nil
}

// Best returns the highest score recorded for a difficulty, or 0.
func (r *ResultRepository) Best(difficulty string) (int, error) {
	var best sql.NullInt64
	err := r.db.QueryRow(
		`SELECT MAX(score) FROM session_results WHERE difficulty = ?`, difficulty,
	).Scan(&best)
	if err != nil {
		return 0, err
	}
	return int(best.Int64), nil
}
