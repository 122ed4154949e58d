package store

import (
	"database/sql"
	"time"
)

// Attempt is one recorded chord verification.
type Attempt struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Expected  string    `json:"expected"`
	Detected  string    `json:"detected"`
	Correct   bool      `json:"correct"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// ChordStats summarises attempts at one chord.
type ChordStats struct {
	Chord    string `json:"chord"`
	Attempts int    `json:"attempts"`
	Correct  int    `json:"correct"`
}

// AttemptRepository records verification history.
type AttemptRepository struct {
	db *sql.DB
}

// Attempts returns the attempt repository for this store.
func (s *Store) Attempts() *AttemptRepository {
	return &AttemptRepository{db: s.db}
}

// Create inserts an attempt and fills in its ID and timestamp.
func (r *AttemptRepository) Create(a *Attempt) error {
	a.CreatedAt = time.Now()

	result, err := r.db.Exec(
		`INSERT INTO attempts (session_id, expected, detected, correct, score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.SessionID, a.Expected, a.Detected, a.Correct, a.Score, a.CreatedAt,
	)
	if err != nil {
		return err
	}

	a.ID, err = result.LastInsertId()
	return err
}

// Recent returns up to limit attempts, newest first.
func (r *AttemptRepository) Recent(limit int) ([]*Attempt, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.query(
		`SELECT id, session_id, expected, detected, correct, score, created_at
		 FROM attempts ORDER BY id DESC LIMIT ?`, limit)
}

// ListBySession returns a session's attempts in the order they were made.
func (r *AttemptRepository) ListBySession(sessionID string) ([]*Attempt, error) {
	return r.query(
		`SELECT id, session_id, expected, detected, correct, score, created_at
		 FROM attempts WHERE session_id = ? ORDER BY id`, sessionID)
}

// Stats returns per-chord attempt counts, most practised first.
func (r *AttemptRepository) Stats() ([]ChordStats, error) {
	rows, err := r.db.Query(
		`SELECT expected, COUNT(*), SUM(correct)
		 FROM attempts GROUP BY expected ORDER BY COUNT(*) DESC, expected`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChordStats
	for rows.Next() {
		var st ChordStats
		if err := rows.Scan(&st.Chord, &st.Attempts, &st.Correct); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *AttemptRepository) query(q string, args ...any) ([]*Attempt, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Attempt
	for rows.Next() {
		a := &Attempt{}
		if err := rows.Scan(&a.ID, &a.SessionID, &a.Expected, &a.Detected, &a.Correct, &a.Score, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
