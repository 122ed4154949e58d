package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/strumspace/strumspace/internal/chord"
)

// ChordRecord is a stored chord shape.
type ChordRecord struct {
	Chord     chord.Chord
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChordRepository persists user supplied chord shapes.
type ChordRepository struct {
	db *sql.DB
}

// Chords returns the chord repository for this store.
func (s *Store) Chords() *ChordRepository {
	return &ChordRepository{db: s.db}
}

// Save inserts or replaces a chord keyed by its ID.
func (r *ChordRepository) Save(c *chord.Chord) error {
	if c.ID == "" {
		return fmt.Errorf("chord id is required")
	}
	positions, err := json.Marshal(c.Positions)
	if err != nil {
		return fmt.Errorf("encode positions: %w", err)
	}
	difficulty := c.Difficulty
	if !difficulty.Valid() {
		difficulty = chord.Beginner
	}

	now := time.Now()
	_, err = r.db.Exec(
		`INSERT INTO chords (id, name, display, difficulty, positions, tips, barre, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			display = excluded.display,
			difficulty = excluded.difficulty,
			positions = excluded.positions,
			tips = excluded.tips,
			barre = excluded.barre,
			updated_at = excluded.updated_at`,
		c.ID, c.Name, c.Label(), string(difficulty), string(positions), c.Tips, c.Barre, now, now,
	)
	return err
}

// Get retrieves a chord by ID.
func (r *ChordRepository) Get(id string) (*ChordRecord, error) {
	row := r.db.QueryRow(
		`SELECT id, name, display, difficulty, positions, tips, barre, created_at, updated_at
		 FROM chords WHERE id = ?`, id)

	rec, err := scanChord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// List retrieves all stored chords, oldest first.
func (r *ChordRepository) List() ([]*ChordRecord, error) {
	rows, err := r.db.Query(
		`SELECT id, name, display, difficulty, positions, tips, barre, created_at, updated_at
		 FROM chords ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ChordRecord
	for rows.Next() {
		rec, err := scanChord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes a chord by ID.
func (r *ChordRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM chords WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return rowsAffected(result)
}

// LoadInto adds every stored chord to t, replacing built-in shapes with the same ID.
func (r *ChordRepository) LoadInto(t *chord.Table) (int, error) {
	recs, err := r.List()
	if err != nil {
		return 0, err
	}
	for _, rec := range recs {
		c := rec.Chord
		if err := t.Add(&c); err != nil {
			return 0, fmt.Errorf("load chord %s: %w", c.ID, err)
		}
	}
	return len(recs), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChord(row scanner) (*ChordRecord, error) {
	rec := &ChordRecord{}
	var difficulty, positions string

	err := row.Scan(&rec.Chord.ID, &rec.Chord.Name, &rec.Chord.Display, &difficulty,
		&positions, &rec.Chord.Tips, &rec.Chord.Barre, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rec.Chord.Difficulty = chord.Difficulty(difficulty)
	if err := json.Unmarshal([]byte(positions), &rec.Chord.Positions); err != nil {
		return nil, fmt.Errorf("decode positions of %s: %w", rec.Chord.ID, err)
	}
	return rec, nil
}
