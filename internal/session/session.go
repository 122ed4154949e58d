// Package session tracks a learner's progress through a chord sequence.
package session

import (
	"sync"
	"time"

	"github.com/strumspace/strumspace/internal/chord"
)

const (
	// PointsPerChord is added to the score for every correctly played chord.
	PointsPerChord = 10
	// DefaultMaxAttempts is the number of failed verifications before the
	// learner is told to move on.
	DefaultMaxAttempts = 10
)

// Session is one pass through a chord sequence. All methods are safe for
// concurrent use; each session is guarded by its own lock.
type Session struct {
	mu sync.Mutex

	id          string
	difficulty  chord.Difficulty
	sequence    []string
	index       int
	score       int
	attempts    int
	completed   []string
	maxAttempts int
	createdAt   time.Time
	updatedAt   time.Time
}

// Outcome is the effect of recording one verification result.
type Outcome struct {
	Correct  bool
	Attempts int
	// MoveOn is set once the attempt cap has been reached for the current chord.
	MoveOn   bool
	// Stale is set when the session moved past the verified chord while the
	// verification ran; nothing was changed.
	Stale    bool
	Advanced bool
	Complete bool
	Next     string
}

// Snapshot is a point-in-time copy of a session's state.
type Snapshot struct {
	ID           string           `json:"id"`
	Difficulty   chord.Difficulty `json:"difficulty"`
	Sequence     []string         `json:"sequence"`
	Index        int              `json:"index"`
	CurrentChord string           `json:"current_chord,omitempty"`
	Score        int              `json:"score"`
	Attempts     int              `json:"attempts"`
	MaxAttempts  int              `json:"max_attempts"`
	Completed    []string         `json:"completed"`
	Complete     bool             `json:"complete"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// New creates a session over the given tier's sequence.
func New(id string, d chord.Difficulty) *Session {
	d, seq := Sequence(d)
	return NewWithSequence(id, d, seq)
}

// NewWithSequence creates a session over an explicit chord sequence.
func NewWithSequence(id string, d chord.Difficulty, sequence []string) *Session {
	now := time.Now()
	seq := make([]string, len(sequence))
	copy(seq, sequence)
	return &Session{
		id:          id,
		difficulty:  d,
		sequence:    seq,
		completed:   make([]string, 0, len(seq)),
		maxAttempts: DefaultMaxAttempts,
		createdAt:   now,
		updatedAt:   now,
	}
}

// SetMaxAttempts changes the attempt cap. Values below 1 are ignored.
func (s *Session) SetMaxAttempts(n int) {
	if n < 1 {
		return
	}
	s.mu.Lock()
	s.maxAttempts = n
	s.mu.Unlock()
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Difficulty returns the tier the session was created with.
func (s *Session) Difficulty() chord.Difficulty {
	return s.difficulty
}

// Current returns the chord to play, or false once the sequence is complete.
func (s *Session) Current() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current()
}

func (s *Session) current() (string, bool) {
	if s.index >= len(s.sequence) {
		return "", false
	}
	return s.sequence[s.index], true
}

// Complete reports whether every chord in the sequence has been passed.
func (s *Session) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index >= len(s.sequence)
}

// Advance marks the current chord as played correctly and moves to the next one.
// It returns false without changing anything when the session is already complete.
func (s *Session) Advance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advance()
}

func (s *Session) advance() bool {
	name, ok := s.current()
	if !ok {
		return false
	}
	s.completed = append(s.completed, name)
	s.score += PointsPerChord
	s.attempts = 0
	s.index++
	s.updatedAt = time.Now()
	return true
}

// Skip moves past the current chord without scoring it. Attempts are reset and
// the completed list is left unchanged. Returns false when already complete.
func (s *Session) Skip() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.current(); !ok {
		return false
	}
	s.attempts = 0
	s.index++
	s.updatedAt = time.Now()
	return true
}

// SkipIf skips the current chord only while it is still expected.
func (s *Session) SkipIf(expected string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.current(); !ok || cur != expected {
		return false
	}
	s.attempts = 0
	s.index++
	s.updatedAt = time.Now()
	return true
}

// RecordAttempt applies one verification result for expected, the chord that
// was current when the verification started. A correct result advances the
// session; an incorrect one counts an attempt. If the session has moved on
// since, the outcome is marked Stale and the session is left untouched.
func (s *Session) RecordAttempt(expected string, correct bool) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.current()
	if !ok {
		return Outcome{Complete: true, Stale: true}
	}
	if cur != expected {
		return Outcome{Stale: true, Attempts: s.attempts, Next: cur}
	}

	out := Outcome{Correct: correct}
	if correct {
		out.Advanced = s.advance()
	} else {
		s.attempts++
		s.updatedAt = time.Now()
		out.MoveOn = s.attempts >= s.maxAttempts
	}

	out.Attempts = s.attempts
	out.Next, _ = s.current()
	out.Complete = s.index >= len(s.sequence)
	return out
}

// Snapshot copies the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, _ := s.current()
	seq := make([]string, len(s.sequence))
	copy(seq, s.sequence)
	done := make([]string, len(s.completed))
	copy(done, s.completed)

	return Snapshot{
		ID:           s.id,
		Difficulty:   s.difficulty,
		Sequence:     seq,
		Index:        s.index,
		CurrentChord: cur,
		Score:        s.score,
		Attempts:     s.attempts,
		MaxAttempts:  s.maxAttempts,
		Completed:    done,
		Complete:     s.index >= len(s.sequence),
		CreatedAt:    s.createdAt,
		UpdatedAt:    s.updatedAt,
	}
}
