// Package chord holds guitar chord fingerings and the table they are looked up in.
package chord

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownChord is returned when a chord name cannot be resolved.
var ErrUnknownChord = errors.New("unknown chord")

// Difficulty ranks a chord for learners.
type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// Position is one fretted note of a chord shape.
// String 1 is the high E string and 6 the low E string. Fret 0 means an open string.
type Position struct {
	Fret   int `json:"fret"`
	String int `json:"string"`
	// Finger is the suggested fretting finger, for display only.
	Finger int `json:"finger,omitempty"`
}

// UnmarshalJSON accepts either an object or a compact [fret, string] pair.
func (p *Position) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("position pair must have 2 elements, got %d", len(pair))
		}
		*p = Position{Fret: pair[0], String: pair[1]}
		return nil
	}

	type plain Position
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Position(v)
	return nil
}

// Chord is a named chord shape with learner metadata.
type Chord struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Display    string     `json:"displayName"`
	Difficulty Difficulty `json:"difficulty"`
	Positions  []Position `json:"positions"`
	Tips       string     `json:"tips,omitempty"`
	Barre      bool       `json:"isBarreChord,omitempty"`
}

// Label returns the short name shown to the player.
func (c *Chord) Label() string {
	if c.Display != "" {
		return c.Display
	}
	return c.ID
}

// Normalize folds a user supplied chord name into a table key:
// lower case with all whitespace removed.
func Normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}
