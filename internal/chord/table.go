package chord

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Table is a concurrency-safe chord library with alias support.
type Table struct {
	mu      sync.RWMutex
	chords  map[string]*Chord
	aliases map[string]string
	order   []string
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{
		chords:  make(map[string]*Chord),
		aliases: make(map[string]string),
	}
}

// Add inserts or replaces a chord. The chord ID is normalised; a missing ID is
// derived from the display name.
func (t *Table) Add(c *Chord) error {
	if c == nil {
		return fmt.Errorf("nil chord")
	}
	id := Normalize(c.ID)
	if id == "" {
		id = Normalize(c.Display)
	}
	if id == "" {
		return fmt.Errorf("chord has no id or display name")
	}
	cp := *c
	cp.ID = id
	cp.Positions = append([]Position(nil), c.Positions...)
	if cp.Display == "" {
		cp.Display = c.ID
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.chords[id]; !exists {
		t.order = append(t.order, id)
	}
	t.chords[id] = &cp
	return nil
}

// Alias registers alias as another name for target.
func (t *Table) Alias(alias, target string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.aliases[Normalize(alias)] = Normalize(target)
}

// Get resolves a chord by id, display name or alias, ignoring case and whitespace.
func (t *Table) Get(name string) (*Chord, error) {
	key := Normalize(name)

	t.mu.RLock()
	defer t.mu.RUnlock()

	if target, ok := t.aliases[key]; ok {
		key = target
	}
	c, ok := t.chords[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChord, name)
	}
	return c, nil
}

// Positions returns the fingering for name, or nil when the chord is unknown.
func (t *Table) Positions(name string) []Position {
	c, err := t.Get(name)
	if err != nil {
		return nil
	}
	return c.Positions
}

// List returns all chords in insertion order, optionally filtered by difficulty.
func (t *Table) List(difficulty Difficulty) []*Chord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	chords := make([]*Chord, 0, len(t.order))
	for _, id := range t.order {
		c := t.chords[id]
		if difficulty != "" && c.Difficulty != difficulty {
			continue
		}
		chords = append(chords, c)
	}
	return chords
}

// Names returns every resolvable name (ids and aliases), sorted.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.chords)+len(t.aliases))
	for id := range t.chords {
		names = append(names, id)
	}
	for alias := range t.aliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	return names
}

// Search returns chords whose name or display name contains q, case-insensitively.
func (t *Table) Search(q string) []*Chord {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil
	}

	var results []*Chord
	for _, c := range t.List("") {
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Display), q) {
			results = append(results, c)
		}
	}
	return results
}

// Len returns the number of chords (aliases excluded).
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.chords)
}

// LoadFile reads a chord table from a JSON file. Two layouts are accepted: a map
// from chord name to [fret, string] pairs, or an array of chord objects.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chord file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a chord table from JSON; see LoadFile for the accepted layouts.
func Parse(data []byte) (*Table, error) {
	t := NewTable()

	var compact map[string][]Position
	if err := json.Unmarshal(data, &compact); err == nil {
		names := make([]string, 0, len(compact))
		for name := range compact {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := t.Add(&Chord{ID: name, Display: name, Positions: compact[name]}); err != nil {
				return nil, err
			}
		}
		return t, nil
	}

	var chords []Chord
	if err := json.Unmarshal(data, &chords); err != nil {
		return nil, fmt.Errorf("parse chord table: %w", err)
	}
	for i := range chords {
		if err := t.Add(&chords[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}
