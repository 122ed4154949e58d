package chord

// pos is shorthand for a fretted position with a suggested finger.
func pos(str, fret, finger int) Position {
	return Position{Fret: fret, String: str, Finger: finger}
}

var library = []Chord{
	// Major chords
	{ID: "a", Name: "A Major", Display: "A", Difficulty: Beginner,
		Positions: []Position{pos(2, 2, 1), pos(3, 2, 2), pos(4, 2, 3)},
		Tips:      "Keep fingers curved and press firmly behind the frets"},
	{ID: "c", Name: "C Major", Display: "C", Difficulty: Beginner,
		Positions: []Position{pos(2, 1, 1), pos(4, 2, 2), pos(5, 3, 3)},
		Tips:      "Stretch your fingers and avoid touching other strings"},
	{ID: "d", Name: "D Major", Display: "D", Difficulty: Beginner,
		Positions: []Position{pos(1, 2, 1), pos(2, 3, 3), pos(3, 2, 2)},
		Tips:      "Form a triangle with your fingers"},
	{ID: "e", Name: "E Major", Display: "E", Difficulty: Beginner,
		Positions: []Position{pos(3, 1, 1), pos(5, 2, 2), pos(4, 2, 3)},
		Tips:      "Similar to Em but add one finger on the G string"},
	{ID: "g", Name: "G Major", Display: "G", Difficulty: Intermediate,
		Positions: []Position{pos(1, 3, 2), pos(6, 3, 1), pos(5, 2, 3)},
		Tips:      "Use fingertips and arch your hand"},

	// Minor chords
	{ID: "am", Name: "A Minor", Display: "Am", Difficulty: Beginner,
		Positions: []Position{pos(2, 1, 1), pos(3, 2, 2), pos(4, 2, 3)},
		Tips:      "Very similar to A major, just move one finger"},
	{ID: "em", Name: "E Minor", Display: "Em", Difficulty: Beginner,
		Positions: []Position{pos(5, 2, 2), pos(4, 2, 3)},
		Tips:      "One of the easiest chords - great for beginners"},
	{ID: "dm", Name: "D Minor", Display: "Dm", Difficulty: Beginner,
		Positions: []Position{pos(1, 1, 1), pos(2, 3, 3), pos(3, 2, 2)},
		Tips:      "Keep fingers close to frets and arch your hand"},

	// Barre chords
	{ID: "f", Name: "F Major", Display: "F", Difficulty: Intermediate, Barre: true,
		Positions: []Position{pos(1, 1, 1), pos(2, 1, 1), pos(3, 2, 2), pos(4, 3, 4), pos(5, 3, 3), pos(6, 1, 1)},
		Tips:      "First barre chord! Press firmly across 1st fret with index finger"},
	{ID: "bm", Name: "B Minor", Display: "Bm", Difficulty: Intermediate, Barre: true,
		Positions: []Position{pos(1, 2, 1), pos(2, 3, 2), pos(3, 4, 4), pos(4, 4, 3), pos(5, 2, 1), pos(6, 2, 1)},
		Tips:      "Barre chord - press index finger across all strings at 2nd fret"},

	// Seventh chords
	{ID: "a7", Name: "A Dominant 7", Display: "A7", Difficulty: Intermediate,
		Positions: []Position{pos(2, 2, 2), pos(4, 2, 3)},
		Tips:      "Easy version of A7 - just two fingers!"},
	{ID: "d7", Name: "D Dominant 7", Display: "D7", Difficulty: Intermediate,
		Positions: []Position{pos(1, 2, 2), pos(2, 1, 1), pos(3, 2, 3)},
		Tips:      "Great for blues and country music"},
	{ID: "e7", Name: "E Dominant 7", Display: "E7", Difficulty: Intermediate,
		Positions: []Position{pos(3, 1, 1), pos(5, 2, 2)},
		Tips:      "Like E major but remove one finger"},
	{ID: "g7", Name: "G Dominant 7", Display: "G7", Difficulty: Intermediate,
		Positions: []Position{pos(1, 1, 1), pos(6, 3, 3), pos(5, 2, 2)},
		Tips:      "Common in folk and country music"},

	// Power chords
	{ID: "a5", Name: "A Power Chord", Display: "A5", Difficulty: Intermediate,
		Positions: []Position{pos(6, 5, 1), pos(5, 7, 3)},
		Tips:      "Great for rock music - only 2 fingers needed"},
	{ID: "e5", Name: "E Power Chord", Display: "E5", Difficulty: Intermediate,
		Positions: []Position{pos(6, 0, 0), pos(5, 2, 2)},
		Tips:      "Classic rock chord - open low E string"},

	// Suspended chords
	{ID: "dsus2", Name: "D Suspended 2", Display: "Dsus2", Difficulty: Intermediate,
		Positions: []Position{pos(1, 0, 0), pos(2, 3, 3), pos(3, 2, 2)},
		Tips:      "Creates tension that wants to resolve to D major"},
	{ID: "dsus4", Name: "D Suspended 4", Display: "Dsus4", Difficulty: Intermediate,
		Positions: []Position{pos(1, 3, 3), pos(2, 3, 4), pos(3, 2, 2)},
		Tips:      "Common in folk music - like D but with pinky added"},

	// Alternatives
	{ID: "cadd9", Name: "C Add 9", Display: "Cadd9", Difficulty: Intermediate,
		Positions: []Position{pos(1, 3, 4), pos(2, 3, 3), pos(4, 2, 2), pos(5, 3, 1)},
		Tips:      "Beautiful open chord - adds color to C major"},
	{ID: "g/b", Name: "G over B", Display: "G/B", Difficulty: Advanced,
		Positions: []Position{pos(1, 3, 4), pos(2, 0, 0), pos(3, 0, 0), pos(4, 0, 0), pos(5, 2, 2), pos(6, 2, 1)},
		Tips:      "Bass note is B - creates smooth bass line movement"},
}

var libraryAliases = map[string]string{
	"amajor": "a",
	"cmajor": "c",
	"dmajor": "d",
	"emajor": "e",
	"gmajor": "g",
	"fmajor": "f",
	"aminor": "am",
	"eminor": "em",
	"dminor": "dm",
	"bminor": "bm",
}

var progressions = map[string][]string{
	"C": {"cmajor", "aminor", "fmajor", "gmajor"},
	"G": {"gmajor", "eminor", "cmajor", "dmajor"},
	"D": {"dmajor", "bminor", "gmajor", "amajor"},
	"A": {"amajor", "fsharpminor", "dmajor", "emajor"},
	"E": {"emajor", "csharpminor", "amajor", "bmajor"},
}

// DefaultProgressionKey is used when an unknown key is requested.
const DefaultProgressionKey = "G"

// DefaultTable returns a Table populated with the built-in chord library.
func DefaultTable() *Table {
	t := NewTable()
	for i := range library {
		// library entries always carry an id
		_ = t.Add(&library[i])
	}
	for alias, target := range libraryAliases {
		t.Alias(alias, target)
	}
	return t
}

// Progression returns the chords of a common progression in the given key.
// Unknown keys fall back to G; chords missing from the table are dropped.
func (t *Table) Progression(key string) (string, []*Chord) {
	names, ok := progressions[key]
	if !ok {
		key = DefaultProgressionKey
		names = progressions[key]
	}

	var chords []*Chord
	for _, name := range names {
		if c, err := t.Get(name); err == nil {
			chords = append(chords, c)
		}
	}
	return key, chords
}
