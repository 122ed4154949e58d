package session

import "github.com/strumspace/strumspace/internal/chord"

// tiers maps each difficulty to its fixed practice sequence of chord display names.
var tiers = map[chord.Difficulty][]string{
	chord.Beginner:     {"Am", "C", "G", "D", "Em"},
	chord.Intermediate: {"C", "G", "Am", "F", "Dm", "E"},
	chord.Advanced:     {"F", "Bm", "G7", "D7", "E7", "A7", "Cadd9", "G/B"},
}

// Sequence returns the chord sequence for a tier. Unknown tiers fall back to beginner.
func Sequence(d chord.Difficulty) (chord.Difficulty, []string) {
	seq, ok := tiers[d]
	if !ok {
		d = chord.Beginner
		seq = tiers[d]
	}
	out := make([]string, len(seq))
	copy(out, seq)
	return d, out
}

// Tiers returns a copy of every tier sequence keyed by difficulty name.
func Tiers() map[string][]string {
	out := make(map[string][]string, len(tiers))
	for d := range tiers {
		_, seq := Sequence(d)
		out[string(d)] = seq
	}
	return out
}
