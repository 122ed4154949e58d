package chord

import (
	"fmt"
	"io"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// standardTuning holds the MIDI key of each open string, indexed by string number.
var standardTuning = [7]uint8{0, 64, 59, 55, 50, 45, 40}

const (
	midiChannel     = 0
	midiVelocity    = 96
	steelGuitarProg = 25
	strumTicks      = 12
	midiTempoBPM    = 80
)

// MIDINotes returns the sounding MIDI keys of the chord from low string to high.
// Strings without a position ring open; the highest fret given for a string wins.
func MIDINotes(c *Chord) []uint8 {
	frets := [7]int{}
	for _, p := range c.Positions {
		if p.String < 1 || p.String > 6 || p.Fret < 0 {
			continue
		}
		if p.Fret > frets[p.String] {
			frets[p.String] = p.Fret
		}
	}

	notes := make([]uint8, 0, 6)
	for str := 6; str >= 1; str-- {
		notes = append(notes, standardTuning[str]+uint8(frets[str]))
	}
	return notes
}

// PitchClasses returns the distinct pitch classes (0 = C) sounded by the chord.
func PitchClasses(c *Chord) []int {
	seen := make(map[int]bool)
	var classes []int
	for _, n := range MIDINotes(c) {
		pc := int(n % 12)
		if !seen[pc] {
			seen[pc] = true
			classes = append(classes, pc)
		}
	}
	return classes
}

// WriteMIDI renders a downward strum of the chord, held for one bar, as a
// Standard MIDI File.
func WriteMIDI(w io.Writer, c *Chord) error {
	clock := smf.MetricTicks(96)
	s := smf.New()
	s.TimeFormat = clock

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(midiTempoBPM))
	tr.Add(0, midi.ProgramChange(midiChannel, steelGuitarProg))

	notes := MIDINotes(c)
	for i, key := range notes {
		var delta uint32
		if i > 0 {
			delta = strumTicks
		}
		tr.Add(delta, midi.NoteOn(midiChannel, key, midiVelocity))
	}

	hold := clock.Ticks4th()*4 - uint32(strumTicks*(len(notes)-1))
	for i, key := range notes {
		var delta uint32
		if i == 0 {
			delta = hold
		}
		tr.Add(delta, midi.NoteOff(midiChannel, key))
	}
	tr.Close(0)

	if err := s.Add(tr); err != nil {
		return fmt.Errorf("add track: %w", err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("write midi: %w", err)
	}
	return nil
}
