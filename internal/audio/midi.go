package audio

import (
	"fmt"
	"io"
	"math"

	"gitlab.com/gomidi/midi/v2/smf"
)

// RecordSeconds and RecordRate describe one verification take.
const (
	RecordSeconds = 2
	RecordRate    = 22050
)

// MIDIKeys returns the distinct keys switched on anywhere in a Standard MIDI File.
func MIDIKeys(r io.Reader) ([]uint8, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedSample, err)
	}

	seen := make(map[uint8]bool)
	var keys []uint8
	for _, track := range s.Tracks {
		for _, ev := range track {
			var ch, key, vel uint8
			if ev.Message.GetNoteOn(&ch, &key, &vel) && vel > 0 && !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	if len(keys) == 0 {
		return nil, ErrEmptySample
	}
	return keys, nil
}

// DecodeMIDI renders the notes of a MIDI file as a sustained tone, so a
// MIDI take can go through the same chroma path as recorded audio.
func DecodeMIDI(r io.Reader) (Sample, error) {
	keys, err := MIDIKeys(r)
	if err != nil {
		return Sample{}, err
	}
	return Synthesize(keys, RecordRate, RecordSeconds*RecordRate), nil
}

// Synthesize sums a sine tone for each MIDI key.
func Synthesize(keys []uint8, rate, n int) Sample {
	data := make([]float64, n)
	if len(keys) == 0 {
		return Sample{Rate: rate, Data: data}
	}
	amp := 1 / float64(len(keys))
	for _, k := range keys {
		f := 440 * math.Pow(2, (float64(k)-69)/12)
		w := 2 * math.Pi * f / float64(rate)
		for i := range data {
			data[i] += amp * math.Sin(w*float64(i))
		}
	}
	return Sample{Rate: rate, Data: data}
}
