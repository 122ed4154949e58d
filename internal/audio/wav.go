package audio

import (
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DecodeWAV reads a PCM WAV stream and mixes it down to a mono Sample.
func DecodeWAV(r io.ReadSeeker) (Sample, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return Sample{}, fmt.Errorf("%w: not a PCM wav file", ErrUnsupportedSample)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return Sample{}, fmt.Errorf("%w: %v", ErrUnsupportedSample, err)
	}
	return fromIntBuffer(buf)
}

func fromIntBuffer(buf *goaudio.IntBuffer) (Sample, error) {
	if buf.Format == nil || buf.Format.NumChannels < 1 || buf.Format.SampleRate <= 0 {
		return Sample{}, fmt.Errorf("%w: missing format", ErrUnsupportedSample)
	}
	if len(buf.Data) == 0 {
		return Sample{}, ErrEmptySample
	}

	depth := buf.SourceBitDepth
	if depth <= 0 {
		depth = 16
	}
	full := math.Pow(2, float64(depth-1))
	// 8-bit wav is unsigned
	var offset float64
	if depth == 8 {
		offset = 128
	}

	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	data := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += (float64(buf.Data[i*ch+c]) - offset) / full
		}
		data[i] = sum / float64(ch)
	}

	return Sample{Rate: buf.Format.SampleRate, Data: data}, nil
}

// EncodeWAV writes s as 16-bit mono PCM.
func EncodeWAV(w io.WriteSeeker, s Sample) error {
	const bitDepth = 16
	enc := wav.NewEncoder(w, s.Rate, bitDepth, 1, 1)

	ints := make([]int, len(s.Data))
	for i, v := range s.Data {
		v = math.Max(-1, math.Min(1, v))
		ints[i] = int(v * math.MaxInt16)
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: s.Rate},
		Data:           ints,
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	return enc.Close()
}
