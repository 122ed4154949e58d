// Package audio verifies played chords from recorded sound.
package audio

import (
	"context"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
)

// STFT parameters used for chroma extraction.
const (
	FFTSize = 2048
	HopSize = 512

	// Lowest frequency folded into the chroma, roughly A0.
	minChromaHz = 27.5
)

// Chroma computes the mean 12-bin pitch class profile of a sample,
// scaled so its largest bin is 1. Bin 0 is C. An empty or silent sample
// returns ErrEmptySample.
func Chroma(ctx context.Context, s Sample) ([]float64, error) {
	if len(s.Data) == 0 || s.Rate <= 0 {
		return nil, ErrEmptySample
	}
	if floats.Max(s.Data) == 0 && floats.Min(s.Data) == 0 {
		return nil, ErrEmptySample
	}

	// Center frames on hop boundaries by zero padding half a window on each side.
	padded := make([]float64, len(s.Data)+FFTSize)
	copy(padded[FFTSize/2:], s.Data)
	nFrames := 1 + len(s.Data)/HopSize

	bins := pitchClassBins(s.Rate)
	fft := fourier.NewFFT(FFTSize)
	frame := make([]float64, FFTSize)
	coeffs := make([]complex128, FFTSize/2+1)
	frameChroma := make([]float64, 12)
	sum := make([]float64, 12)

	for i := 0; i < nFrames; i++ {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		start := i * HopSize
		copy(frame, padded[start:start+FFTSize])
		window.Hann(frame)
		coeffs = fft.Coefficients(coeffs, frame)

		for j := range frameChroma {
			frameChroma[j] = 0
		}
		for k, pc := range bins {
			if pc < 0 {
				continue
			}
			re, im := real(coeffs[k]), imag(coeffs[k])
			frameChroma[pc] += re*re + im*im
		}

		// per-frame max normalisation
		if peak := floats.Max(frameChroma); peak > 0 {
			floats.Scale(1/peak, frameChroma)
		}
		floats.Add(sum, frameChroma)
	}

	floats.Scale(1/float64(nFrames), sum)
	peak := floats.Max(sum)
	if peak == 0 {
		// nothing in the musical range
		return nil, ErrEmptySample
	}
	floats.Scale(1/peak, sum)
	return sum, nil
}

// pitchClassBins maps each FFT bin to a pitch class, or -1 for bins
// outside the musical range.
func pitchClassBins(rate int) []int {
	bins := make([]int, FFTSize/2+1)
	for k := range bins {
		f := float64(k) * float64(rate) / FFTSize
		if k == 0 || f < minChromaHz {
			bins[k] = -1
			continue
		}
		midi := 69 + 12*math.Log2(f/440)
		pc := int(math.Round(midi)) % 12
		if pc < 0 {
			pc += 12
		}
		bins[k] = pc
	}
	return bins
}
