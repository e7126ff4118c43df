package welch

import "math"

// BinIndex converts a frequency in Hz to the bin index of an fftSize-point
// spectrum at the given sample rate:
//
//	index = floor(freq / (sampleRate/fftSize))
//
// The result is not clamped; frequencies above Nyquist map past the
// one-sided range.
func BinIndex(freq float64, sampleRate, fftSize int) int {
	return int(math.Floor(freq / (float64(sampleRate) / float64(fftSize))))
}

// Decibels converts linear amplitudes to decibels (20*log10 convention)
// and returns a new slice. Zero maps to -Inf and negative values to NaN.
func Decibels(amplitudes []float64) []float64 {
	out := make([]float64, len(amplitudes))
	for i, a := range amplitudes {
		out[i] = 20 * math.Log10(a)
	}

	return out
}
