package fir

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/cwbudde/algo-calib/dsp/window"
)

// Errors returned by filter design and application.
var (
	ErrInvalidSampleRate = errors.New("fir: sample rate must be positive")
	ErrEvenTaps          = errors.New("fir: tap count must be odd for a Type I filter")
	ErrInvalidTaps       = errors.New("fir: tap count must be positive")
	ErrAxisMismatch      = errors.New("fir: frequency and gain axes must have same length")
	ErrAxisTooShort      = errors.New("fir: frequency axis needs at least two points")
	ErrAxisEndpoints     = errors.New("fir: frequency axis must span 0 to Nyquist")
	ErrAxisOrder         = errors.New("fir: frequency axis must be strictly increasing")
	ErrEmptyKernel       = errors.New("fir: empty filter kernel")
	ErrEmptyInput        = errors.New("fir: empty input signal")
)

// OddLength rounds n up to the nearest odd number.
func OddLength(n int) int {
	if n%2 == 0 {
		return n + 1
	}

	return n
}

// DesignFrequencySampling returns the coefficients of a Type I linear phase
// FIR filter whose magnitude response follows the piecewise-linear curve
// given by freq (Hz) and gain.
//
// The curve must start at 0 Hz, end at the Nyquist frequency, and be
// strictly increasing in frequency. It is resampled onto a uniform grid of
// 1 + 2^ceil(log2(numtaps)) points, given the linear phase of a filter
// centered at (numtaps-1)/2, and transformed back to the time domain. The
// first numtaps samples, shaped by a symmetric Hamming window, form the
// filter.
func DesignFrequencySampling(numtaps int, freq, gain []float64, sampleRate int) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	if numtaps < 1 {
		return nil, ErrInvalidTaps
	}

	if numtaps%2 == 0 {
		return nil, ErrEvenTaps
	}

	if len(freq) != len(gain) {
		return nil, ErrAxisMismatch
	}

	if len(freq) < 2 {
		return nil, ErrAxisTooShort
	}

	nyquist := float64(sampleRate) / 2
	if freq[0] != 0 || freq[len(freq)-1] != nyquist {
		return nil, ErrAxisEndpoints
	}

	for i := 1; i < len(freq); i++ {
		if freq[i] <= freq[i-1] {
			return nil, ErrAxisOrder
		}
	}

	// Dense uniform grid from DC to Nyquist. Its mirror image completes a
	// power-of-two transform size.
	gridLen := 1 + nextPowerOf2(numtaps)
	fftSize := 2 * (gridLen - 1)

	grid := make([]float64, gridLen)
	for i := range grid {
		grid[i] = nyquist * float64(i) / float64(gridLen-1)
	}

	sampled := interpolateLinear(freq, gain, grid)

	// Linear phase centers the impulse response at (numtaps-1)/2.
	delay := float64(numtaps-1) / 2

	spec := make([]complex128, fftSize)
	for i, g := range sampled {
		phase := -delay * math.Pi * grid[i] / nyquist
		v := complex(g, 0) * cmplx.Exp(complex(0, phase))

		switch i {
		case 0, gridLen - 1:
			// DC and Nyquist have no conjugate partner and must stay real.
			spec[i] = complex(real(v), 0)
		default:
			spec[i] = v
			spec[fftSize-i] = cmplx.Conj(v)
		}
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("fir: failed to create FFT plan: %w", err)
	}

	impulse := make([]complex128, fftSize)
	if err := plan.Inverse(impulse, spec); err != nil {
		return nil, fmt.Errorf("fir: inverse FFT failed: %w", err)
	}

	wind := window.Generate(window.TypeHamming, numtaps)

	coeffs := make([]float64, numtaps)
	for i := range coeffs {
		coeffs[i] = real(impulse[i]) * wind[i]
	}

	return coeffs, nil
}

// interpolateLinear resamples the piecewise-linear curve (x, y) at the
// query points. Queries outside the curve clamp to the edge values.
// The axis must be validated by the caller.
func interpolateLinear(x, y, queryX []float64) []float64 {
	out := make([]float64, len(queryX))
	for i, q := range queryX {
		if q <= x[0] {
			out[i] = y[0]
			continue
		}

		if q >= x[len(x)-1] {
			out[i] = y[len(y)-1]
			continue
		}

		j := sort.SearchFloat64s(x, q)
		x0, x1 := x[j-1], x[j]
		t := (q - x0) / (x1 - x0)
		out[i] = y[j-1] + t*(y[j]-y[j-1])
	}

	return out
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p *= 2
	}

	return p
}
