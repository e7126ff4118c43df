package welch

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/cwbudde/algo-calib/dsp/window"
)

// Errors returned by spectrum estimation.
var (
	ErrInvalidSampleRate    = errors.New("welch: sample rate must be positive")
	ErrInvalidSegmentLength = errors.New("welch: segment length must be positive")
	ErrShortSignal          = errors.New("welch: signal shorter than segment length")
)

// Config holds the estimation parameters.
type Config struct {
	// SampleRate is the sampling frequency in Hz.
	SampleRate int
	// SegmentLength is the number of samples per Welch segment. The
	// spectral resolution is SampleRate/SegmentLength Hz per bin.
	SegmentLength int
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}

	if c.SegmentLength <= 0 {
		return ErrInvalidSegmentLength
	}

	return nil
}

// Estimate is a one-sided amplitude spectrum.
type Estimate struct {
	// Frequencies holds the bin center frequencies in Hz.
	Frequencies []float64
	// Amplitudes holds the linear amplitude per bin (square root of the
	// Welch power estimate).
	Amplitudes []float64
}

// AmplitudeSpectrum estimates the one-sided amplitude spectrum of x.
//
// Segments overlap by half their length; a trailing remainder shorter
// than one segment is discarded. The estimate has SegmentLength/2 + 1
// bins spanning 0 to SampleRate/2.
func AmplitudeSpectrum(x []float64, cfg Config) (Estimate, error) {
	if err := cfg.Validate(); err != nil {
		return Estimate{}, err
	}

	nperseg := cfg.SegmentLength
	if len(x) < nperseg {
		return Estimate{}, ErrShortSignal
	}

	win := window.Generate(window.TypeHamming, nperseg, window.WithPeriodic())

	winSum := 0.0
	for _, w := range win {
		winSum += w
	}

	scale := 1 / (winSum * winSum)

	noverlap := nperseg / 2
	step := nperseg - noverlap
	numSegments := (len(x) - noverlap) / step
	nBins := nperseg/2 + 1

	var plan *algofft.Plan[complex128]

	if isPowerOfTwo(nperseg) {
		p, err := algofft.NewPlan64(nperseg)
		if err != nil {
			return Estimate{}, fmt.Errorf("welch: failed to create FFT plan: %w", err)
		}

		plan = p
	}

	scratch := make([]float64, nperseg)
	power := make([]float64, nBins)

	for seg := range numSegments {
		start := seg * step
		if err := window.ApplyCoefficientsInPlace(copyInto(scratch, x[start:start+nperseg]), win); err != nil {
			return Estimate{}, fmt.Errorf("welch: windowing segment: %w", err)
		}

		if plan != nil {
			if err := accumulateFFT(power, scratch, plan); err != nil {
				return Estimate{}, err
			}
		} else {
			accumulateGoertzel(power, scratch)
		}
	}

	est := Estimate{
		Frequencies: make([]float64, nBins),
		Amplitudes:  make([]float64, nBins),
	}

	binWidth := float64(cfg.SampleRate) / float64(nperseg)
	for k := range nBins {
		p := power[k] / float64(numSegments) * scale
		if onesidedDoubled(k, nperseg) {
			p *= 2
		}

		est.Frequencies[k] = float64(k) * binWidth
		est.Amplitudes[k] = math.Sqrt(p)
	}

	return est, nil
}

// Band returns the estimate truncated to the bin index range [lo, hi).
// Indices are clamped to the available bins, so an out-of-range request
// yields an empty (never out-of-bounds) estimate.
func (e Estimate) Band(lo, hi int) Estimate {
	n := len(e.Amplitudes)

	lo = clampIndex(lo, 0, n)
	hi = clampIndex(hi, lo, n)

	return Estimate{
		Frequencies: e.Frequencies[lo:hi],
		Amplitudes:  e.Amplitudes[lo:hi],
	}
}

// onesidedDoubled reports whether bin k receives the factor two that folds
// the negative frequencies into a one-sided spectrum. The DC bin is never
// doubled; for even segment lengths the unpaired Nyquist bin is not either.
func onesidedDoubled(k, nperseg int) bool {
	if k == 0 {
		return false
	}

	if nperseg%2 == 0 && k == nperseg/2 {
		return false
	}

	return true
}

func accumulateFFT(power, segment []float64, plan *algofft.Plan[complex128]) error {
	n := len(segment)

	src := make([]complex128, n)
	for i, v := range segment {
		src[i] = complex(v, 0)
	}

	dst := make([]complex128, n)
	if err := plan.Forward(dst, src); err != nil {
		return fmt.Errorf("welch: forward FFT failed: %w", err)
	}

	for k := range power {
		re := real(dst[k])
		im := imag(dst[k])
		power[k] += re*re + im*im
	}

	return nil
}

func accumulateGoertzel(power, segment []float64) {
	n := len(segment)
	for k := range power {
		power[k] += goertzelPower(segment, k, n)
	}
}

// goertzelPower evaluates |X[k]|² of an n-point DFT over block using the
// Goertzel recurrence, without computing the remaining bins.
func goertzelPower(block []float64, k, n int) float64 {
	coeff := 2 * math.Cos(2*math.Pi*float64(k)/float64(n))

	s0, s1 := 0.0, 0.0
	for _, x := range block {
		s := x + coeff*s0 - s1
		s1 = s0
		s0 = s
	}

	return s0*s0 + s1*s1 - coeff*s0*s1
}

func copyInto(dst, src []float64) []float64 {
	copy(dst, src)
	return dst
}

func clampIndex(i, lo, hi int) int {
	if i < lo {
		return lo
	}

	if i > hi {
		return hi
	}

	return i
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
