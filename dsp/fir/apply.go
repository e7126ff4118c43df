package fir

import (
	"fmt"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// Kernels up to this length convolve faster in the time domain than
// through a one-shot FFT.
const directKernelThreshold = 64

// Apply filters x causally with the given coefficients and zero initial
// state, returning exactly len(x) output samples:
//
//	y[n] = sum_m coeffs[m] * x[n-m]
//
// The convolution tail beyond the input length is discarded.
func Apply(coeffs, x []float64) ([]float64, error) {
	if len(coeffs) == 0 {
		return nil, ErrEmptyKernel
	}

	if len(x) == 0 {
		return nil, ErrEmptyInput
	}

	if len(coeffs) <= directKernelThreshold {
		return applyDirect(coeffs, x), nil
	}

	return applyFFT(coeffs, x)
}

func applyDirect(coeffs, x []float64) []float64 {
	m := len(coeffs)

	full := make([]float64, len(x)+m-1)
	scaled := make([]float64, m)

	for i, v := range x {
		vecmath.ScaleBlock(scaled, coeffs, v)
		vecmath.AddBlockInPlace(full[i:i+m], scaled)
	}

	return full[:len(x)]
}

func applyFFT(coeffs, x []float64) ([]float64, error) {
	fftSize := nextPowerOf2(len(x) + len(coeffs) - 1)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("fir: failed to create FFT plan: %w", err)
	}

	xPadded := make([]complex128, fftSize)
	for i, v := range x {
		xPadded[i] = complex(v, 0)
	}

	xFreq := make([]complex128, fftSize)
	if err := plan.Forward(xFreq, xPadded); err != nil {
		return nil, fmt.Errorf("fir: forward FFT failed: %w", err)
	}

	kernelPadded := make([]complex128, fftSize)
	for i, v := range coeffs {
		kernelPadded[i] = complex(v, 0)
	}

	kernelFreq := make([]complex128, fftSize)
	if err := plan.Forward(kernelFreq, kernelPadded); err != nil {
		return nil, fmt.Errorf("fir: forward FFT failed: %w", err)
	}

	for i := range xFreq {
		xFreq[i] *= kernelFreq[i]
	}

	product := make([]complex128, fftSize)
	if err := plan.Inverse(product, xFreq); err != nil {
		return nil, fmt.Errorf("fir: inverse FFT failed: %w", err)
	}

	out := make([]float64, len(x))
	for i := range out {
		out[i] = real(product[i])
	}

	return out, nil
}
