// Package fir synthesizes and applies finite impulse response filters.
//
// DesignFrequencySampling builds a Type I (odd length, symmetric) linear
// phase filter from an arbitrary magnitude response by sampling the
// response on a dense uniform grid, imposing linear phase, and windowing
// the inverse transform. Apply runs the filter causally over a signal
// with zero initial state, producing exactly one output sample per input
// sample. Short kernels are convolved directly; long kernels go through
// a one-shot FFT convolution.
package fir
