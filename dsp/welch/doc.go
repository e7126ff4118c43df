// Package welch estimates amplitude spectra with Welch's method of
// averaged modified periodograms.
//
// The estimator frames the signal into half-overlapping segments, applies
// a periodic Hamming window, averages the per-segment power spectra with
// "spectrum" scaling (1/Σw²), and returns the square root so results stay
// linear in signal amplitude. A sinusoid of amplitude A centered on a bin
// therefore reads A/√2 (its RMS) at that bin.
//
// Power-of-two segment lengths run on an FFT plan; any other length falls
// back to per-bin Goertzel evaluation with identical results.
package welch
