package compensate

import (
	"fmt"

	"github.com/cwbudde/algo-calib/dsp/fir"
	"github.com/cwbudde/algo-calib/dsp/welch"
)

// bandGuardBins extends the passband past the top edge before the hard
// cutoff, keeping filter-design artifacts away from the band itself.
const bandGuardBins = 10

// designFilter synthesizes the inverse FIR filter whose frequency response
// is the ratio of the reference amplitude spectrum to the measured one,
// zeroed outside the compensation band.
func designFilter(reference, measured []float64, cfg Config, lowBin, highBin int) ([]float64, error) {
	wcfg := welch.Config{SampleRate: cfg.SampleRate, SegmentLength: cfg.FFTSize}

	ref, err := welch.AmplitudeSpectrum(reference, wcfg)
	if err != nil {
		return nil, fmt.Errorf("compensate: reference spectrum: %w", err)
	}

	meas, err := welch.AmplitudeSpectrum(measured, wcfg)
	if err != nil {
		return nil, fmt.Errorf("compensate: measured spectrum: %w", err)
	}

	ratio := amplitudeRatio(ref.Amplitudes, meas.Amplitudes, lowBin, highBin)

	coeffs, err := fir.DesignFrequencySampling(
		fir.OddLength(cfg.FFTSize),
		filterAxis(cfg.SampleRate, len(ratio)),
		ratio,
		cfg.SampleRate,
	)
	if err != nil {
		return nil, fmt.Errorf("compensate: synthesize filter: %w", err)
	}

	return coeffs, nil
}

// amplitudeRatio divides the reference spectrum by the measured spectrum
// bin by bin and zeroes everything below lowBin and from highBin plus the
// guard onward. Near-zero measured bins inside the band produce extreme
// ratios; the band truncation is the only protection against them.
func amplitudeRatio(reference, measured []float64, lowBin, highBin int) []float64 {
	ratio := make([]float64, len(reference))

	start := lowBin
	if start < 0 {
		start = 0
	}

	stop := highBin + bandGuardBins
	if stop > len(ratio) {
		stop = len(ratio)
	}

	for k := start; k < stop; k++ {
		ratio[k] = reference[k] / measured[k]
	}

	return ratio
}

// filterAxis builds the uniform frequency axis from 0 to Nyquist that the
// band gains are defined on.
func filterAxis(sampleRate, bins int) []float64 {
	nyquist := float64(sampleRate) / 2

	axis := make([]float64, bins)
	for k := range axis {
		axis[k] = nyquist * float64(k) / float64(bins-1)
	}

	return axis
}
