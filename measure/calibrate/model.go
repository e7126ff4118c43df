package calibrate

import "gonum.org/v1/gonum/stat"

// Model is the fitted line mapping a measured peak amplitude in physical
// units to the playback multiplier that produced it.
type Model struct {
	Slope     float64
	Intercept float64
}

// MultiplierFor evaluates the model at the target amplitude.
func (m Model) MultiplierFor(target float64) float64 {
	return m.Slope*target + m.Intercept
}

// FitModel least-squares fits the peak-to-multiplier line. Degenerate
// inputs with identical peaks produce a non-finite slope; the fit does not
// guard against them.
func FitModel(peaks, steps []float64) (Model, error) {
	if len(peaks) != len(steps) || len(peaks) < 2 {
		return Model{}, ErrRegressionData
	}

	intercept, slope := stat.LinearRegression(peaks, steps, nil, false)

	return Model{Slope: slope, Intercept: intercept}, nil
}
