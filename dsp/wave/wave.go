package wave

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-calib/dsp/window"
)

// Peak returns the index and magnitude of the absolute maximum of x.
// For an empty slice it returns (-1, 0). Ties resolve to the first index.
func Peak(x []float64) (index int, value float64) {
	if len(x) == 0 {
		return -1, 0
	}

	index = 0
	value = math.Abs(x[0])

	for i, v := range x {
		av := math.Abs(v)
		if av > value {
			index = i
			value = av
		}
	}

	return index, value
}

// Scale returns x multiplied by factor as a new slice.
func Scale(x []float64, factor float64) []float64 {
	out := make([]float64, len(x))
	vecmath.ScaleBlock(out, x, factor)

	return out
}

// TaperEdges returns x multiplied by an edge-ramp taper of the given ramp
// length, fading the waveform in from zero and out to zero.
func TaperEdges(x []float64, ramp int) ([]float64, error) {
	coeffs, err := window.EdgeRamp(len(x), ramp)
	if err != nil {
		return nil, fmt.Errorf("wave: edge taper: %w", err)
	}

	return window.ApplyCoefficients(x, coeffs)
}

// Silence returns n zero samples.
func Silence(n int) []float64 {
	if n <= 0 {
		return nil
	}

	return make([]float64, n)
}

// Concat joins the given waveforms into one new slice.
func Concat(parts ...[]float64) []float64 {
	total := 0
	for _, p := range parts {
		total += len(p)
	}

	out := make([]float64, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}

	return out
}
