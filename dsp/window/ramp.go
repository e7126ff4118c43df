package window

import "math"

// EdgeRamp returns a taper of the given length: a half-sine rise from 0 to 1
// over the first ramp samples, a flat unity middle, and a half-cosine fall
// from 1 to 0 over the last ramp samples.
//
//	rise[i] = 0.5*sin(pi*i/(ramp-1) - pi/2) + 0.5
//	fall[i] = 0.5*cos(pi*i/(ramp-1)) + 0.5
//
// Both edges include their endpoints, so the taper starts and ends exactly
// at zero.
func EdgeRamp(length, ramp int) ([]float64, error) {
	if err := validateRamp(length, ramp); err != nil {
		return nil, err
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = 1
	}

	for i := range ramp {
		x := rampPosition(i, ramp)
		out[i] = 0.5*math.Sin(x-math.Pi/2) + 0.5
		out[length-ramp+i] = 0.5*math.Cos(x) + 0.5
	}

	return out, nil
}

func rampPosition(i, n int) float64 {
	if n <= 1 {
		return 0
	}

	return math.Pi * float64(i) / float64(n-1)
}
