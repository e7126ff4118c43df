package wave

import "math"

// Headroom applied when a waveform exceeds full scale: the guard scales so
// the new peak sits at 1/1.1 of full scale.
const clipGuardHeadroom = 1.1

// ClipGuard protects x against clipping. If the absolute peak is within
// [-1, 1] the input slice is returned as is and attenuated is false.
// Otherwise a scaled copy with peak 1/1.1 is returned and attenuated is
// true. Applying ClipGuard to an already guarded waveform is a no-op.
func ClipGuard(x []float64) (out []float64, attenuated bool) {
	_, peak := Peak(x)
	if peak <= 1 {
		return x, false
	}

	return Scale(x, 1/(clipGuardHeadroom*peak)), true
}

// Clips reports whether any sample of x reaches or exceeds full scale.
func Clips(x []float64) bool {
	for _, v := range x {
		if math.Abs(v) >= 1 {
			return true
		}
	}

	return false
}
