package calibrate

import (
	"fmt"

	"github.com/cwbudde/algo-calib/dsp/wave"
)

const clickSeconds = 2

// Click synthesizes the latency probe: two seconds of silence with a unit
// impulse at the midpoint.
func Click(sampleRate int) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	click := make([]float64, clickSeconds*sampleRate)
	click[sampleRate] = 1

	return click, nil
}

// PeakSegment cuts a window of up to size samples centered on the given
// index and tapers its edges over an eighth of the window. The window is
// clamped to the waveform bounds, so a peak near either end yields a
// shorter segment with a correspondingly shorter taper.
func PeakSegment(x []float64, center, size int) ([]float64, error) {
	if len(x) == 0 {
		return nil, ErrEmptyStimulus
	}

	if size < 8 {
		return nil, ErrInvalidSegmentSize
	}

	half := size / 2

	start := center - half
	if start < 0 {
		start = 0
	}

	end := center + half
	if end > len(x) {
		end = len(x)
	}

	if start >= end {
		return nil, ErrEmptySegment
	}

	segment := append([]float64(nil), x[start:end]...)

	ramp := size / 8
	if m := len(segment) / 2; ramp > m {
		ramp = m
	}

	if ramp < 1 {
		return segment, nil
	}

	tapered, err := wave.TaperEdges(segment, ramp)
	if err != nil {
		return nil, fmt.Errorf("calibrate: taper segment: %w", err)
	}

	return tapered, nil
}
