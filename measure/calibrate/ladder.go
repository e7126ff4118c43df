package calibrate

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-calib/dsp/wave"
)

const (
	// ladderFloor is the smallest step multiplier.
	ladderFloor = 0.01
	// ladderHeadroom oversizes the top step past the anticipated operating
	// point so the ladder brackets the target.
	ladderHeadroom = 1.25
)

// Range is a half-open sample interval [Start, End).
type Range struct {
	Start, End int
}

// Ladder is the composite staircase waveform with its step bookkeeping.
type Ladder struct {
	Waveform []float64 // silence, scaled segments, silence
	Steps    []float64 // amplitude multiplier of each step
	Ranges   []Range   // sample range of each step inside Waveform
}

// BuildLadder scales the segment by count multipliers spaced linearly from
// the ladder floor to stepMax and concatenates the copies between one
// second of silence on each side.
func BuildLadder(sampleRate int, segment []float64, stepMax float64, count int) (Ladder, error) {
	if sampleRate <= 0 {
		return Ladder{}, ErrInvalidSampleRate
	}

	if len(segment) == 0 {
		return Ladder{}, ErrEmptySegment
	}

	if count < 2 {
		return Ladder{}, ErrInvalidStepCount
	}

	steps := make([]float64, count)
	floats.Span(steps, ladderFloor, stepMax)

	silence := sampleRate
	segLen := len(segment)

	waveform := make([]float64, 0, 2*silence+count*segLen)
	waveform = append(waveform, wave.Silence(silence)...)

	ranges := make([]Range, count)
	for i, step := range steps {
		start := silence + i*segLen
		ranges[i] = Range{Start: start, End: start + segLen}
		waveform = append(waveform, wave.Scale(segment, step)...)
	}

	waveform = append(waveform, wave.Silence(silence)...)

	return Ladder{Waveform: waveform, Steps: steps, Ranges: ranges}, nil
}

// stepPeaks reads the peak of each delay-shifted step range out of the
// ladder capture and converts it to physical units. Ranges shifted past
// the capture bounds are clamped; a fully vanished range reads as zero.
func stepPeaks(capture []float64, ranges []Range, delay int, conversion float64) []float64 {
	peaks := make([]float64, len(ranges))

	for i, r := range ranges {
		start := clampIndex(r.Start+delay, len(capture))
		end := clampIndex(r.End+delay, len(capture))

		var peak float64
		for _, v := range capture[start:end] {
			if av := math.Abs(v); av > peak {
				peak = av
			}
		}

		peaks[i] = conversion * peak
	}

	return peaks
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}

	if i > n {
		return n
	}

	return i
}
