package compensate

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-calib/dsp/wave"
	"github.com/cwbudde/algo-calib/hardware"
)

const (
	probeSeconds   = 2
	probeAmplitude = 0.5
)

// NoiseProbe synthesizes the broadband probe used to measure the playback
// chain: two seconds of uniform white noise, edge-tapered over a fifth of a
// second, with one leading and three trailing silence blocks of a sixth of
// a second each, all at half amplitude. The seed makes the probe
// reproducible across rounds and runs.
func NoiseProbe(sampleRate int, seed int64) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	rng := rand.New(rand.NewSource(seed))

	noise := make([]float64, probeSeconds*sampleRate)
	for i := range noise {
		noise[i] = rng.Float64() - 0.5
	}

	tapered, err := wave.TaperEdges(noise, probeRampLength(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("compensate: taper probe: %w", err)
	}

	padding := wave.Silence(hardware.PaddingLength(sampleRate))

	probe := wave.Concat(padding, tapered, padding, padding, padding)

	return wave.Scale(probe, probeAmplitude), nil
}

// probeRampLength is a fifth of a second, the taper span on each probe edge.
func probeRampLength(sampleRate int) int {
	return int(math.Round(float64(sampleRate) / 5))
}
