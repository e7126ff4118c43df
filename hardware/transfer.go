package hardware

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-calib/dsp/wave"
)

// TransferOption configures a transfer run.
type TransferOption func(*transferConfig)

type transferConfig struct {
	padded bool
}

// WithPadding appends two padding blocks of silence to the emitted waveform
// so the capture window cannot cut off the response tail, and length-
// reconciles the capture against the unpadded waveform on return.
func WithPadding() TransferOption {
	return func(c *transferConfig) {
		c.padded = true
	}
}

// PaddingLength returns the length in samples of one padding block,
// one sixth of a second.
func PaddingLength(sampleRate int) int {
	return int(math.Round(float64(sampleRate) / 6))
}

// Transfer plays a waveform through the PlayRecorder and returns the capture.
//
// Without options the capture is returned exactly as the backend produced
// it. With WithPadding the emitted waveform carries two trailing padding
// blocks and the capture is reconciled to len(playback) samples: a longer
// capture loses its excess from the front (the extra samples precede the
// aligned region), a shorter one is zero-padded at the end. Reconciliation
// is deterministic for identical inputs.
func Transfer(pr PlayRecorder, playback []float64, sampleRate int, opts ...TransferOption) ([]float64, error) {
	if len(playback) == 0 {
		return nil, ErrEmptyPlayback
	}

	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	cfg := transferConfig{}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	emitted := playback
	if cfg.padded {
		padding := wave.Silence(PaddingLength(sampleRate))
		emitted = wave.Concat(playback, padding, padding)
	}

	capture, err := pr.PlayRecord(emitted)
	if err != nil {
		return nil, fmt.Errorf("hardware: play and record: %w", err)
	}

	if !cfg.padded {
		return capture, nil
	}

	return reconcileLength(capture, len(playback)), nil
}

// reconcileLength forces the capture to exactly want samples. Excess is
// trimmed from the front, missing samples are appended as silence.
func reconcileLength(capture []float64, want int) []float64 {
	switch {
	case len(capture) > want:
		return capture[len(capture)-want:]
	case len(capture) < want:
		out := make([]float64, want)
		copy(out, capture)

		return out
	default:
		return capture
	}
}
