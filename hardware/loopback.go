package hardware

import "github.com/cwbudde/algo-calib/dsp/wave"

// Loopback is a deterministic PlayRecorder simulating a playback-capture
// chain: the response is the emitted waveform through a programmable
// transform, delayed by a configurable latency, captured with an optional
// sample-count skew. It backs the engine tests and is useful for dry runs
// without hardware.
type Loopback struct {
	gain       float64
	latency    int
	lengthSkew int
	process    func([]float64) []float64
	failWith   error
}

// LoopbackOption configures the simulator.
type LoopbackOption func(*Loopback)

// NewLoopback returns a unity-gain, zero-latency loopback.
func NewLoopback(opts ...LoopbackOption) *Loopback {
	l := &Loopback{gain: 1}

	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	return l
}

// WithGain scales the response by a constant factor.
func WithGain(gain float64) LoopbackOption {
	return func(l *Loopback) {
		l.gain = gain
	}
}

// WithLatency delays the response by the given number of samples, as a
// physical playback chain would.
func WithLatency(samples int) LoopbackOption {
	return func(l *Loopback) {
		l.latency = samples
	}
}

// WithLengthSkew makes the capture longer (positive) or shorter (negative)
// than the emission, simulating driver sample-count drift.
func WithLengthSkew(samples int) LoopbackOption {
	return func(l *Loopback) {
		l.lengthSkew = samples
	}
}

// WithResponse replaces the gain stage with an arbitrary transform of the
// emitted waveform. The transform must not mutate its input.
func WithResponse(fn func([]float64) []float64) LoopbackOption {
	return func(l *Loopback) {
		l.process = fn
	}
}

// WithFailure makes every PlayRecord call fail with the given error.
func WithFailure(err error) LoopbackOption {
	return func(l *Loopback) {
		l.failWith = err
	}
}

// PlayRecord implements PlayRecorder.
func (l *Loopback) PlayRecord(playback []float64) ([]float64, error) {
	if l.failWith != nil {
		return nil, l.failWith
	}

	if len(playback) == 0 {
		return nil, ErrEmptyPlayback
	}

	response := wave.Scale(playback, l.gain)
	if l.process != nil {
		response = l.process(playback)
	}

	captureLen := len(playback) + l.lengthSkew
	if captureLen < 0 {
		captureLen = 0
	}

	capture := make([]float64, captureLen)
	for i := range capture {
		src := i - l.latency
		if src >= 0 && src < len(response) {
			capture[i] = response[src]
		}
	}

	return capture, nil
}
