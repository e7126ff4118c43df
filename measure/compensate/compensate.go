package compensate

import (
	"errors"

	"go.uber.org/zap"
)

// Errors returned by the compensation engine.
var (
	ErrInvalidSampleRate = errors.New("compensate: sample rate must be positive")
	ErrInvalidFFTSize    = errors.New("compensate: fft size must be at least two")
	ErrNegativeFrequency = errors.New("compensate: band edges must not be negative")
	ErrBandOrder         = errors.New("compensate: low frequency must be below high frequency")
	ErrNilBackend        = errors.New("compensate: play-and-record backend must not be nil")
	ErrNilDecider        = errors.New("compensate: decider must not be nil")
	ErrEmptyStimulus     = errors.New("compensate: stimulus is empty")
	ErrFinished          = errors.New("compensate: engine already finished")
)

// Config holds the compensation parameters. The band edges are given in Hz
// and converted to spectrum bin indices once, when the engine is built.
type Config struct {
	SampleRate int     // sampling rate in Hz
	FFTSize    int     // Welch segment length; filter length is the next odd value
	LowFreq    float64 // lower band edge in Hz
	HighFreq   float64 // upper band edge in Hz
}

// Validate checks that the Config parameters are valid.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}

	if c.FFTSize < 2 {
		return ErrInvalidFFTSize
	}

	if c.LowFreq < 0 {
		return ErrNegativeFrequency
	}

	if c.HighFreq <= c.LowFreq {
		return ErrBandOrder
	}

	return nil
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger routes engine progress through the given logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSeed sets the deterministic seed for probe noise generation.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}
