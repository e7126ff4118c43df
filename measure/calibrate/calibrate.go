package calibrate

import (
	"errors"

	"go.uber.org/zap"
)

// Errors returned by the calibration engine.
var (
	ErrInvalidSampleRate  = errors.New("calibrate: sample rate must be positive")
	ErrInvalidTarget      = errors.New("calibrate: target amplitude must be positive")
	ErrInvalidConversion  = errors.New("calibrate: amplitude conversion must be positive")
	ErrInvalidSegmentSize = errors.New("calibrate: segment size must be at least eight samples")
	ErrInvalidStepCount   = errors.New("calibrate: step count must be at least two")
	ErrNilBackend         = errors.New("calibrate: play-and-record backend must not be nil")
	ErrEmptyStimulus      = errors.New("calibrate: stimulus is empty")
	ErrEmptySegment       = errors.New("calibrate: peak segment is empty")
	ErrRegressionData     = errors.New("calibrate: regression needs at least two matching peak/step pairs")
)

// Defaults applied by New for zero-valued Config fields.
const (
	DefaultSegmentSize = 8192
	DefaultStepCount   = 20
)

// Config holds the calibration parameters. TargetAmplitude and
// AmpConversion are expressed in the sensor's physical units.
type Config struct {
	SampleRate      int     // sampling rate in Hz
	TargetAmplitude float64 // desired stimulus peak in physical units
	AmpConversion   float64 // capture units to physical units
	SegmentSize     int     // peak window length in samples
	StepCount       int     // number of ladder steps
}

// normalizeConfig fills zero-valued optional fields with defaults.
func normalizeConfig(cfg Config) Config {
	if cfg.SegmentSize == 0 {
		cfg.SegmentSize = DefaultSegmentSize
	}

	if cfg.StepCount == 0 {
		cfg.StepCount = DefaultStepCount
	}

	return cfg
}

// Validate checks that the Config parameters are valid.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}

	if c.TargetAmplitude <= 0 {
		return ErrInvalidTarget
	}

	if c.AmpConversion <= 0 {
		return ErrInvalidConversion
	}

	if c.SegmentSize < 8 {
		return ErrInvalidSegmentSize
	}

	if c.StepCount < 2 {
		return ErrInvalidStepCount
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
