package hardware

import (
	"errors"

	"go.uber.org/zap"
)

// Errors returned by transfer runs and backends.
var (
	ErrEmptyPlayback      = errors.New("hardware: empty playback waveform")
	ErrInvalidSampleRate  = errors.New("hardware: sample rate must be positive")
	ErrInvalidChannel     = errors.New("hardware: channel index must be >= 0")
	ErrChannelOutOfRange  = errors.New("hardware: channel index exceeds device channel count")
	ErrNoSuchDevice       = errors.New("hardware: no such device")
	ErrBackendUnavailable = errors.New("hardware: portaudio backend not compiled in (build with -tags portaudio)")
)

// PlayRecorder plays a waveform while simultaneously capturing the response.
// The call blocks until playback and capture complete. The capture has
// nominally the same length as the playback; exact length is not guaranteed
// and callers needing sample alignment go through Transfer.
type PlayRecorder interface {
	PlayRecord(playback []float64) ([]float64, error)
}

// Device describes an audio interface available to the duplex backend.
type Device struct {
	Index             int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
}

// DuplexOption configures the physical duplex backend.
type DuplexOption func(*duplexConfig)

type duplexConfig struct {
	deviceIndex   int
	inputChannel  int
	outputChannel int
	logger        *zap.Logger
}

func defaultDuplexConfig() duplexConfig {
	return duplexConfig{
		deviceIndex: -1,
		logger:      zap.NewNop(),
	}
}

// WithDeviceIndex binds the backend to the device at the given enumeration
// index instead of the host defaults.
func WithDeviceIndex(index int) DuplexOption {
	return func(c *duplexConfig) {
		c.deviceIndex = index
	}
}

// WithChannels selects the zero-based input (sensor) and output (transducer)
// channel indices on the bound device.
func WithChannels(input, output int) DuplexOption {
	return func(c *duplexConfig) {
		c.inputChannel = input
		c.outputChannel = output
	}
}

// WithLogger attaches a logger to the backend. The default discards logs.
func WithLogger(logger *zap.Logger) DuplexOption {
	return func(c *duplexConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func (c duplexConfig) validate() error {
	if c.inputChannel < 0 || c.outputChannel < 0 {
		return ErrInvalidChannel
	}

	return nil
}
