package session

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-calib/dsp/wave"
	"github.com/cwbudde/algo-calib/hardware"
	"github.com/cwbudde/algo-calib/measure/calibrate"
	"github.com/cwbudde/algo-calib/measure/compensate"
	"github.com/cwbudde/algo-calib/wavfile"
)

// Errors returned by experiment runs.
var (
	ErrNilBackend        = errors.New("session: nil play-and-record backend")
	ErrNoStimulus        = errors.New("session: no stimulus file configured")
	ErrInvalidSampleRate = errors.New("session: stimulus sample rate must be positive")
	ErrUnknownSensor     = errors.New("session: unknown sensor")
)

// Stimulus holds the playback file and its signal parameters.
type Stimulus struct {
	Path            string
	SampleRate      int
	FFTSize         int
	LowFreq         float64
	HighFreq        float64
	TargetAmplitude float64
}

// Binding records which device and channels the backend drives. The backend
// itself is constructed by the caller; the binding is carried on the record
// for logs and summaries.
type Binding struct {
	DeviceIndex   int
	InputChannel  int
	OutputChannel int
}

// Config describes one experiment run.
type Config struct {
	Name     string
	Stimulus Stimulus
	Sensor   Sensor
	Binding  Binding
}

// Experiment is the record of one run: its identity, fixed configuration,
// and the artifacts produced so far. The configuration does not change
// after construction; operations only fill in artifact fields.
type Experiment struct {
	id      string
	cfg     Config
	backend hardware.PlayRecorder
	logger  *zap.Logger
	decide  compensate.Decider

	filter          []float64
	compensatedPath string
	multiplier      float64
	calibratedPath  string
}

// Option configures an Experiment.
type Option func(*Experiment)

// WithLogger routes run logs to the given logger. The default discards them.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Experiment) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDecider replaces the compensation continuation decision. The default
// accepts the first round and finalizes immediately.
func WithDecider(decide compensate.Decider) Option {
	return func(e *Experiment) {
		if decide != nil {
			e.decide = decide
		}
	}
}

// New creates an experiment record with a fresh run ID.
func New(cfg Config, backend hardware.PlayRecorder, opts ...Option) (*Experiment, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}

	if cfg.Stimulus.Path == "" {
		return nil, ErrNoStimulus
	}

	if cfg.Stimulus.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	e := &Experiment{
		id:      uuid.New().String(),
		cfg:     cfg,
		backend: backend,
		logger:  zap.NewNop(),
		decide: func(compensate.Round) (compensate.Decision, error) {
			return compensate.DecisionFinalize, nil
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	e.logger.Debug("experiment created",
		zap.String("runID", e.id),
		zap.String("name", cfg.Name),
		zap.String("stimulus", cfg.Stimulus.Path),
		zap.Int("device", cfg.Binding.DeviceIndex),
		zap.Int("inputChannel", cfg.Binding.InputChannel),
		zap.Int("outputChannel", cfg.Binding.OutputChannel),
		zap.String("sensor", cfg.Sensor.Name),
	)

	return e, nil
}

// ID returns the run identifier.
func (e *Experiment) ID() string { return e.id }

// Name returns the experiment name.
func (e *Experiment) Name() string { return e.cfg.Name }

// Filter returns the compensation filter from the last Compensate call.
func (e *Experiment) Filter() []float64 { return e.filter }

// CompensatedPath returns the compensated stimulus file, or the empty
// string before Compensate has run.
func (e *Experiment) CompensatedPath() string { return e.compensatedPath }

// Multiplier returns the multiplier from the last Calibrate call.
func (e *Experiment) Multiplier() float64 { return e.multiplier }

// CalibratedPath returns the calibrated stimulus file, or the empty string
// before Calibrate has run.
func (e *Experiment) CalibratedPath() string { return e.calibratedPath }

// PlaybackPath returns the file Play would emit right now: the calibrated
// file wins over the compensated one, which wins over the original.
func (e *Experiment) PlaybackPath() string {
	switch {
	case e.calibratedPath != "":
		return e.calibratedPath
	case e.compensatedPath != "":
		return e.compensatedPath
	default:
		return e.cfg.Stimulus.Path
	}
}

// Compensate loads the stimulus, runs the compensation loop against the
// backend, and writes the compensated waveform next to the source file as
// compensated_<name>. The filter and the output path are retained on the
// record for the later stages.
func (e *Experiment) Compensate() (compensate.Result, error) {
	start := time.Now()

	samples, err := e.loadWaveform(e.cfg.Stimulus.Path)
	if err != nil {
		return compensate.Result{}, err
	}

	cfg := compensate.Config{
		SampleRate: e.cfg.Stimulus.SampleRate,
		FFTSize:    e.cfg.Stimulus.FFTSize,
		LowFreq:    e.cfg.Stimulus.LowFreq,
		HighFreq:   e.cfg.Stimulus.HighFreq,
	}

	eng, err := compensate.New(cfg, e.backend, samples, e.decide, compensate.WithLogger(e.logger))
	if err != nil {
		return compensate.Result{}, err
	}

	res, err := eng.Run()
	if err != nil {
		return compensate.Result{}, err
	}

	out := prefixedPath(e.cfg.Stimulus.Path, "compensated_")
	if err := wavfile.Write(out, res.Compensated, e.cfg.Stimulus.SampleRate); err != nil {
		return compensate.Result{}, err
	}

	e.filter = res.Filter
	e.compensatedPath = out

	e.logger.Info("stimulus compensated",
		zap.String("runID", e.id),
		zap.String("output", out),
		zap.Int("rounds", len(res.Rounds)),
		zap.Bool("attenuated", res.Attenuated),
		zap.Duration("elapsed", time.Since(start)),
	)

	return res, nil
}

// Calibrate scales the best available stimulus so the measured response
// reaches the target amplitude. It prefers the compensated file when one
// exists and writes the result beside its input as calibrated_<name>. The
// multiplier and the output path are retained on the record.
func (e *Experiment) Calibrate() (calibrate.Result, error) {
	start := time.Now()

	path := e.cfg.Stimulus.Path
	if e.compensatedPath != "" {
		path = e.compensatedPath
	}

	samples, err := e.loadWaveform(path)
	if err != nil {
		return calibrate.Result{}, err
	}

	cfg := calibrate.Config{
		SampleRate:      e.cfg.Stimulus.SampleRate,
		TargetAmplitude: e.cfg.Stimulus.TargetAmplitude,
		AmpConversion:   e.cfg.Sensor.Conversion,
	}

	eng, err := calibrate.New(cfg, e.backend, calibrate.WithLogger(e.logger))
	if err != nil {
		return calibrate.Result{}, err
	}

	res, err := eng.Run(samples)
	if err != nil {
		return calibrate.Result{}, err
	}

	out := prefixedPath(path, "calibrated_")
	if err := wavfile.Write(out, res.Calibrated, e.cfg.Stimulus.SampleRate); err != nil {
		return calibrate.Result{}, err
	}

	e.multiplier = res.Multiplier
	e.calibratedPath = out

	e.logger.Info("stimulus calibrated",
		zap.String("runID", e.id),
		zap.String("input", path),
		zap.String("output", out),
		zap.Float64("multiplier", res.Multiplier),
		zap.Int("timeDelay", res.TimeDelay),
		zap.String("units", e.cfg.Sensor.Units),
		zap.Bool("clipped", res.Clipped),
		zap.Duration("elapsed", time.Since(start)),
	)

	return res, nil
}

// Play emits the best available stimulus and returns the raw capture.
// Playback runs without padding, so the capture is whatever the backend
// produced, unreconciled.
func (e *Experiment) Play() ([]float64, error) {
	start := time.Now()

	path := e.PlaybackPath()

	samples, err := e.loadWaveform(path)
	if err != nil {
		return nil, err
	}

	capture, err := hardware.Transfer(e.backend, samples, e.cfg.Stimulus.SampleRate)
	if err != nil {
		return nil, err
	}

	_, peak := wave.Peak(capture)

	e.logger.Info("stimulus played",
		zap.String("runID", e.id),
		zap.String("file", path),
		zap.Float64("capturePeak", peak),
		zap.Duration("elapsed", time.Since(start)),
	)

	return capture, nil
}

// loadWaveform reads a stimulus file and warns when the file's sample rate
// disagrees with the configured one. The configured rate wins; the hardware
// stream is opened with it.
func (e *Experiment) loadWaveform(path string) ([]float64, error) {
	samples, rate, err := wavfile.Read(path)
	if err != nil {
		return nil, err
	}

	if rate != e.cfg.Stimulus.SampleRate {
		e.logger.Warn("stimulus file sample rate differs from configured rate",
			zap.String("file", path),
			zap.Int("fileRate", rate),
			zap.Int("configuredRate", e.cfg.Stimulus.SampleRate),
		)
	}

	return samples, nil
}

// prefixedPath prepends prefix to the file name of path, keeping the
// directory untouched.
func prefixedPath(path, prefix string) string {
	dir, base := filepath.Split(path)

	return filepath.Join(dir, prefix+base)
}
