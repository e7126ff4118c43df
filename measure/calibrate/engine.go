package calibrate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-calib/dsp/wave"
	"github.com/cwbudde/algo-calib/hardware"
)

// Result carries the finished calibration artifacts.
type Result struct {
	Multiplier   float64   // scales the stimulus to the target amplitude
	TimeDelay    int       // round-trip latency in samples
	Model        Model     // fitted peak-to-multiplier line
	Steps        []float64 // ladder step multipliers
	Peaks        []float64 // measured step peaks in physical units
	Calibrated   []float64 // stimulus scaled by Multiplier
	Verification []float64 // response to the calibrated stimulus
	Clipped      bool      // calibrated waveform exceeds full scale
}

// Engine runs the calibration procedure against a play-and-record backend.
// It is not safe for concurrent use; the backend is a serially owned
// resource and the engine drives it from a single goroutine.
type Engine struct {
	cfg     Config
	backend hardware.PlayRecorder
	logger  *zap.Logger
}

// New builds a calibration engine. Zero-valued SegmentSize and StepCount
// fall back to the package defaults.
func New(cfg Config, backend hardware.PlayRecorder, opts ...Option) (*Engine, error) {
	cfg = normalizeConfig(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if backend == nil {
		return nil, ErrNilBackend
	}

	e := &Engine{
		cfg:     cfg,
		backend: backend,
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	return e, nil
}

// MeasureDelay plays a click and returns the offset in samples between the
// impulse position in the emission and the response peak in the capture.
func (e *Engine) MeasureDelay() (int, error) {
	click, err := Click(e.cfg.SampleRate)
	if err != nil {
		return 0, err
	}

	capture, err := hardware.Transfer(e.backend, click, e.cfg.SampleRate, hardware.WithPadding())
	if err != nil {
		return 0, fmt.Errorf("calibrate: click transfer: %w", err)
	}

	peakIdx, _ := wave.Peak(capture)
	delay := peakIdx - e.cfg.SampleRate

	e.logger.Debug("latency measured", zap.Int("samples", delay))

	return delay, nil
}

// Run calibrates the stimulus: it measures latency, samples the chain's
// amplitude response with a ladder built around the stimulus peak, fits
// the peak-to-multiplier line, and scales the stimulus to the target.
// The calibrated waveform is returned as-is even when it clips; clipping
// only raises the Clipped flag and a log warning.
func (e *Engine) Run(stimulus []float64) (Result, error) {
	if len(stimulus) == 0 {
		return Result{}, ErrEmptyStimulus
	}

	delay, err := e.MeasureDelay()
	if err != nil {
		return Result{}, err
	}

	capture, err := hardware.Transfer(e.backend, stimulus, e.cfg.SampleRate, hardware.WithPadding())
	if err != nil {
		return Result{}, fmt.Errorf("calibrate: stimulus transfer: %w", err)
	}

	captureIdx, capturePeak := wave.Peak(capture)
	peakAmp := e.cfg.AmpConversion * capturePeak
	center := captureIdx - delay

	segment, err := PeakSegment(stimulus, center, e.cfg.SegmentSize)
	if err != nil {
		return Result{}, err
	}

	_, segmentPeak := wave.Peak(segment)
	stepMax := ladderHeadroom * segmentPeak / (peakAmp / e.cfg.TargetAmplitude)

	ladder, err := BuildLadder(e.cfg.SampleRate, segment, stepMax, e.cfg.StepCount)
	if err != nil {
		return Result{}, err
	}

	e.logger.Debug("ladder built",
		zap.Int("steps", len(ladder.Steps)),
		zap.Int("segmentLength", len(segment)),
		zap.Float64("stepMax", stepMax),
	)

	ladderCapture, err := hardware.Transfer(e.backend, ladder.Waveform, e.cfg.SampleRate, hardware.WithPadding())
	if err != nil {
		return Result{}, fmt.Errorf("calibrate: ladder transfer: %w", err)
	}

	peaks := stepPeaks(ladderCapture, ladder.Ranges, delay, e.cfg.AmpConversion)

	model, err := FitModel(peaks, ladder.Steps)
	if err != nil {
		return Result{}, err
	}

	multiplier := model.MultiplierFor(e.cfg.TargetAmplitude)

	calibrated := wave.Scale(stimulus, multiplier)

	clipped := wave.Clips(calibrated)
	if clipped {
		e.logger.Warn("calibrated stimulus clips",
			zap.Float64("multiplier", multiplier),
		)
	}

	verification, err := hardware.Transfer(e.backend, calibrated, e.cfg.SampleRate, hardware.WithPadding())
	if err != nil {
		return Result{}, fmt.Errorf("calibrate: verification transfer: %w", err)
	}

	e.logger.Info("calibration finished",
		zap.Float64("multiplier", multiplier),
		zap.Int("timeDelay", delay),
		zap.Bool("clipped", clipped),
	)

	return Result{
		Multiplier:   multiplier,
		TimeDelay:    delay,
		Model:        model,
		Steps:        ladder.Steps,
		Peaks:        peaks,
		Calibrated:   calibrated,
		Verification: verification,
		Clipped:      clipped,
	}, nil
}
