package compensate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-calib/dsp/fir"
	"github.com/cwbudde/algo-calib/dsp/wave"
	"github.com/cwbudde/algo-calib/dsp/welch"
	"github.com/cwbudde/algo-calib/hardware"
)

// State identifies where the engine is in its refinement loop.
type State int

const (
	// StateProbing plays the current probe and captures the response.
	StateProbing State = iota
	// StateEvaluating designs the round filter and verifies it.
	StateEvaluating
	// StateAwaitingDecision hands the round to the decider.
	StateAwaitingDecision
	// StateFinalizing derives the stimulus filter from the accepted round.
	StateFinalizing
	// StateDone means the result is available.
	StateDone
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateProbing:
		return "probing"
	case StateEvaluating:
		return "evaluating"
	case StateAwaitingDecision:
		return "awaiting decision"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Decision is the verdict on a refinement round.
type Decision int

const (
	// DecisionRefine runs another round with the compensated waveform as
	// the next playback.
	DecisionRefine Decision = iota
	// DecisionFinalize accepts the compensation and derives the final
	// stimulus filter.
	DecisionFinalize
)

// Decider chooses whether to run another refinement round or accept the
// current compensation. It receives the completed round and may inspect
// its filter, waveforms, captures, and band spectra. A returned error
// halts the engine in place; stepping again asks the decider once more.
type Decider func(Round) (Decision, error)

// Round records one refinement cycle. ProbeSpectrum and ResponseSpectrum
// cover the compensation band including both cutoff bins; comparing them
// shows how closely the chain now reproduces the reference probe.
type Round struct {
	Index            int            // zero-based round number
	Playback         []float64      // waveform played this round
	Filter           []float64      // inverse filter designed this round
	Compensated      []float64      // filtered playback after clip protection
	Attenuated       bool           // clip guard engaged on the compensated playback
	Capture          []float64      // response to the round's playback
	Verification     []float64      // response to the compensated playback
	ProbeSpectrum    welch.Estimate // reference probe spectrum inside the band
	ResponseSpectrum welch.Estimate // verification spectrum inside the band
}

// Result carries the finished compensation artifacts.
type Result struct {
	Filter       []float64 // final stimulus filter coefficients
	Compensated  []float64 // stimulus after filtering and clip protection
	Attenuated   bool      // clip guard engaged on the compensated stimulus
	Rounds       []Round   // every refinement round, in order
	Verification []float64 // response to the compensated stimulus
}

// Engine runs the compensation loop against a play-and-record backend.
// It is not safe for concurrent use; the backend is a serially owned
// resource and the engine drives it from a single goroutine.
type Engine struct {
	cfg     Config
	backend hardware.PlayRecorder
	decide  Decider
	logger  *zap.Logger
	seed    int64
	lowBin  int
	highBin int

	state         State
	probe         []float64
	probeSpectrum welch.Estimate
	playback      []float64
	stimulus      []float64
	capture       []float64
	round         Round
	compensated   []float64
	rounds        []Round
	result        Result
}

const defaultProbeSeed = 1

// New builds an engine for one compensation run of the given stimulus.
func New(cfg Config, backend hardware.PlayRecorder, stimulus []float64, decide Decider, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if backend == nil {
		return nil, ErrNilBackend
	}

	if len(stimulus) == 0 {
		return nil, ErrEmptyStimulus
	}

	if decide == nil {
		return nil, ErrNilDecider
	}

	e := &Engine{
		cfg:      cfg,
		backend:  backend,
		decide:   decide,
		stimulus: stimulus,
		logger:   zap.NewNop(),
		seed:     defaultProbeSeed,
		lowBin:   welch.BinIndex(cfg.LowFreq, cfg.SampleRate, cfg.FFTSize),
		highBin:  welch.BinIndex(cfg.HighFreq, cfg.SampleRate, cfg.FFTSize),
		state:    StateProbing,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	probe, err := NoiseProbe(cfg.SampleRate, e.seed)
	if err != nil {
		return nil, err
	}

	// The reference spectrum is fixed for the whole run, so it is computed
	// once here rather than per round.
	spec, err := welch.AmplitudeSpectrum(probe, welch.Config{SampleRate: cfg.SampleRate, SegmentLength: cfg.FFTSize})
	if err != nil {
		return nil, fmt.Errorf("compensate: probe spectrum: %w", err)
	}

	e.probe = probe
	e.probeSpectrum = spec.Band(e.lowBin, e.highBin+1)
	e.playback = probe

	return e, nil
}

// State returns the engine's current state.
func (e *Engine) State() State {
	return e.state
}

// Step advances the engine by one state transition and returns the state
// it lands in. On error the engine stays where it is, so a failed hardware
// call can be retried by stepping again.
func (e *Engine) Step() (State, error) {
	switch e.state {
	case StateProbing:
		return e.stepProbing()
	case StateEvaluating:
		return e.stepEvaluating()
	case StateAwaitingDecision:
		return e.stepAwaitingDecision()
	case StateFinalizing:
		return e.stepFinalizing()
	default:
		return StateDone, ErrFinished
	}
}

// Run drives the engine until StateDone and returns the result. A run
// interrupted by an error resumes from the failed state when called again.
func (e *Engine) Run() (Result, error) {
	for e.state != StateDone {
		if _, err := e.Step(); err != nil {
			return Result{}, err
		}
	}

	return e.result, nil
}

func (e *Engine) stepProbing() (State, error) {
	capture, err := hardware.Transfer(e.backend, e.playback, e.cfg.SampleRate, hardware.WithPadding())
	if err != nil {
		return e.state, fmt.Errorf("compensate: probe transfer: %w", err)
	}

	e.capture = capture
	e.state = StateEvaluating

	e.logger.Debug("probe captured",
		zap.Int("round", len(e.rounds)),
		zap.Int("samples", len(capture)),
	)

	return e.state, nil
}

func (e *Engine) stepEvaluating() (State, error) {
	// The reference is always the original probe; the capture is of the
	// current playback, so successive filters compound.
	filter, err := designFilter(e.probe, e.capture, e.cfg, e.lowBin, e.highBin)
	if err != nil {
		return e.state, err
	}

	filtered, err := fir.Apply(filter, e.playback)
	if err != nil {
		return e.state, fmt.Errorf("compensate: apply round filter: %w", err)
	}

	compensated, attenuated := wave.ClipGuard(filtered)

	verification, err := hardware.Transfer(e.backend, compensated, e.cfg.SampleRate, hardware.WithPadding())
	if err != nil {
		return e.state, fmt.Errorf("compensate: verification transfer: %w", err)
	}

	spec, err := welch.AmplitudeSpectrum(verification, welch.Config{SampleRate: e.cfg.SampleRate, SegmentLength: e.cfg.FFTSize})
	if err != nil {
		return e.state, fmt.Errorf("compensate: verification spectrum: %w", err)
	}

	e.round = Round{
		Index:            len(e.rounds),
		Playback:         e.playback,
		Filter:           filter,
		Compensated:      compensated,
		Attenuated:       attenuated,
		Capture:          e.capture,
		Verification:     verification,
		ProbeSpectrum:    e.probeSpectrum,
		ResponseSpectrum: spec.Band(e.lowBin, e.highBin+1),
	}
	e.state = StateAwaitingDecision

	e.logger.Info("round evaluated",
		zap.Int("round", e.round.Index),
		zap.Int("filterLength", len(filter)),
		zap.Bool("attenuated", attenuated),
	)

	return e.state, nil
}

func (e *Engine) stepAwaitingDecision() (State, error) {
	decision, err := e.decide(e.round)
	if err != nil {
		return e.state, fmt.Errorf("compensate: decide: %w", err)
	}

	e.rounds = append(e.rounds, e.round)
	e.compensated = e.round.Compensated

	if decision == DecisionRefine {
		e.playback = e.round.Compensated
		e.state = StateProbing

		e.logger.Info("refining compensation", zap.Int("nextRound", len(e.rounds)))

		return e.state, nil
	}

	e.state = StateFinalizing

	return e.state, nil
}

func (e *Engine) stepFinalizing() (State, error) {
	// The final filter captures the cumulative correction: reference and
	// measured swap roles so the ratio maps the original probe onto the
	// accepted compensated waveform.
	filter, err := designFilter(e.compensated, e.probe, e.cfg, e.lowBin, e.highBin)
	if err != nil {
		return e.state, err
	}

	filtered, err := fir.Apply(filter, e.stimulus)
	if err != nil {
		return e.state, fmt.Errorf("compensate: apply final filter: %w", err)
	}

	compensated, attenuated := wave.ClipGuard(filtered)

	verification, err := hardware.Transfer(e.backend, compensated, e.cfg.SampleRate, hardware.WithPadding())
	if err != nil {
		return e.state, fmt.Errorf("compensate: final verification transfer: %w", err)
	}

	e.result = Result{
		Filter:       filter,
		Compensated:  compensated,
		Attenuated:   attenuated,
		Rounds:       e.rounds,
		Verification: verification,
	}
	e.state = StateDone

	e.logger.Info("compensation finished",
		zap.Int("rounds", len(e.rounds)),
		zap.Bool("attenuated", attenuated),
	)

	return e.state, nil
}
