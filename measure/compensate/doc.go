// Package compensate derives an inverse FIR filter that flattens the
// frequency response of a playback chain inside a target band.
//
// The engine runs an operator-driven refinement loop. Each round plays a
// broadband noise probe through the chain, estimates the transfer from the
// probe and capture amplitude spectra, designs an inverse filter, and plays
// the filtered probe back for verification. An injected decision function
// chooses between another refinement round and acceptance; on acceptance a
// final filter is derived from the accepted waveform and applied to the
// actual stimulus.
//
// The loop is an explicit state machine so it can run against scripted
// deciders and simulated hardware:
//
//   - StateProbing: play the current probe, capture the response
//   - StateEvaluating: design the round filter, filter the probe, verify
//   - StateAwaitingDecision: ask the decider to refine or accept
//   - StateFinalizing: derive the stimulus filter, filter the stimulus
//   - StateDone: result available
//
// # Usage
//
//	eng, err := compensate.New(compensate.Config{
//	    SampleRate: 48000,
//	    FFTSize:    1024,
//	    LowFreq:    50,
//	    HighFreq:   2000,
//	}, backend, stimulus, decider)
//	if err != nil {
//	    return err
//	}
//	res, err := eng.Run()
//	// res.Filter holds the final coefficients,
//	// res.Compensated the filtered stimulus.
package compensate
