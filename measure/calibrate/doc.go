// Package calibrate derives the scalar multiplier that makes a stimulus
// reach a target peak amplitude, in physical units, at the transducer.
//
// A run measures the chain's round-trip latency with a click, locates the
// stimulus peak in a captured playback, cuts and tapers a segment around
// that peak, and plays an amplitude ladder built from that segment: the
// same segment at linearly increasing multipliers, bracketed by a second
// of silence on each side. The captured step peaks and their multipliers
// are fitted with a first-degree polynomial, and the fit evaluated at the
// target amplitude yields the calibration multiplier.
//
// Captured amplitudes are converted to physical units with the sensor's
// conversion factor, so the target is expressed in the sensor's units
// (for example m/s² for an accelerometer or mm/s for a laser vibrometer).
//
// # Usage
//
//	eng, err := calibrate.New(calibrate.Config{
//	    SampleRate:      48000,
//	    TargetAmplitude: 9.81,
//	    AmpConversion:   9.8,
//	}, backend)
//	if err != nil {
//	    return err
//	}
//	res, err := eng.Run(stimulus)
//	// res.Multiplier scales the stimulus to the target,
//	// res.Calibrated is the scaled waveform.
package calibrate
