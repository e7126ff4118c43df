// Package session ties one playback-experiment run together: the hardware
// binding, the sensor on the capture side, the stimulus parameters, and the
// prepared output files.
//
// An Experiment runs the preparation procedures in their natural order.
// Compensate writes a spectrally flattened copy of the stimulus, Calibrate
// scales the best available copy so the measured response hits a target
// physical amplitude, and Play emits the best available copy while
// recording. Later stages pick up earlier artifacts through the recorded
// file paths: calibration prefers the compensated file, playback prefers
// the calibrated file over the compensated one over the original.
//
// # Usage
//
//	exp, err := session.New(session.Config{
//		Name: "substrate borne playback",
//		Stimulus: session.Stimulus{
//			Path:            "stimulus.wav",
//			SampleRate:      48000,
//			FFTSize:         1024,
//			LowFreq:         50,
//			HighFreq:        2000,
//			TargetAmplitude: 9.81,
//		},
//		Sensor: sensor,
//	}, backend)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if _, err := exp.Compensate(); err != nil {
//		log.Fatal(err)
//	}
//	if _, err := exp.Calibrate(); err != nil {
//		log.Fatal(err)
//	}
package session
