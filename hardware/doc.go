// Package hardware provides the synchronous play-and-record capability that
// all measurement procedures are built on.
//
// A PlayRecorder emits a waveform through one output channel while capturing
// one input channel, blocking until both complete. Transfer wraps a
// PlayRecorder with the padded transfer convention: trailing silence keeps
// the tail of the emission out of the capture cutoff, and the capture is
// length-reconciled against the unpadded waveform so callers can index
// response samples against stimulus samples.
//
// Two implementations exist: Duplex drives a physical audio interface
// through PortAudio (build with -tags portaudio), and Loopback is a
// deterministic simulator for tests and dry runs.
package hardware
