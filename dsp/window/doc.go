// Package window provides window functions for spectral analysis and
// filter design.
//
// Cosine-sum windows (Hann, Hamming, Blackman) are generated in symmetric
// form for filter design or in periodic form for FFT framing. EdgeRamp
// builds the fade-in/fade-out taper used to suppress transients when a
// stimulus is sent to a transducer.
package window
