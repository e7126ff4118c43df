//go:build !portaudio

package hardware

// Duplex drives a physical audio interface when built with -tags portaudio.
// This stub stands in when the PortAudio bindings are not compiled in.
type Duplex struct{}

// NewDuplex always fails without the portaudio build tag.
func NewDuplex(sampleRate int, opts ...DuplexOption) (*Duplex, error) {
	return nil, ErrBackendUnavailable
}

// Devices always fails without the portaudio build tag.
func Devices() ([]Device, error) {
	return nil, ErrBackendUnavailable
}

// PlayRecord implements PlayRecorder.
func (d *Duplex) PlayRecord(playback []float64) ([]float64, error) {
	return nil, ErrBackendUnavailable
}
