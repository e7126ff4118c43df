//go:build portaudio

package hardware

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"
)

// Duplex drives a physical audio interface in full duplex through PortAudio.
// Each PlayRecord call owns the PortAudio runtime for its duration; the
// device is a serially owned resource and calls must not overlap.
type Duplex struct {
	sampleRate int
	cfg        duplexConfig
}

// NewDuplex binds a duplex backend to a sample rate. Without options it uses
// the host default devices and the first channel in each direction.
func NewDuplex(sampleRate int, opts ...DuplexOption) (*Duplex, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	cfg := defaultDuplexConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Duplex{sampleRate: sampleRate, cfg: cfg}, nil
}

// Devices lists the audio devices PortAudio can reach.
func Devices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("hardware: initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("hardware: enumerate devices: %w", err)
	}

	devices := make([]Device, len(infos))
	for i, info := range infos {
		devices[i] = Device{
			Index:             i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
		}
	}

	return devices, nil
}

// PlayRecord implements PlayRecorder. The stream runs until every playback
// sample has been emitted; the capture is truncated to the playback length.
func (d *Duplex) PlayRecord(playback []float64) ([]float64, error) {
	if len(playback) == 0 {
		return nil, ErrEmptyPlayback
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("hardware: initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	inDev, outDev, err := d.resolveDevice()
	if err != nil {
		return nil, err
	}

	inChannels := d.cfg.inputChannel + 1
	outChannels := d.cfg.outputChannel + 1

	if inChannels > inDev.MaxInputChannels || outChannels > outDev.MaxOutputChannels {
		return nil, ErrChannelOutOfRange
	}

	params := portaudio.HighLatencyParameters(inDev, outDev)
	params.Input.Channels = inChannels
	params.Output.Channels = outChannels
	params.SampleRate = float64(d.sampleRate)
	params.FramesPerBuffer = portaudio.FramesPerBufferUnspecified

	var (
		mu       sync.Mutex
		captured = make([]float64, 0, len(playback))
		pos      int
		once     sync.Once
	)

	done := make(chan struct{})

	stream, err := portaudio.OpenStream(params, func(in, out [][]float32) {
		mu.Lock()
		defer mu.Unlock()

		for ch := range out {
			for i := range out[ch] {
				out[ch][i] = 0
			}
		}

		frames := len(out[d.cfg.outputChannel])
		for i := 0; i < frames && pos+i < len(playback); i++ {
			out[d.cfg.outputChannel][i] = float32(playback[pos+i])
		}

		for _, v := range in[d.cfg.inputChannel] {
			captured = append(captured, float64(v))
		}

		pos += frames
		if pos >= len(playback) {
			once.Do(func() { close(done) })
		}
	})
	if err != nil {
		return nil, fmt.Errorf("hardware: open duplex stream: %w", err)
	}
	defer stream.Close()

	d.cfg.logger.Debug("duplex transfer started",
		zap.String("device", outDev.Name),
		zap.Int("sampleRate", d.sampleRate),
		zap.Int("frames", len(playback)),
	)

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("hardware: start duplex stream: %w", err)
	}

	<-done

	if err := stream.Stop(); err != nil {
		return nil, fmt.Errorf("hardware: stop duplex stream: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if len(captured) > len(playback) {
		captured = captured[:len(playback)]
	}

	d.cfg.logger.Debug("duplex transfer finished", zap.Int("captured", len(captured)))

	return captured, nil
}

func (d *Duplex) resolveDevice() (in, out *portaudio.DeviceInfo, err error) {
	if d.cfg.deviceIndex < 0 {
		in, err = portaudio.DefaultInputDevice()
		if err != nil {
			return nil, nil, fmt.Errorf("hardware: default input device: %w", err)
		}

		out, err = portaudio.DefaultOutputDevice()
		if err != nil {
			return nil, nil, fmt.Errorf("hardware: default output device: %w", err)
		}

		return in, out, nil
	}

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, nil, fmt.Errorf("hardware: enumerate devices: %w", err)
	}

	if d.cfg.deviceIndex >= len(infos) {
		return nil, nil, ErrNoSuchDevice
	}

	dev := infos[d.cfg.deviceIndex]

	return dev, dev, nil
}
