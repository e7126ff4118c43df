// Package wavfile is the WAV storage boundary: it decodes stimulus files
// into normalized float64 waveforms and encodes processed waveforms back to
// disk as 16-bit PCM mono.
package wavfile

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Errors returned by the storage boundary.
var (
	ErrInvalidFile       = errors.New("wavfile: not a valid wav file")
	ErrEmptyFile         = errors.New("wavfile: file holds no samples")
	ErrEmptySamples      = errors.New("wavfile: empty sample data")
	ErrInvalidSampleRate = errors.New("wavfile: sample rate must be positive")
)

const (
	writeBitDepth = 16
	pcmFullScale  = 1 << (writeBitDepth - 1)
	pcmMax        = pcmFullScale - 1
	pcmMin        = -pcmFullScale
)

// Read decodes a WAV file into float64 samples normalized by the source bit
// depth to [-1, 1), and returns them with the file's sample rate.
// Multichannel files collapse to their first channel.
func Read(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("wavfile: open: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidFile, path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("wavfile: decode %s: %w", path, err)
	}

	if len(buf.Data) == 0 {
		return nil, 0, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	depth := buf.SourceBitDepth
	if depth <= 0 {
		depth = writeBitDepth
	}

	scale := 1 / float64(int64(1)<<(depth-1))

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)

	for i := range samples {
		samples[i] = float64(buf.Data[i*channels]) * scale
	}

	return samples, buf.Format.SampleRate, nil
}

// Write encodes samples as a 16-bit PCM mono WAV file at path, overwriting
// any existing file. Values are scaled to the PCM range and clamped at full
// scale.
func Write(path string, samples []float64, sampleRate int) error {
	if len(samples) == 0 {
		return ErrEmptySamples
	}

	if sampleRate <= 0 {
		return ErrInvalidSampleRate
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wavfile: create: %w", err)
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: writeBitDepth,
	}

	for i, v := range samples {
		buf.Data[i] = quantize(v)
	}

	enc := wav.NewEncoder(f, sampleRate, writeBitDepth, 1, 1)

	if err := enc.Write(buf); err != nil {
		f.Close()

		return fmt.Errorf("wavfile: encode %s: %w", path, err)
	}

	// Close finalizes the chunk sizes in the header, so its error matters.
	if err := enc.Close(); err != nil {
		f.Close()

		return fmt.Errorf("wavfile: finalize %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("wavfile: close %s: %w", path, err)
	}

	return nil
}

// quantize maps a sample to the signed 16-bit PCM range, rounding to the
// nearest code and clamping beyond full scale.
func quantize(v float64) int {
	n := int(math.Round(v * pcmFullScale))

	if n > pcmMax {
		return pcmMax
	}

	if n < pcmMin {
		return pcmMin
	}

	return n
}
