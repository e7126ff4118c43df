package compensate

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-calib/dsp/wave"
	"github.com/cwbudde/algo-calib/hardware"
)

func TestNoiseProbe(t *testing.T) {
	const (
		sampleRate = 600
		seed       = 42
	)

	probe, err := NoiseProbe(sampleRate, seed)
	if err != nil {
		t.Fatalf("NoiseProbe failed: %v", err)
	}

	pad := hardware.PaddingLength(sampleRate)

	t.Run("Length", func(t *testing.T) {
		want := probeSeconds*sampleRate + 4*pad
		if len(probe) != want {
			t.Fatalf("probe length = %d, want %d", len(probe), want)
		}
	})

	t.Run("SilenceBlocks", func(t *testing.T) {
		for i := 0; i < pad; i++ {
			if probe[i] != 0 {
				t.Fatalf("leading padding sample %d = %v, want 0", i, probe[i])
			}
		}

		for i := len(probe) - 3*pad; i < len(probe); i++ {
			if probe[i] != 0 {
				t.Fatalf("trailing padding sample %d = %v, want 0", i, probe[i])
			}
		}
	})

	t.Run("TaperedEdges", func(t *testing.T) {
		if probe[pad] != 0 {
			t.Errorf("first noise sample = %v, want 0 after taper", probe[pad])
		}

		if last := probe[pad+probeSeconds*sampleRate-1]; last != 0 {
			t.Errorf("last noise sample = %v, want 0 after taper", last)
		}
	})

	t.Run("HalfAmplitude", func(t *testing.T) {
		_, peak := wave.Peak(probe)

		if peak > 0.25 {
			t.Errorf("probe peak = %v, want <= 0.25", peak)
		}

		if peak == 0 {
			t.Error("probe is silent")
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		again, err := NoiseProbe(sampleRate, seed)
		if err != nil {
			t.Fatalf("NoiseProbe failed: %v", err)
		}

		for i := range probe {
			if again[i] != probe[i] {
				t.Fatalf("sample %d differs between runs with the same seed", i)
			}
		}

		other, err := NoiseProbe(sampleRate, seed+1)
		if err != nil {
			t.Fatalf("NoiseProbe failed: %v", err)
		}

		same := true
		for i := range probe {
			if other[i] != probe[i] {
				same = false
				break
			}
		}

		if same {
			t.Error("different seeds produced identical probes")
		}
	})
}

func TestNoiseProbeInvalidRate(t *testing.T) {
	if _, err := NoiseProbe(0, 1); !errors.Is(err, ErrInvalidSampleRate) {
		t.Fatalf("error = %v, want ErrInvalidSampleRate", err)
	}
}
