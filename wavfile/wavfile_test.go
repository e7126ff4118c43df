package wavfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-calib/internal/testutil"
)

func TestRoundTrip(t *testing.T) {
	const (
		sampleRate = 8000
		length     = 400
	)

	// Half an LSB of rounding error per sample at 16 bits.
	const tol = 1.0 / 32768

	in := testutil.DeterministicSine(50, sampleRate, 0.8, length)

	path := filepath.Join(t.TempDir(), "tone.wav")

	if err := Write(path, in, sampleRate); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out, rate, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if rate != sampleRate {
		t.Errorf("sample rate = %d, want %d", rate, sampleRate)
	}

	testutil.RequireSliceNearlyEqual(t, out, in, tol)
}

func TestWriteClampsFullScale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hot.wav")

	if err := Write(path, []float64{1.5, -2.0, 0}, 8000); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out, _, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if want := float64(pcmMax) / pcmFullScale; out[0] != want {
		t.Errorf("clamped positive sample = %v, want %v", out[0], want)
	}

	if out[1] != -1 {
		t.Errorf("clamped negative sample = %v, want -1", out[1])
	}

	if out[2] != 0 {
		t.Errorf("zero sample = %v, want 0", out[2])
	}
}

func TestQuantize(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{0.5, 16384},
		{-0.5, -16384},
		{1, pcmMax},
		{-1, pcmMin},
		{1.5, pcmMax},
		{-1.5, pcmMin},
	}

	for _, tc := range cases {
		if got := quantize(tc.in); got != tc.want {
			t.Errorf("quantize(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestReadErrors(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		if _, _, err := Read(filepath.Join(t.TempDir(), "absent.wav")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("NotWav", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fake.wav")

		if err := os.WriteFile(path, []byte("plain text, no riff header"), 0o644); err != nil {
			t.Fatalf("fixture write failed: %v", err)
		}

		if _, _, err := Read(path); !errors.Is(err, ErrInvalidFile) {
			t.Fatalf("error = %v, want ErrInvalidFile", err)
		}
	})
}

func TestWriteErrors(t *testing.T) {
	t.Run("EmptySamples", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.wav")

		if err := Write(path, nil, 8000); !errors.Is(err, ErrEmptySamples) {
			t.Fatalf("error = %v, want ErrEmptySamples", err)
		}
	})

	t.Run("InvalidSampleRate", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "badrate.wav")

		if err := Write(path, []float64{0.1}, 0); !errors.Is(err, ErrInvalidSampleRate) {
			t.Fatalf("error = %v, want ErrInvalidSampleRate", err)
		}
	})

	t.Run("UnwritablePath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "no", "such", "dir", "out.wav")

		if err := Write(path, []float64{0.1}, 8000); err == nil {
			t.Fatal("expected error for unwritable path")
		}
	})
}
