package session

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-calib/hardware"
	"github.com/cwbudde/algo-calib/internal/testutil"
	"github.com/cwbudde/algo-calib/measure/compensate"
	"github.com/cwbudde/algo-calib/wavfile"
)

const testRate = 400

// writeStimulus stores a 2 Hz sine, peak 0.4, as the experiment stimulus.
func writeStimulus(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "stim.wav")

	if err := wavfile.Write(path, testutil.DeterministicSine(2, testRate, 0.4, 600), testRate); err != nil {
		t.Fatalf("stimulus write failed: %v", err)
	}

	return path
}

func alignedLoopback(opts ...hardware.LoopbackOption) *hardware.Loopback {
	return testutil.AlignedLoopback(testRate, 0, opts...)
}

func testConfig(path string) Config {
	return Config{
		Name: "wooden bench playback",
		Stimulus: Stimulus{
			Path:            path,
			SampleRate:      testRate,
			FFTSize:         64,
			LowFreq:         0,
			HighFreq:        180,
			TargetAmplitude: 0.24,
		},
		Sensor:  Sensor{Name: "laser 2.5 mm/s/V", Units: "mm/s", Conversion: 2.5},
		Binding: Binding{DeviceIndex: -1},
	}
}

func TestSensorCatalogue(t *testing.T) {
	all := Sensors()

	if len(all) != 7 {
		t.Fatalf("catalogue size = %d, want 7", len(all))
	}

	if all[0].Units != "m/s^2" || all[0].Conversion != 98 {
		t.Errorf("first entry = %+v, want accelerometer at 1x gain", all[0])
	}

	if all[6].Units != "mV" || all[6].Conversion != 1000 {
		t.Errorf("last entry = %+v, want uncalibrated fallback", all[6])
	}

	t.Run("ByName", func(t *testing.T) {
		s, err := SensorByName("laser 5 mm/s/V")
		if err != nil {
			t.Fatalf("SensorByName failed: %v", err)
		}

		if s.Conversion != 5 || s.Units != "mm/s" {
			t.Errorf("sensor = %+v, want laser at 5 mm/s/V", s)
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		if _, err := SensorByName("geophone"); !errors.Is(err, ErrUnknownSensor) {
			t.Fatalf("error = %v, want ErrUnknownSensor", err)
		}
	})
}

func TestNewValidation(t *testing.T) {
	backend := hardware.NewLoopback()
	valid := testConfig("stim.wav")

	t.Run("NilBackend", func(t *testing.T) {
		if _, err := New(valid, nil); !errors.Is(err, ErrNilBackend) {
			t.Fatalf("error = %v, want ErrNilBackend", err)
		}
	})

	t.Run("NoStimulus", func(t *testing.T) {
		cfg := valid
		cfg.Stimulus.Path = ""

		if _, err := New(cfg, backend); !errors.Is(err, ErrNoStimulus) {
			t.Fatalf("error = %v, want ErrNoStimulus", err)
		}
	})

	t.Run("InvalidSampleRate", func(t *testing.T) {
		cfg := valid
		cfg.Stimulus.SampleRate = 0

		if _, err := New(cfg, backend); !errors.Is(err, ErrInvalidSampleRate) {
			t.Fatalf("error = %v, want ErrInvalidSampleRate", err)
		}
	})

	t.Run("FreshRunIDs", func(t *testing.T) {
		a, err := New(valid, backend)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}

		b, err := New(valid, backend)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}

		if a.ID() == "" || a.ID() == b.ID() {
			t.Errorf("run ids %q and %q, want distinct non-empty", a.ID(), b.ID())
		}
	})
}

func TestExperimentCompensate(t *testing.T) {
	dir := t.TempDir()
	stim := writeStimulus(t, dir)

	exp, err := New(testConfig(stim), alignedLoopback())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := exp.Compensate()
	if err != nil {
		t.Fatalf("Compensate failed: %v", err)
	}

	want := filepath.Join(dir, "compensated_stim.wav")

	if exp.CompensatedPath() != want {
		t.Errorf("compensated path = %q, want %q", exp.CompensatedPath(), want)
	}

	if _, err := os.Stat(want); err != nil {
		t.Fatalf("compensated file missing: %v", err)
	}

	if len(res.Rounds) != 1 {
		t.Errorf("rounds = %d, want 1 with the default decider", len(res.Rounds))
	}

	if len(exp.Filter()) != 65 {
		t.Errorf("filter length = %d, want 65", len(exp.Filter()))
	}

	out, rate, err := wavfile.Read(want)
	if err != nil {
		t.Fatalf("compensated file unreadable: %v", err)
	}

	if rate != testRate || len(out) != 600 {
		t.Errorf("compensated file: %d samples at %d Hz, want 600 at %d", len(out), rate, testRate)
	}
}

func TestExperimentCompensateRefine(t *testing.T) {
	dir := t.TempDir()
	stim := writeStimulus(t, dir)

	calls := 0
	decide := func(compensate.Round) (compensate.Decision, error) {
		calls++
		if calls == 1 {
			return compensate.DecisionRefine, nil
		}

		return compensate.DecisionFinalize, nil
	}

	exp, err := New(testConfig(stim), alignedLoopback(), WithDecider(decide))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := exp.Compensate()
	if err != nil {
		t.Fatalf("Compensate failed: %v", err)
	}

	if len(res.Rounds) != 2 {
		t.Errorf("rounds = %d, want 2 with a refine-then-finalize decider", len(res.Rounds))
	}
}

func TestExperimentCalibrate(t *testing.T) {
	t.Run("PrefersCompensatedFile", func(t *testing.T) {
		dir := t.TempDir()
		stim := writeStimulus(t, dir)

		exp, err := New(testConfig(stim), alignedLoopback())
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}

		if _, err := exp.Compensate(); err != nil {
			t.Fatalf("Compensate failed: %v", err)
		}

		res, err := exp.Calibrate()
		if err != nil {
			t.Fatalf("Calibrate failed: %v", err)
		}

		want := filepath.Join(dir, "calibrated_compensated_stim.wav")

		if exp.CalibratedPath() != want {
			t.Errorf("calibrated path = %q, want %q", exp.CalibratedPath(), want)
		}

		if _, err := os.Stat(want); err != nil {
			t.Fatalf("calibrated file missing: %v", err)
		}

		if res.Multiplier <= 0 || res.Multiplier > 5 || math.IsNaN(res.Multiplier) {
			t.Errorf("multiplier = %v, want a small positive factor", res.Multiplier)
		}

		if res.Clipped {
			t.Error("clip flag raised for a quarter-scale calibration")
		}

		if exp.Multiplier() != res.Multiplier {
			t.Errorf("record multiplier = %v, want %v", exp.Multiplier(), res.Multiplier)
		}
	})

	t.Run("FallsBackToOriginal", func(t *testing.T) {
		dir := t.TempDir()
		stim := writeStimulus(t, dir)

		exp, err := New(testConfig(stim), alignedLoopback())
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}

		res, err := exp.Calibrate()
		if err != nil {
			t.Fatalf("Calibrate failed: %v", err)
		}

		want := filepath.Join(dir, "calibrated_stim.wav")

		if exp.CalibratedPath() != want {
			t.Errorf("calibrated path = %q, want %q", exp.CalibratedPath(), want)
		}

		if res.Multiplier <= 0 || res.Multiplier > 5 {
			t.Errorf("multiplier = %v, want a small positive factor", res.Multiplier)
		}
	})
}

func TestExperimentPlay(t *testing.T) {
	t.Run("FallbackOrdering", func(t *testing.T) {
		dir := t.TempDir()
		stim := writeStimulus(t, dir)

		exp, err := New(testConfig(stim), alignedLoopback())
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}

		if got := exp.PlaybackPath(); got != stim {
			t.Errorf("playback path = %q, want original %q", got, stim)
		}

		capture, err := exp.Play()
		if err != nil {
			t.Fatalf("Play failed: %v", err)
		}

		if len(capture) != 600 {
			t.Errorf("capture length = %d, want 600", len(capture))
		}

		if _, err := exp.Compensate(); err != nil {
			t.Fatalf("Compensate failed: %v", err)
		}

		if got := exp.PlaybackPath(); got != exp.CompensatedPath() {
			t.Errorf("playback path = %q, want compensated %q", got, exp.CompensatedPath())
		}

		if _, err := exp.Calibrate(); err != nil {
			t.Fatalf("Calibrate failed: %v", err)
		}

		if got := exp.PlaybackPath(); got != exp.CalibratedPath() {
			t.Errorf("playback path = %q, want calibrated %q", got, exp.CalibratedPath())
		}

		if _, err := exp.Play(); err != nil {
			t.Fatalf("Play after calibration failed: %v", err)
		}
	})

	t.Run("BackendFailure", func(t *testing.T) {
		dir := t.TempDir()
		stim := writeStimulus(t, dir)

		cause := errors.New("device unplugged")

		exp, err := New(testConfig(stim), hardware.NewLoopback(hardware.WithFailure(cause)))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}

		if _, err := exp.Play(); !errors.Is(err, cause) {
			t.Fatalf("error = %v, want wrapped %v", err, cause)
		}
	})
}

func TestPrefixedPath(t *testing.T) {
	cases := []struct {
		path, prefix, want string
	}{
		{"data/stim.wav", "compensated_", "data/compensated_stim.wav"},
		{"stim.wav", "compensated_", "compensated_stim.wav"},
		{"a/b/stim.wav", "calibrated_", "a/b/calibrated_stim.wav"},
	}

	for _, tc := range cases {
		if got := prefixedPath(tc.path, tc.prefix); got != tc.want {
			t.Errorf("prefixedPath(%q, %q) = %q, want %q", tc.path, tc.prefix, got, tc.want)
		}
	}
}
