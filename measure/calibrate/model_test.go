package calibrate

import (
	"errors"
	"math"
	"testing"
)

func TestFitModelRecoversLine(t *testing.T) {
	const (
		slope     = 0.35
		intercept = 0.02
	)

	peaks := []float64{1, 2, 3, 4, 5}

	steps := make([]float64, len(peaks))
	for i, p := range peaks {
		steps[i] = slope*p + intercept
	}

	model, err := FitModel(peaks, steps)
	if err != nil {
		t.Fatalf("FitModel failed: %v", err)
	}

	if math.Abs(model.Slope-slope) > 1e-12 {
		t.Errorf("slope = %v, want %v", model.Slope, slope)
	}

	if math.Abs(model.Intercept-intercept) > 1e-12 {
		t.Errorf("intercept = %v, want %v", model.Intercept, intercept)
	}

	if got, want := model.MultiplierFor(7), slope*7+intercept; math.Abs(got-want) > 1e-12 {
		t.Errorf("MultiplierFor(7) = %v, want %v", got, want)
	}
}

func TestFitModelErrors(t *testing.T) {
	t.Run("MismatchedLengths", func(t *testing.T) {
		if _, err := FitModel([]float64{1, 2, 3}, []float64{1, 2}); !errors.Is(err, ErrRegressionData) {
			t.Fatalf("error = %v, want ErrRegressionData", err)
		}
	})

	t.Run("TooFewPoints", func(t *testing.T) {
		if _, err := FitModel([]float64{1}, []float64{1}); !errors.Is(err, ErrRegressionData) {
			t.Fatalf("error = %v, want ErrRegressionData", err)
		}
	})
}
