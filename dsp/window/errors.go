package window

import (
	"errors"
	"fmt"
)

var errMismatchedLength = errors.New("samples and coefficients must have same length")

func validateLength(size int) error {
	if size <= 0 {
		return fmt.Errorf("window size must be > 0: %d", size)
	}
	return nil
}

func validateRamp(length, ramp int) error {
	if length <= 0 {
		return validateLength(length)
	}
	if ramp < 1 {
		return fmt.Errorf("ramp length must be >= 1: %d", ramp)
	}
	if 2*ramp > length {
		return fmt.Errorf("ramp length %d exceeds half of window length %d", ramp, length)
	}
	return nil
}
