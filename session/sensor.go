package session

import "fmt"

// Sensor describes the measurement sensor on the capture channel: its
// display name, the physical units it reports, and the factor converting
// raw capture values to those units.
type Sensor struct {
	Name       string
	Units      string
	Conversion float64
}

// Sensors returns the supported sensor catalogue: an accelerometer at three
// amplifier gains, laser vibrometers at three sensitivities, and a fallback
// entry for uncalibrated sensors reporting millivolts.
func Sensors() []Sensor {
	return []Sensor{
		{Name: "accelerometer 100 mV/G (1x gain)", Units: "m/s^2", Conversion: 98},
		{Name: "accelerometer 100 mV/G (10x gain)", Units: "m/s^2", Conversion: 9.8},
		{Name: "accelerometer 100 mV/G (100x gain)", Units: "m/s^2", Conversion: 0.98},
		{Name: "laser 2.5 mm/s/V", Units: "mm/s", Conversion: 2.5},
		{Name: "laser 5 mm/s/V", Units: "mm/s", Conversion: 5},
		{Name: "laser 25 mm/s/V", Units: "mm/s", Conversion: 25},
		{Name: "uncalibrated sensor mV", Units: "mV", Conversion: 1000},
	}
}

// SensorByName finds a catalogue sensor by its display name.
func SensorByName(name string) (Sensor, error) {
	for _, s := range Sensors() {
		if s.Name == name {
			return s, nil
		}
	}

	return Sensor{}, fmt.Errorf("%w: %q", ErrUnknownSensor, name)
}
