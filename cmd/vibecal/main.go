// Command vibecal prepares vibrational playback stimuli: it flattens the
// playback chain's frequency response, scales the stimulus so the measured
// response hits a target physical amplitude, and plays the prepared file
// while recording.
//
// Usage:
//
//	vibecal [flags] compensate|calibrate|play|all
//
// Driving a physical audio interface requires building with -tags portaudio;
// -sim runs the same procedures against a deterministic loopback.
//
// Examples:
//
//	vibecal -list-devices
//	vibecal -list-sensors
//	vibecal -stimulus song.wav -rate 44100 -high 1000 compensate
//	vibecal -stimulus song.wav -sensor "laser 5 mm/s/V" -target 2.5 all
//	vibecal -sim -stimulus song.wav all
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-calib/dsp/wave"
	"github.com/cwbudde/algo-calib/hardware"
	"github.com/cwbudde/algo-calib/measure/compensate"
	"github.com/cwbudde/algo-calib/session"
)

func main() {
	var (
		stimulus    = flag.String("stimulus", "", "stimulus WAV file to prepare")
		rate        = flag.Int("rate", 48000, "sample rate in Hz")
		fftSize     = flag.Int("fft", 1024, "FFT size for spectral estimation")
		lowFreq     = flag.Float64("low", 0, "lower band edge in Hz")
		highFreq    = flag.Float64("high", 2000, "upper band edge in Hz")
		target      = flag.Float64("target", 1, "target amplitude in sensor units")
		sensorName  = flag.String("sensor", "uncalibrated sensor mV", "sensor name (see -list-sensors)")
		device      = flag.Int("device", -1, "device index (-1 for the system default)")
		inputChan   = flag.Int("in", 0, "input channel index")
		outputChan  = flag.Int("out", 0, "output channel index")
		name        = flag.String("name", "vibecal run", "experiment name")
		rounds      = flag.Int("rounds", 1, "compensation rounds before finalizing")
		interactive = flag.Bool("interactive", false, "ask after each compensation round instead of using -rounds")
		sim         = flag.Bool("sim", false, "use the loopback simulator instead of a device")
		verbose     = flag.Bool("verbose", false, "log engine progress to stderr")
		listDevices = flag.Bool("list-devices", false, "list audio devices and exit")
		listSensors = flag.Bool("list-sensors", false, "list supported sensors and exit")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vibecal [flags] compensate|calibrate|play|all\n\n")
		fmt.Fprintf(os.Stderr, "Prepares a vibrational playback stimulus against the attached chain.\n")
		fmt.Fprintf(os.Stderr, "compensate flattens the chain response, calibrate scales to the target\n")
		fmt.Fprintf(os.Stderr, "amplitude, play emits the best prepared file. all runs the three in order.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  vibecal -list-devices\n")
		fmt.Fprintf(os.Stderr, "  vibecal -stimulus song.wav -rate 44100 -high 1000 compensate\n")
		fmt.Fprintf(os.Stderr, "  vibecal -stimulus song.wav -sensor \"laser 5 mm/s/V\" -target 2.5 all\n")
	}
	flag.Parse()

	if *listDevices {
		if err := printDevices(); err != nil {
			fail(err)
		}

		return
	}

	if *listSensors {
		printSensors()

		return
	}

	mode := strings.ToLower(strings.TrimSpace(flag.Arg(0)))

	switch mode {
	case "compensate", "calibrate", "play", "all":
	case "":
		flag.Usage()
		os.Exit(2)
	default:
		fail(fmt.Errorf("unknown mode %q", mode))
	}

	if *stimulus == "" {
		fail(fmt.Errorf("no stimulus file given (use -stimulus)"))
	}

	sensor, err := session.SensorByName(*sensorName)
	if err != nil {
		fail(fmt.Errorf("%v (use -list-sensors)", err))
	}

	logger := zap.NewNop()

	if *verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			fail(fmt.Errorf("build logger: %v", err))
		}

		// Sync on stderr fails with an ioctl error on most platforms.
		defer func() { _ = logger.Sync() }()
	}

	var backend hardware.PlayRecorder

	if *sim {
		// The simulated chain answers after exactly the trailing padding,
		// so padded transfers line up and the dry run behaves like a
		// well-adjusted physical chain.
		backend = hardware.NewLoopback(
			hardware.WithLatency(2 * hardware.PaddingLength(*rate)),
		)
	} else {
		duplex, err := hardware.NewDuplex(*rate,
			hardware.WithDeviceIndex(*device),
			hardware.WithChannels(*inputChan, *outputChan),
			hardware.WithLogger(logger),
		)
		if err != nil {
			fail(err)
		}

		backend = duplex
	}

	cfg := session.Config{
		Name: *name,
		Stimulus: session.Stimulus{
			Path:            *stimulus,
			SampleRate:      *rate,
			FFTSize:         *fftSize,
			LowFreq:         *lowFreq,
			HighFreq:        *highFreq,
			TargetAmplitude: *target,
		},
		Sensor: sensor,
		Binding: session.Binding{
			DeviceIndex:   *device,
			InputChannel:  *inputChan,
			OutputChannel: *outputChan,
		},
	}

	opts := []session.Option{session.WithLogger(logger)}

	switch {
	case *interactive:
		opts = append(opts, session.WithDecider(promptDecider(os.Stdin)))
	case *rounds > 1:
		opts = append(opts, session.WithDecider(countdownDecider(*rounds)))
	}

	exp, err := session.New(cfg, backend, opts...)
	if err != nil {
		fail(err)
	}

	rows := [][2]string{
		{"Run ID", exp.ID()},
		{"Experiment", exp.Name()},
		{"Stimulus", *stimulus},
	}

	if mode == "compensate" || mode == "all" {
		res, err := exp.Compensate()
		if err != nil {
			fail(err)
		}

		rows = append(rows,
			[2]string{"Compensated file", exp.CompensatedPath()},
			[2]string{"Filter taps", fmt.Sprintf("%d", len(res.Filter))},
			[2]string{"Rounds", fmt.Sprintf("%d", len(res.Rounds))},
			[2]string{"Attenuated", fmt.Sprintf("%t", res.Attenuated)},
		)
	}

	if mode == "calibrate" || mode == "all" {
		res, err := exp.Calibrate()
		if err != nil {
			fail(err)
		}

		rows = append(rows,
			[2]string{"Calibrated file", exp.CalibratedPath()},
			[2]string{"Multiplier", fmt.Sprintf("%.6g", res.Multiplier)},
			[2]string{"Target", fmt.Sprintf("%g %s", *target, sensor.Units)},
			[2]string{"Time delay", fmt.Sprintf("%d samples", res.TimeDelay)},
			[2]string{"Clipped", fmt.Sprintf("%t", res.Clipped)},
		)
	}

	if mode == "play" || mode == "all" {
		path := exp.PlaybackPath()

		capture, err := exp.Play()
		if err != nil {
			fail(err)
		}

		_, peak := wave.Peak(capture)

		rows = append(rows,
			[2]string{"Played file", path},
			[2]string{"Capture peak", fmt.Sprintf("%.6g %s", peak*sensor.Conversion, sensor.Units)},
		)
	}

	printSummary(rows)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// countdownDecider refines until the given number of rounds has run, then
// finalizes.
func countdownDecider(rounds int) compensate.Decider {
	return func(r compensate.Round) (compensate.Decision, error) {
		if r.Index+1 >= rounds {
			return compensate.DecisionFinalize, nil
		}

		return compensate.DecisionRefine, nil
	}
}

// promptDecider asks on the terminal after each round, mirroring an
// attended refinement run.
func promptDecider(in io.Reader) compensate.Decider {
	reader := bufio.NewReader(in)

	return func(r compensate.Round) (compensate.Decision, error) {
		fmt.Printf("Round %d done. Compensate again? (y/n) ", r.Index+1)

		line, err := reader.ReadString('\n')
		if err != nil {
			return 0, fmt.Errorf("read decision: %w", err)
		}

		switch strings.TrimSpace(strings.ToLower(line)) {
		case "y", "yes":
			return compensate.DecisionRefine, nil
		default:
			return compensate.DecisionFinalize, nil
		}
	}
}

func printDevices() error {
	devices, err := hardware.Devices()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Index\tName\tIn\tOut\tDefault Rate\n")
	fmt.Fprintf(tw, "-----\t----\t--\t---\t------------\n")

	for _, d := range devices {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%.0f\n",
			d.Index, d.Name, d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate)
	}

	return tw.Flush()
}

func printSensors() {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name\tUnits\tConversion\n")
	fmt.Fprintf(tw, "----\t-----\t----------\n")

	for _, s := range session.Sensors() {
		fmt.Fprintf(tw, "%s\t%s\t%g\n", s.Name, s.Units, s.Conversion)
	}

	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: flush output: %v\n", err)
	}
}

func printSummary(rows [][2]string) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1])
	}

	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: flush output: %v\n", err)
	}
}
