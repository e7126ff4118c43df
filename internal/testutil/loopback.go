package testutil

import "github.com/cwbudde/algo-calib/hardware"

// AlignedLoopback builds a simulated chain whose round-trip latency equals
// the two padding blocks a padded transfer appends, plus extra samples.
// With extra zero the transfer's front trim removes exactly the delayed
// silence, so the capture reproduces the playback sample for sample.
func AlignedLoopback(sampleRate, extra int, opts ...hardware.LoopbackOption) *hardware.Loopback {
	all := []hardware.LoopbackOption{hardware.WithLatency(2*hardware.PaddingLength(sampleRate) + extra)}
	all = append(all, opts...)

	return hardware.NewLoopback(all...)
}
