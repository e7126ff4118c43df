// Package wave provides small value helpers for working with sampled
// waveforms: peak search, amplitude scaling, clip protection, edge tapering,
// and concatenation. All helpers treat their inputs as immutable and return
// fresh slices.
package wave
