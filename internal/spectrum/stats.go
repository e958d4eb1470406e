// Package spectrum describes the shape of an analyser magnitude spectrum.
package spectrum

import (
	"github.com/cwbudde/algo-dsp/stats/frequency"

	"github.com/farcloser/diapason/internal/types"
)

// Describe computes shape statistics from a one-sided linear magnitude spectrum (DC to Nyquist).
func Describe(magnitudes []float64, sampleRate float64) types.SpectrumStats {
	if len(magnitudes) < 2 {
		return types.SpectrumStats{}
	}

	stats := frequency.Calculate(magnitudes, sampleRate)
	binHz := sampleRate / float64(2*(len(magnitudes)-1))

	return types.SpectrumStats{
		PeakBin:   stats.MaxBin,
		PeakHz:    float64(stats.MaxBin) * binHz,
		Centroid:  stats.Centroid,
		Spread:    stats.Spread,
		Flatness:  stats.Flatness,
		Rolloff:   stats.Rolloff,
		Bandwidth: stats.Bandwidth,
	}
}
