// Package estimate finds the dominant frequency of a byte magnitude snapshot.
package estimate

import "github.com/farcloser/diapason/internal/types"

// BinToFrequency returns the frequency of the nth FFT bin.
// The bin is not range checked: callers evaluate bin-1 and bin+1 at the spectrum edges.
func BinToFrequency(bin int, sampleRate float64, fftSize int) float64 {
	return sampleRate * (float64(bin) / float64(fftSize))
}

// Dominant returns the index and value of the loudest bin.
// The first bin wins on ties. An all-zero (or empty) snapshot yields (0, 0).
func Dominant(snapshot []byte) (int, byte) {
	var (
		maxValue byte
		bin      int
	)

	for i, v := range snapshot {
		if v > maxValue {
			maxValue = v
			bin = i
		}
	}

	return bin, maxValue
}

// FindDominantFrequency returns the frequency of the loudest bin, +/- half the span of its two neighbours.
// The margin is one bin of resolution (sampleRate/fftSize) whichever bin wins.
func FindDominantFrequency(snapshot []byte, sampleRate float64, fftSize int) types.Frequency {
	bin, _ := Dominant(snapshot)

	return AtBin(bin, sampleRate, fftSize)
}

// AtBin builds the frequency estimate for a given winning bin.
func AtBin(bin int, sampleRate float64, fftSize int) types.Frequency {
	lower := BinToFrequency(bin-1, sampleRate, fftSize)
	upper := BinToFrequency(bin+1, sampleRate, fftSize)

	return types.Frequency{
		Value:  BinToFrequency(bin, sampleRate, fftSize),
		Margin: (upper - lower) / 2,
	}
}
