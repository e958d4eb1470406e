package types

import (
	"math"
	"time"
)

type BitDepth uint

const (
	Depth16 BitDepth = 16
	Depth24 BitDepth = 24
	Depth32 BitDepth = 32
)

// PCMFormat describes interleaved signed little-endian PCM.
type PCMFormat struct {
	SampleRate int
	BitDepth   BitDepth
	Channels   uint
}

// FrameSize is the number of bytes in one interleaved frame.
func (f PCMFormat) FrameSize() int {
	return int(f.BitDepth/8) * int(f.Channels) //nolint:gosec // audio format values are small constants
}

// Frequency is a dominant frequency estimate, in Hz, +/- Margin.
type Frequency struct {
	Value  float64
	Margin float64
}

// Within reports whether expected falls inside Value +/- Margin.
func (f Frequency) Within(expected float64) bool {
	return math.Abs(f.Value-expected) <= f.Margin
}

// Reading is one pitch query, stamped with the stream position of the last
// frame fed to the analyser.
type Reading struct {
	Frame     uint64
	Time      time.Duration
	Bin       int
	Level     byte // magnitude of the winning bin, 0-255
	Frequency Frequency
}

/*
Summary interpretation

Readings are "voiced" when the winning bin magnitude reaches the configured
minimum level. Silence and near-silence produce an all-zero snapshot, which
resolves to bin 0 (0 Hz) and would drag the median down.

| VoicedRatio | Interpretation                              |
|-------------|---------------------------------------------|
| > 0.9       | Sustained tone. Median is reliable.         |
| 0.5 - 0.9   | Intermittent. Median is indicative.         |
| < 0.5       | Mostly silence or noise. Treat with care.   |

Margin is constant for a given analysis configuration (sampleRate/fftSize).
*/

// Summary aggregates a stream of readings.
type Summary struct {
	Readings    int
	Voiced      int
	VoicedRatio float64
	Median      Frequency
	Min         float64
	Max         float64
	Note        string  // nearest equal-tempered note of the median
	Cents       float64 // offset of the median from Note
	Duration    time.Duration
}

// SpectrumStats describes the shape of a magnitude spectrum.
type SpectrumStats struct {
	PeakBin   int
	PeakHz    float64
	Centroid  float64 // Hz
	Spread    float64 // Hz
	Flatness  float64 // 0..1, 1 = white noise
	Rolloff   float64 // Hz, 85% energy
	Bandwidth float64 // Hz, 3 dB around peak
}

// LevelResult summarizes the amplitude of the analysed signal, in dBFS.
type LevelResult struct {
	DCOffset   float64 // mean sample value
	DCOffsetDb float64
	RMSDb      float64
	PeakDb     float64
	Frames     uint64
}
