package diapason

import (
	"math"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/farcloser/diapason/internal/types"
)

// DefaultMinLevel is the winning byte magnitude below which a reading counts as unvoiced.
// With the default -100..-30 dB range, 32 is roughly -91 dB.
const DefaultMinLevel = 32

// A4 is the reference pitch for note naming.
const A4 = 440.0

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// SummaryOptions configures Summarize.
type SummaryOptions struct {
	// MinLevel: readings whose winning level is below are unvoiced. Zero means DefaultMinLevel.
	MinLevel byte
}

// Summarize aggregates readings. Only voiced readings contribute to the frequency statistics.
func Summarize(readings []types.Reading, opts SummaryOptions) types.Summary {
	if opts.MinLevel == 0 {
		opts.MinLevel = DefaultMinLevel
	}

	summary := types.Summary{Readings: len(readings)}
	if len(readings) == 0 {
		return summary
	}

	summary.Duration = readings[len(readings)-1].Time

	values := make([]float64, 0, len(readings))

	var margin float64

	for _, reading := range readings {
		if reading.Level < opts.MinLevel {
			continue
		}

		values = append(values, reading.Frequency.Value)
		margin = reading.Frequency.Margin
	}

	summary.Voiced = len(values)
	summary.VoicedRatio = float64(summary.Voiced) / float64(summary.Readings)

	if len(values) == 0 {
		return summary
	}

	slices.Sort(values)

	summary.Median = types.Frequency{
		Value:  stat.Quantile(0.5, stat.Empirical, values, nil),
		Margin: margin,
	}
	summary.Min = values[0]
	summary.Max = values[len(values)-1]
	summary.Note, summary.Cents = NoteName(summary.Median.Value)

	return summary
}

// NoteName returns the nearest equal-tempered note (scientific pitch notation, A4 = 440 Hz) and the offset of freq
// from it in cents, in [-50, 50]. Non-positive frequencies have no note.
func NoteName(freq float64) (string, float64) {
	if freq <= 0 || math.IsInf(freq, 0) || math.IsNaN(freq) {
		return "", 0
	}

	midi := 69 + 12*math.Log2(freq/A4)
	nearest := math.Round(midi)
	cents := (midi - nearest) * 100 //nolint:mnd

	note := int(nearest)
	octave := floorDiv(note, 12) - 1

	return noteNames[note-floorDiv(note, 12)*12] + strconv.Itoa(octave), cents
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}

	return q
}
