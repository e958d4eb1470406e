package diapason

import "github.com/farcloser/diapason/internal/types"

// Verdict is the outcome of comparing a summary against an expected frequency.
type Verdict int

const (
	// VerdictNone: no expectation was set.
	VerdictNone Verdict = iota
	// VerdictMatch: the median falls within one margin of the expected frequency.
	VerdictMatch
	// VerdictMismatch: the median is more than one margin away.
	VerdictMismatch
	// VerdictUnvoiced: nothing loud enough to judge.
	VerdictUnvoiced
)

func (v Verdict) String() string {
	switch v {
	case VerdictNone:
		return "none"
	case VerdictMatch:
		return "match"
	case VerdictMismatch:
		return "mismatch"
	case VerdictUnvoiced:
		return "unvoiced"
	default:
		return "unknown"
	}
}

// Options configures Analyze.
type Options struct {
	Detector DetectorOptions
	Summary  SummaryOptions
	// Expect is the frequency the signal is supposed to carry, in Hz. Zero disables the check.
	Expect float64
}

// DefaultOptions returns detector defaults, default voicing threshold and no expectation.
func DefaultOptions() Options {
	return Options{
		Detector: DefaultDetectorOptions(),
		Summary:  SummaryOptions{MinLevel: DefaultMinLevel},
	}
}

// Result is the outcome of analyzing one source.
type Result struct {
	Format   types.PCMFormat
	FFTSize  int
	Readings []types.Reading
	Summary  types.Summary
	// Spectrum describes the final analysis window.
	Spectrum types.SpectrumStats
	Level    types.LevelResult
	Expected float64
	Verdict  Verdict
}
