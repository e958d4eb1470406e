package diapason

import (
	"context"

	"github.com/farcloser/diapason/internal/types"
)

/*
Usage:

actx, err := diapason.NewContext(format.SampleRate)
result, err := diapason.Analyze(ctx, actx, source, diapason.DefaultOptions())
fmt.Printf("%s (%+.0f cents)\n", result.Summary.Note, result.Summary.Cents)

// Tuning check
opts := diapason.DefaultOptions()
opts.Expect = 440
result, err := diapason.Analyze(ctx, actx, source, opts)
if result.Verdict != diapason.VerdictMatch {
    ...
}

*/

// Analyze runs a detector over the whole source and summarizes the readings.
func Analyze(ctx context.Context, actx *Context, src Source, opts Options) (*Result, error) {
	detector, err := actx.NewDetector(src, opts.Detector)
	if err != nil {
		return nil, err
	}

	readings, err := collect(ctx, detector)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Format:   src.Format(),
		FFTSize:  detector.FFTSize(),
		Readings: readings,
		Summary:  Summarize(readings, opts.Summary),
		Spectrum: detector.Spectrum(),
		Level:    detector.Level(),
		Expected: opts.Expect,
	}

	result.Verdict = judge(result.Summary, opts.Expect)

	return result, nil
}

func judge(summary types.Summary, expected float64) Verdict {
	switch {
	case expected <= 0:
		return VerdictNone
	case summary.Voiced == 0:
		return VerdictUnvoiced
	case summary.Median.Within(expected):
		return VerdictMatch
	default:
		return VerdictMismatch
	}
}

func collect(ctx context.Context, detector *Detector) ([]types.Reading, error) {
	var readings []types.Reading

	for reading, err := range detector.Readings(ctx) {
		if err != nil {
			return readings, err
		}

		readings = append(readings, reading)
	}

	return readings, nil
}
