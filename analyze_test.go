package diapason_test

import (
	"context"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/farcloser/diapason"
)

func TestAnalyze(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		amplitude float64
		expect    float64
		verdict   diapason.Verdict
	}{
		{name: "no expectation", amplitude: 0.01, verdict: diapason.VerdictNone},
		{name: "in tune", amplitude: 0.01, expect: 440, verdict: diapason.VerdictMatch},
		{name: "out of tune", amplitude: 0.01, expect: 523.25, verdict: diapason.VerdictMismatch},
		{name: "silence", amplitude: 0, expect: 440, verdict: diapason.VerdictUnvoiced},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			actx, err := diapason.NewContext(44100)
			assert.NilError(t, err)

			source := newTone(44100)
			source.amplitude = tc.amplitude

			opts := diapason.DefaultOptions()
			opts.Expect = tc.expect

			result, err := diapason.Analyze(context.Background(), actx, source, opts)
			assert.NilError(t, err)
			assert.Equal(t, result.Verdict, tc.verdict, "%+v", result.Summary)
			assert.Equal(t, result.FFTSize, 2048)
			assert.Equal(t, result.Format.SampleRate, 44100)
			assert.Equal(t, len(result.Readings), 22)
		})
	}
}

func TestVerdictString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, diapason.VerdictMatch.String(), "match")
	assert.Equal(t, diapason.VerdictUnvoiced.String(), "unvoiced")
	assert.Equal(t, diapason.Verdict(42).String(), "unknown")
}
