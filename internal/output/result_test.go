package output_test

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/farcloser/diapason"
	"github.com/farcloser/diapason/internal/output"
	"github.com/farcloser/diapason/internal/types"
)

func TestResultToMap(t *testing.T) {
	t.Parallel()

	result := &diapason.Result{
		Format:  types.PCMFormat{SampleRate: 44100, BitDepth: types.Depth16, Channels: 2},
		FFTSize: 2048,
		Readings: []types.Reading{
			{Frame: 2048, Time: 46 * time.Millisecond, Bin: 20, Level: 180, Frequency: types.Frequency{Value: 430.66, Margin: 21.53}},
		},
		Summary: types.Summary{
			Readings: 1,
			Voiced:   1,
			Median:   types.Frequency{Value: 430.66, Margin: 21.53},
			Note:     "A4",
		},
		Expected: 440,
		Verdict:  diapason.VerdictMatch,
	}

	meta := output.ResultToMap(result)
	assert.Equal(t, meta["fft_size"], 2048)
	assert.Equal(t, len(meta["readings"].([]any)), 1)

	expected, ok := meta["expected"].(map[string]any)
	assert.Assert(t, ok)
	assert.Equal(t, expected["verdict"], "match")

	summary, ok := meta["summary"].(map[string]any)
	assert.Assert(t, ok)
	assert.Equal(t, summary["note"], "A4")
	assert.Equal(t, summary["median_hz"], 430.66)
}

func TestSummaryToMapUnvoiced(t *testing.T) {
	t.Parallel()

	meta := output.SummaryToMap(&types.Summary{Readings: 3})
	assert.Equal(t, meta["readings"], 3)

	_, found := meta["median_hz"]
	assert.Assert(t, !found)
}

func TestNoExpectation(t *testing.T) {
	t.Parallel()

	meta := output.ResultToMap(&diapason.Result{})

	_, found := meta["expected"]
	assert.Assert(t, !found)
}
