package level_test

import (
	"math"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/farcloser/diapason/internal/level"
)

func TestEmptyMeter(t *testing.T) {
	t.Parallel()

	var meter level.Meter

	result := meter.Result()
	assert.Equal(t, result.Frames, uint64(0))
	assert.Equal(t, result.RMSDb, level.Floor)
	assert.Equal(t, result.PeakDb, level.Floor)
	assert.Equal(t, result.DCOffsetDb, level.Floor)
}

func TestSilence(t *testing.T) {
	t.Parallel()

	var meter level.Meter

	meter.Add(make([]float64, 1000))

	result := meter.Result()
	assert.Equal(t, result.Frames, uint64(1000))
	assert.Equal(t, result.RMSDb, level.Floor)
	assert.Equal(t, result.DCOffset, 0.0)
}

func TestSineAndOffset(t *testing.T) {
	t.Parallel()

	var meter level.Meter

	frames := make([]float64, 44100)
	for i := range frames {
		frames[i] = 0.1 + 0.5*math.Sin(2*math.Pi*441*float64(i)/44100)
	}

	// Split writes accumulate.
	meter.Add(frames[:1000])
	meter.Add(frames[1000:])

	result := meter.Result()
	assert.Equal(t, result.Frames, uint64(44100))
	assert.Assert(t, math.Abs(result.DCOffset-0.1) < 1e-6, "%v", result.DCOffset)
	assert.Assert(t, math.Abs(result.DCOffsetDb+20) < 1e-3, "%v", result.DCOffsetDb)
	assert.Assert(t, math.Abs(result.PeakDb-20*math.Log10(0.6)) < 1e-3, "%v", result.PeakDb)

	// RMS of 0.1 + 0.5 sin is sqrt(0.01 + 0.125).
	assert.Assert(t, math.Abs(result.RMSDb-20*math.Log10(math.Sqrt(0.135))) < 1e-3, "%v", result.RMSDb)
}
