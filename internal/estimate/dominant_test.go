package estimate_test

import (
	"math"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/farcloser/diapason/internal/estimate"
	"github.com/farcloser/diapason/internal/types"
)

const (
	sampleRate = 44100.0
	fftSize    = 2048
	binCount   = fftSize / 2
	resolution = sampleRate / fftSize
	tolerance  = 1e-9
)

func approx(t *testing.T, got, want float64) {
	t.Helper()

	assert.Assert(t, math.Abs(got-want) < tolerance, "got %v, want %v", got, want)
}

func TestBinToFrequency(t *testing.T) {
	t.Parallel()

	approx(t, estimate.BinToFrequency(0, sampleRate, fftSize), 0)
	approx(t, estimate.BinToFrequency(1024, sampleRate, fftSize), sampleRate/2)
	approx(t, estimate.BinToFrequency(-1, sampleRate, fftSize), -resolution)

	for bin := -3; bin < 2000; bin += 97 {
		step := estimate.BinToFrequency(bin+1, sampleRate, fftSize) - estimate.BinToFrequency(bin, sampleRate, fftSize)
		approx(t, step, resolution)
	}
}

func TestFindDominantFrequencyUniqueMaximum(t *testing.T) {
	t.Parallel()

	for _, k := range []int{1, 10, 511, binCount - 1} {
		snapshot := make([]byte, binCount)
		snapshot[k] = 200
		snapshot[(k+7)%binCount] = 17

		got := estimate.FindDominantFrequency(snapshot, sampleRate, fftSize)

		approx(t, got.Value, sampleRate*(float64(k)/fftSize))
		approx(t, got.Margin, resolution)
	}
}

func TestFindDominantFrequencyKnownScenario(t *testing.T) {
	t.Parallel()

	snapshot := make([]byte, binCount)
	snapshot[10] = 200

	got := estimate.FindDominantFrequency(snapshot, sampleRate, fftSize)

	assert.Assert(t, math.Abs(got.Value-215.33) < 0.01, "value %v", got.Value)
	assert.Assert(t, math.Abs(got.Margin-21.53) < 0.01, "margin %v", got.Margin)
}

func TestFindDominantFrequencyTiesKeepLowestBin(t *testing.T) {
	t.Parallel()

	snapshot := make([]byte, binCount)
	snapshot[40] = 255
	snapshot[12] = 255
	snapshot[900] = 255

	bin, level := estimate.Dominant(snapshot)
	assert.Equal(t, bin, 12)
	assert.Equal(t, level, byte(255))

	got := estimate.FindDominantFrequency(snapshot, sampleRate, fftSize)
	approx(t, got.Value, estimate.BinToFrequency(12, sampleRate, fftSize))
}

func TestFindDominantFrequencyAllZero(t *testing.T) {
	t.Parallel()

	got := estimate.FindDominantFrequency(make([]byte, binCount), sampleRate, fftSize)

	assert.Equal(t, got.Value, 0.0)
	approx(t, got.Margin, resolution)
}

func TestFindDominantFrequencyMarginIsConstant(t *testing.T) {
	t.Parallel()

	for _, cfg := range []struct {
		rate float64
		size int
	}{
		{44100, 2048},
		{48000, 1024},
		{8000, 32},
		{96000, 32768},
	} {
		snapshot := make([]byte, cfg.size/2)
		for i := range snapshot {
			snapshot[i] = byte(i * 31 % 251)
		}

		got := estimate.FindDominantFrequency(snapshot, cfg.rate, cfg.size)
		approx(t, got.Margin, cfg.rate/float64(cfg.size))
	}
}

func TestFindDominantFrequencyIsIdempotent(t *testing.T) {
	t.Parallel()

	snapshot := make([]byte, binCount)
	for i := range snapshot {
		snapshot[i] = byte((i * 7) % 113)
	}

	first := estimate.FindDominantFrequency(snapshot, sampleRate, fftSize)
	second := estimate.FindDominantFrequency(snapshot, sampleRate, fftSize)

	assert.Equal(t, first, second)
}

func TestFrequencyWithin(t *testing.T) {
	t.Parallel()

	freq := types.Frequency{Value: 430.66, Margin: 21.53}

	assert.Assert(t, freq.Within(440))
	assert.Assert(t, freq.Within(410))
	assert.Assert(t, !freq.Within(400))
	assert.Assert(t, !freq.Within(880))
}
