// Package output provides shared result serialization for diapason JSON output.
package output

import (
	"github.com/farcloser/diapason"
	"github.com/farcloser/diapason/internal/types"
)

// ResultToMap converts an analysis result into the canonical map structure
// used for JSON and JSONL serialization.
func ResultToMap(result *diapason.Result) map[string]any {
	meta := map[string]any{
		"format": map[string]any{
			"sample_rate": result.Format.SampleRate,
			"bit_depth":   int(result.Format.BitDepth), //nolint:gosec // audio format values are small constants
			"channels":    result.Format.Channels,
		},
		"fft_size": result.FFTSize,
		"summary":  SummaryToMap(&result.Summary),
		"spectrum": SpectrumToMap(&result.Spectrum),
		"level":    LevelToMap(&result.Level),
	}

	if result.Verdict != diapason.VerdictNone {
		meta["expected"] = map[string]any{
			"frequency_hz": result.Expected,
			"verdict":      result.Verdict.String(),
		}
	}

	readings := make([]any, 0, len(result.Readings))
	for i := range result.Readings {
		readings = append(readings, ReadingToMap(&result.Readings[i]))
	}

	meta["readings"] = readings

	return meta
}

// SummaryToMap converts a summary to a map.
func SummaryToMap(summary *types.Summary) map[string]any {
	meta := map[string]any{
		"readings":     summary.Readings,
		"voiced":       summary.Voiced,
		"voiced_ratio": summary.VoicedRatio,
		"duration_sec": summary.Duration.Seconds(),
	}

	if summary.Voiced > 0 {
		meta["median_hz"] = summary.Median.Value
		meta["margin_hz"] = summary.Median.Margin
		meta["min_hz"] = summary.Min
		meta["max_hz"] = summary.Max
		meta["note"] = summary.Note
		meta["cents"] = summary.Cents
	}

	return meta
}

// ReadingToMap converts a single reading to a map.
func ReadingToMap(reading *types.Reading) map[string]any {
	return map[string]any{
		"frame":        reading.Frame,
		"time_sec":     reading.Time.Seconds(),
		"bin":          reading.Bin,
		"level":        int(reading.Level),
		"frequency_hz": reading.Frequency.Value,
		"margin_hz":    reading.Frequency.Margin,
	}
}

// SpectrumToMap converts spectrum statistics to a map.
func SpectrumToMap(stats *types.SpectrumStats) map[string]any {
	return map[string]any{
		"peak_bin":     stats.PeakBin,
		"peak_hz":      stats.PeakHz,
		"centroid_hz":  stats.Centroid,
		"spread_hz":    stats.Spread,
		"flatness":     stats.Flatness,
		"rolloff_hz":   stats.Rolloff,
		"bandwidth_hz": stats.Bandwidth,
	}
}

// LevelToMap converts level measurements to a map.
func LevelToMap(level *types.LevelResult) map[string]any {
	return map[string]any{
		"dc_offset":    level.DCOffset,
		"dc_offset_db": level.DCOffsetDb,
		"rms_db":       level.RMSDb,
		"peak_db":      level.PeakDb,
		"frames":       level.Frames,
	}
}
