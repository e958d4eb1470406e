//nolint:wrapcheck
package main

import (
	"fmt"
	"os"

	"github.com/farcloser/primordium/format"

	"github.com/farcloser/diapason"
	"github.com/farcloser/diapason/internal/output"
)

// dcOffsetWarningDb is the DC level above which bin 0 may outweigh a quiet tone.
const dcOffsetWarningDb = -40.0

func outputResult(filePath string, result *diapason.Result, formatName string, debug bool) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	var meta map[string]any
	if debug {
		meta = output.ResultToMap(result)
	} else {
		meta = buildFriendlyOutput(result)
	}

	data := &format.Data{
		Object: filePath,
		Meta:   meta,
	}

	return formatter.PrintAll([]*format.Data{data}, os.Stdout)
}

// buildFriendlyOutput creates a user-friendly summary of the detection.
func buildFriendlyOutput(result *diapason.Result) map[string]any {
	summary := result.Summary

	meta := map[string]any{}

	if summary.Voiced == 0 {
		meta["summary"] = fmt.Sprintf("no dominant frequency (%d readings, all below the silence threshold)",
			summary.Readings)
	} else {
		meta["summary"] = fmt.Sprintf("%.1f Hz +/- %.1f Hz (%s %+.0f cents)",
			summary.Median.Value, summary.Median.Margin, summary.Note, summary.Cents)
	}

	props := map[string]any{
		"readings": fmt.Sprintf("%d (%.0f%% voiced, %s)",
			summary.Readings, summary.VoicedRatio*100, voicingLabel(summary.VoicedRatio)),
		"duration":   fmt.Sprintf("%.2f s", summary.Duration.Seconds()),
		"resolution": fmt.Sprintf("%d-point FFT at %d Hz", result.FFTSize, result.Format.SampleRate),
		"centroid":   fmt.Sprintf("%.0f Hz", result.Spectrum.Centroid),
	}

	props["level"] = fmt.Sprintf("%.1f dBFS RMS, %.1f dBFS peak", result.Level.RMSDb, result.Level.PeakDb)

	if result.Level.DCOffsetDb > dcOffsetWarningDb {
		props["dc_offset"] = fmt.Sprintf("%.1f dB (can mask low frequencies)", result.Level.DCOffsetDb)
	}

	if summary.Voiced > 0 {
		props["range"] = fmt.Sprintf("%.1f - %.1f Hz", summary.Min, summary.Max)
	}

	meta["properties"] = props

	if result.Verdict != diapason.VerdictNone {
		meta["expected"] = fmt.Sprintf("%.2f Hz: %s", result.Expected, result.Verdict)
	}

	return meta
}

func voicingLabel(ratio float64) string {
	switch {
	case ratio > 0.9:
		return "sustained"
	case ratio >= 0.5:
		return "intermittent"
	default:
		return "mostly silent"
	}
}
