//nolint:tagliatelle
package main

import "encoding/json"

// Record is a single line in the JSONL report file.
type Record struct {
	File       string          `json:"file,omitempty"`
	Analysis   map[string]any  `json:"analysis,omitempty"`
	Probe      json.RawMessage `json:"probe,omitempty"`
	ProbeError string          `json:"probe_error,omitempty"`
	Error      string          `json:"error,omitempty"`
	Timing     *RecordTiming   `json:"timing,omitempty"`
}

// RecordTiming captures per-file processing durations in milliseconds.
// Decoding and detection run interleaved, so they share one figure.
type RecordTiming struct {
	ProbeMs  float64 `json:"probe_ms"`
	DetectMs float64 `json:"detect_ms"`
	TotalMs  float64 `json:"total_ms"`
}

// digestRecord holds the typed fields needed by the digest command.
type digestRecord struct {
	File     string          `json:"file,omitempty"`
	Analysis *digestAnalysis `json:"analysis,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type digestAnalysis struct {
	Summary  digestSummary   `json:"summary"`
	Expected *digestExpected `json:"expected,omitempty"`
}

type digestSummary struct {
	Readings    int     `json:"readings"`
	Voiced      int     `json:"voiced"`
	VoicedRatio float64 `json:"voiced_ratio"`
	MedianHz    float64 `json:"median_hz"`
	MarginHz    float64 `json:"margin_hz"`
	Note        string  `json:"note"`
	Cents       float64 `json:"cents"`
}

type digestExpected struct {
	FrequencyHz float64 `json:"frequency_hz"`
	Verdict     string  `json:"verdict"`
}

// noteCount tracks how many tracks settle on a note.
type noteCount struct {
	Note  string
	Total int
}
