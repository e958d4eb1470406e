package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"
)

var errDigestArgs = errors.New("expected exactly one argument: path to report.jsonl")

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:      "digest",
		Usage:     "Produce a summary digest from a diapason JSONL report",
		ArgsUsage: "<report.jsonl>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "note",
				Usage: "Show files whose median settles on a specific note (e.g., A4, C#3)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errDigestArgs
			}

			return runDigest(cmd.Args().First(), cmd.String("note"))
		},
	}
}

func runDigest(reportPath, noteFilter string) error {
	records, rawLines, err := readRecordsWithRaw(reportPath)
	if err != nil {
		return err
	}

	printDigest(records)

	if noteFilter != "" {
		printNoteDetail(records, rawLines, noteFilter)
	}

	return nil
}

func readRecordsWithRaw(path string) ([]digestRecord, [][]byte, error) {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified report files
	if err != nil {
		return nil, nil, fmt.Errorf("opening report: %w", err)
	}
	defer file.Close()

	var (
		records []digestRecord
		lines   [][]byte
	)

	scanner := bufio.NewScanner(file)

	const maxLineSize = 1024 * 1024 // 1MB
	scanner.Buffer(make([]byte, 0, maxLineSize), maxLineSize)

	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		lines = append(lines, line)

		var rec digestRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			records = append(records, digestRecord{Error: "parse error"})

			continue
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading report: %w", err)
	}

	return records, lines, nil
}

func printDigest(records []digestRecord) {
	total := len(records)
	failures := 0
	voicing := map[string]int{"sustained": 0, "intermittent": 0, "silent": 0}
	verdicts := map[string]int{}
	notes := map[string]*noteCount{}

	for _, rec := range records {
		if rec.Error != "" || rec.Analysis == nil {
			failures++

			continue
		}

		summary := rec.Analysis.Summary

		switch {
		case summary.VoicedRatio > 0.9:
			voicing["sustained"]++
		case summary.VoicedRatio >= 0.5:
			voicing["intermittent"]++
		default:
			voicing["silent"]++
		}

		if rec.Analysis.Expected != nil {
			verdicts[rec.Analysis.Expected.Verdict]++
		}

		if summary.Note == "" {
			continue
		}

		count, ok := notes[summary.Note]
		if !ok {
			count = &noteCount{Note: summary.Note}
			notes[summary.Note] = count
		}

		count.Total++
	}

	analyzed := total - failures

	fmt.Println("=== Diapason Report Digest ===")
	fmt.Println()
	fmt.Printf("Total tracks:  %d\n", total)
	fmt.Printf("Failed:        %d\n", failures)
	fmt.Printf("Analyzed:      %d\n", analyzed)
	fmt.Println()

	fmt.Println("--- Voicing ---")
	fmt.Printf("  Sustained:     %d\n", voicing["sustained"])
	fmt.Printf("  Intermittent:  %d\n", voicing["intermittent"])
	fmt.Printf("  Mostly silent: %d\n", voicing["silent"])
	fmt.Println()

	if len(verdicts) > 0 {
		fmt.Println("--- Expected Frequency ---")
		fmt.Printf("  Match:     %d\n", verdicts["match"])
		fmt.Printf("  Mismatch:  %d\n", verdicts["mismatch"])
		fmt.Printf("  Unvoiced:  %d\n", verdicts["unvoiced"])
		fmt.Println()
	}

	fmt.Println("--- Dominant Notes ---")

	histogram := make([]*noteCount, 0, len(notes))
	for _, count := range notes {
		histogram = append(histogram, count)
	}

	slices.SortFunc(histogram, func(a, b *noteCount) int {
		if a.Total != b.Total {
			return b.Total - a.Total
		}

		return strings.Compare(a.Note, b.Note)
	})

	for _, count := range histogram {
		fmt.Printf("  %-4s %5d  %s\n", count.Note, count.Total, strings.Repeat("#", barLength(count.Total, analyzed)))
	}
}

// barLength scales a count to at most 40 characters.
func barLength(count, total int) int {
	if total == 0 {
		return 0
	}

	return max(1, count*40/total) //nolint:mnd
}

type noteEntry struct {
	file   string
	median float64
	cents  float64
	ratio  float64
	detail map[string]any
}

func printNoteDetail(records []digestRecord, rawLines [][]byte, note string) {
	fmt.Println()

	var entries []noteEntry

	for idx, rec := range records {
		if rec.Error != "" || rec.Analysis == nil || !strings.EqualFold(rec.Analysis.Summary.Note, note) {
			continue
		}

		entry := noteEntry{
			file:   rec.File,
			median: rec.Analysis.Summary.MedianHz,
			cents:  rec.Analysis.Summary.Cents,
			ratio:  rec.Analysis.Summary.VoicedRatio,
		}

		if entry.file == "" {
			entry.file = "(redacted)"
		}

		if idx < len(rawLines) {
			entry.detail = extractDetailFromRaw(rawLines[idx], "spectrum")
		}

		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		fmt.Printf("No tracks settle on %s\n", note)

		return
	}

	// Most out of tune first.
	slices.SortFunc(entries, func(a, b noteEntry) int {
		switch {
		case math.Abs(a.cents) > math.Abs(b.cents):
			return -1
		case math.Abs(a.cents) < math.Abs(b.cents):
			return 1
		default:
			return strings.Compare(a.file, b.file)
		}
	})

	fmt.Printf("=== %s: %d tracks ===\n\n", note, len(entries))

	for _, entry := range entries {
		fmt.Printf("  %s\n", entry.file)
		fmt.Printf("    median: %.2f Hz  offset: %+.0f cents  voiced: %.0f%%\n", entry.median, entry.cents, entry.ratio*100)

		for _, key := range slices.Sorted(maps.Keys(entry.detail)) {
			fmt.Printf("    %s: %s\n", key, formatDetailValue(entry.detail[key]))
		}

		fmt.Println()
	}
}

func extractDetailFromRaw(rawLine []byte, key string) map[string]any {
	var full struct {
		Analysis map[string]any `json:"analysis"`
	}

	if err := json.Unmarshal(rawLine, &full); err != nil {
		return nil
	}

	if full.Analysis == nil {
		return nil
	}

	if detail, ok := full.Analysis[key].(map[string]any); ok {
		return detail
	}

	return nil
}

func formatDetailValue(value any) string {
	switch val := value.(type) {
	case []any:
		return fmt.Sprintf("%d entries", len(val))
	case string:
		return val
	case float64:
		return fmt.Sprintf("%.2f", val)
	default:
		return fmt.Sprintf("%v", value)
	}
}
