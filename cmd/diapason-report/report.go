//nolint:wrapcheck
package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/farcloser/diapason"
	"github.com/farcloser/diapason/internal/integration/ffmpeg"
	"github.com/farcloser/diapason/internal/integration/ffprobe"
	"github.com/farcloser/diapason/internal/output"
	"github.com/farcloser/diapason/internal/pcm"
	"github.com/farcloser/diapason/internal/types"
)

const outputFile = "diapason-report.jsonl"

var (
	errReportArgs   = errors.New("expected exactly one argument: folder path")
	errNotDirectory = errors.New("not a directory")
	errNoAudioFiles = errors.New("no audio files found")
)

//nolint:gochecknoglobals
var audioExtensions = []string{".flac", ".m4a", ".mp3", ".ogg", ".opus", ".wav"}

func reportCommand() *cli.Command {
	defaults := diapason.DefaultOptions()

	return &cli.Command{
		Name:      "report",
		Usage:     "Scan a collection and write a dominant frequency JSONL report",
		ArgsUsage: "<folder>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "redact-path",
				Usage: "Strip file paths from the report",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Number of concurrent workers",
				Value:   runtime.NumCPU(),
			},
			&cli.IntFlag{
				Name:    "fft-size",
				Usage:   "Analyser FFT size",
				Value:   defaults.Detector.FFTSize,
				Sources: cli.EnvVars("DIAPASON_FFT_SIZE"),
			},
			&cli.FloatFlag{
				Name:    "expect",
				Usage:   "Expected frequency in Hz for every file",
				Sources: cli.EnvVars("DIAPASON_EXPECT"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errReportArgs
			}

			opts := diapason.DefaultOptions()
			opts.Detector.FFTSize = cmd.Int("fft-size")
			opts.Expect = cmd.Float("expect")

			return runReport(ctx, cmd.Args().First(), cmd.Bool("redact-path"), max(cmd.Int("workers"), 1), opts)
		},
	}
}

func runReport(ctx context.Context, folder string, redact bool, workers int, opts diapason.Options) error {
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%q: %w", folder, errNotDirectory)
	}

	files, err := collectAudioFiles(folder)
	if err != nil {
		return fmt.Errorf("scanning folder: %w", err)
	}

	if len(files) == 0 {
		return fmt.Errorf("%q: %w", folder, errNoAudioFiles)
	}

	fmt.Fprintf(os.Stderr, "Found %d files to analyze (%d workers)\n", len(files), workers)

	startTime := time.Now()
	results := make([]Record, len(files))

	var progress atomic.Int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for idx, filePath := range files {
		group.Go(func() error {
			results[idx] = processFile(groupCtx, filePath, opts)

			done := progress.Add(1)
			fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", done, len(files), filePath)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	// Write results in file order.
	failed, totalProbe, totalDetect, err := writeReport(outputFile, results, redact)
	if err != nil {
		return err
	}

	if err := compressFile(outputFile); err != nil {
		slog.Error("compressing report", "error", err)
	}

	elapsed := time.Since(startTime)
	minutes := int(elapsed.Minutes())
	seconds := int(elapsed.Seconds()) % 60

	fmt.Fprintf(os.Stderr, "\nDone: %d files in %dm %ds (%d failed)\n", len(files), minutes, seconds, failed)
	fmt.Fprintf(os.Stderr, "Report written to %s (and %s.gz)\n", outputFile, outputFile)

	analyzed := len(files) - failed
	fmt.Fprintf(os.Stderr, "\n--- Timing ---\n")
	fmt.Fprintf(os.Stderr, "  Wall clock:  %s\n", elapsed.Truncate(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  ffprobe:     %s (cumulative)\n", totalProbe.Truncate(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  detection:   %s (cumulative)\n", totalDetect.Truncate(time.Millisecond))

	if analyzed > 0 {
		fmt.Fprintf(os.Stderr, "  avg/file:    %s (probe: %s, detect: %s)\n",
			(totalProbe+totalDetect)/time.Duration(analyzed),
			totalProbe/time.Duration(analyzed),
			totalDetect/time.Duration(analyzed),
		)
	}

	fmt.Fprintln(os.Stderr)

	return runDigest(outputFile, "")
}

func writeReport(path string, results []Record, redact bool) (int, time.Duration, time.Duration, error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	failed := 0

	var totalProbe, totalDetect time.Duration

	for idx := range results {
		record := &results[idx]

		if record.Error != "" {
			failed++
		}

		if record.Timing != nil {
			totalProbe += millisToDuration(record.Timing.ProbeMs)
			totalDetect += millisToDuration(record.Timing.DetectMs)
		}

		file := record.File

		if redact {
			record.File = ""
			record.Probe = redactProbe(record.Probe)
		}

		if err := enc.Encode(record); err != nil {
			slog.Error("writing record", "file", file, "error", err)
		}
	}

	return failed, totalProbe, totalDetect, out.Close()
}

func processFile(ctx context.Context, filePath string, opts diapason.Options) Record {
	fileStart := time.Now()
	timing := &RecordTiming{}

	probeStart := time.Now()

	probeResult, err := ffprobe.Probe(ctx, filePath)

	timing.ProbeMs = durationMs(time.Since(probeStart))

	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("probe failed: %v", err), Timing: timing}
	}

	stream, err := probeResult.AudioStream(0)
	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("no audio stream: %v", err), Timing: timing}
	}

	format, err := buildPCMFormat(stream)
	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("format error: %v", err), Timing: timing}
	}

	detectStart := time.Now()

	result, err := detect(ctx, filePath, format, opts)

	timing.DetectMs = durationMs(time.Since(detectStart))
	timing.TotalMs = durationMs(time.Since(fileStart))

	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("detection failed: %v", err), Timing: timing}
	}

	analysis := output.ResultToMap(result)
	// Per-reading data is too large for a collection report.
	delete(analysis, "readings")

	record := Record{
		File:     filePath,
		Analysis: analysis,
		Timing:   timing,
	}

	probeJSON, err := json.Marshal(probeResult)
	if err == nil {
		record.Probe = probeJSON
	} else {
		record.ProbeError = "probe serialization failed"
	}

	return record
}

// detect streams the decoded audio straight into the analyser. Each call owns its context and detector.
func detect(ctx context.Context, filePath string, format types.PCMFormat, opts diapason.Options) (*diapason.Result, error) {
	actx, err := diapason.NewContext(format.SampleRate)
	if err != nil {
		return nil, err
	}

	decoded, err := ffmpeg.Open(ctx, filePath, 0, format)
	if err != nil {
		return nil, err
	}

	reader, err := pcm.NewReader(decoded, format)
	if err != nil {
		return nil, errors.Join(err, decoded.Close())
	}

	result, err := diapason.Analyze(ctx, actx, reader, opts)

	// Drain so that a truncated decode surfaces as an ffmpeg failure rather than a short analysis.
	if err == nil {
		_, err = io.Copy(io.Discard, decoded)
	}

	return result, errors.Join(err, decoded.Close())
}

func buildPCMFormat(stream *ffprobe.Stream) (types.PCMFormat, error) {
	sampleRate, err := stream.Rate()
	if err != nil {
		return types.PCMFormat{}, err
	}

	channels, err := stream.ChannelCount()
	if err != nil {
		return types.PCMFormat{}, err
	}

	return types.PCMFormat{
		SampleRate: sampleRate,
		BitDepth:   types.Depth32,
		Channels:   channels,
	}, nil
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func millisToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func collectAudioFiles(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if slices.Contains(audioExtensions, strings.ToLower(filepath.Ext(path))) {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)

	return files, nil
}

func compressFile(path string) error {
	src, err := os.Open(path) //nolint:gosec // reading our own output file
	if err != nil {
		return err
	}
	defer src.Close()

	gzFile, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer gzFile.Close()

	gzWriter := gzip.NewWriter(gzFile)

	if _, err := io.Copy(gzWriter, src); err != nil {
		return err
	}

	if err := gzWriter.Close(); err != nil {
		return err
	}

	return gzFile.Close()
}

func redactProbe(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}

	var probe map[string]any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return raw
	}

	if format, ok := probe["format"].(map[string]any); ok {
		delete(format, "filename")
	}

	redacted, err := json.Marshal(probe)
	if err != nil {
		return raw
	}

	return redacted
}
