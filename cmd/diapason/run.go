package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/diapason"
	"github.com/farcloser/diapason/internal/integration/wav"
)

var (
	errMismatch = errors.New("dominant frequency does not match the expected frequency")
	errUnvoiced = errors.New("no reading loud enough to compare with the expected frequency")
)

// run analyzes source, prints the result, and enforces --expect.
func run(ctx context.Context, cmd *cli.Command, label string, source diapason.Source) error {
	opts, err := parseOptions(cmd)
	if err != nil {
		return err
	}

	rate := source.Format().SampleRate

	actx, err := diapason.NewContext(rate)
	if err != nil {
		return err //nolint:wrapcheck
	}

	var monitor *monitorSink

	if path := cmd.String("monitor"); path != "" {
		monitor, err = openMonitor(path, rate)
		if err != nil {
			return err
		}

		opts.Detector.Sink = monitor
	}

	result, err := diapason.Analyze(ctx, actx, source, opts)

	if monitor != nil {
		err = errors.Join(err, monitor.Close())
	}

	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if err = outputResult(label, result, cmd.String("format"), cmd.Bool("debug")); err != nil {
		return err
	}

	switch result.Verdict {
	case diapason.VerdictMismatch:
		return fmt.Errorf("%w: median %.2f Hz, expected %.2f Hz (+/- %.2f Hz)",
			errMismatch, result.Summary.Median.Value, result.Expected, result.Summary.Median.Margin)
	case diapason.VerdictUnvoiced:
		return errUnvoiced
	case diapason.VerdictNone, diapason.VerdictMatch:
	}

	return nil
}

// monitorSink records every analysed frame to a 16-bit mono WAV file.
type monitorSink struct {
	*wav.Writer

	file *os.File
}

func openMonitor(path string, sampleRate int) (*monitorSink, error) {
	file, err := os.Create(path) //nolint:gosec // CLI tool writes to a user-specified path
	if err != nil {
		return nil, fmt.Errorf("creating monitor file: %w", err)
	}

	return &monitorSink{Writer: wav.NewWriter(file, sampleRate), file: file}, nil
}

func (m *monitorSink) Close() error {
	return errors.Join(m.Writer.Close(), m.file.Close())
}
