//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/diapason/internal/pcm"
	"github.com/farcloser/diapason/internal/types"
)

var errInvalidArgCount = errors.New("expected exactly one argument: file path or \"-\" for stdin")

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Detect the dominant frequency of raw PCM audio",
		ArgsUsage: "<file | ->",
		Flags: append([]cli.Flag{
			// PCMFormat flags.
			&cli.IntFlag{
				Name:     "sample-rate",
				Aliases:  []string{"s"},
				Usage:    "Sample rate in Hz (e.g., 44100, 48000, 96000)",
				Required: true,
				Sources:  cli.EnvVars("DIAPASON_SAMPLE_RATE"),
			},
			&cli.IntFlag{
				Name:    "bit-depth",
				Aliases: []string{"b"},
				Usage:   "Bit depth (16, 24, or 32)",
				Value:   32,
				Sources: cli.EnvVars("DIAPASON_BIT_DEPTH"),
			},
			&cli.IntFlag{
				Name:    "channels",
				Aliases: []string{"c"},
				Usage:   "Number of channels (1 = mono, 2 = stereo)",
				Value:   2,
				Sources: cli.EnvVars("DIAPASON_CHANNELS"),
			},
		}, analysisFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
			}

			format, err := parsePCMFormat(cmd)
			if err != nil {
				return err
			}

			inputPath := cmd.Args().First()

			input, closer, err := openInput(inputPath)
			if err != nil {
				return err
			}
			defer closer()

			source, err := pcm.NewReader(input, format)
			if err != nil {
				return err
			}

			return run(ctx, cmd, inputPath, source)
		},
	}
}

func parsePCMFormat(cmd *cli.Command) (types.PCMFormat, error) {
	bitDepth, err := toBitDepth(cmd.Int("bit-depth"))
	if err != nil {
		return types.PCMFormat{}, fmt.Errorf("--bit-depth: %w", err)
	}

	channels := cmd.Int("channels")
	if channels < 1 {
		return types.PCMFormat{}, fmt.Errorf("--channels: %w", pcm.ErrInvalidChannels)
	}

	return types.PCMFormat{
		SampleRate: cmd.Int("sample-rate"),
		BitDepth:   bitDepth,
		Channels:   uint(channels), //nolint:gosec // validated positive value
	}, nil
}

// openInput streams from stdin or a file. A single pass is enough, so nothing is buffered.
func openInput(source string) (io.Reader, func(), error) {
	if source == "-" {
		return os.Stdin, func() {}, nil
	}

	file, err := os.Open(source) //nolint:gosec // CLI tool opens user-specified audio files
	if err != nil {
		return nil, func() {}, fmt.Errorf("cannot access %s: %w", source, err)
	}

	return file, func() { _ = file.Close() }, nil
}
