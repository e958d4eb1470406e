//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/diapason"
	"github.com/farcloser/diapason/internal/integration/ffmpeg"
	"github.com/farcloser/diapason/internal/integration/ffprobe"
	"github.com/farcloser/diapason/internal/integration/wav"
	"github.com/farcloser/diapason/internal/pcm"
	"github.com/farcloser/diapason/internal/types"
)

var (
	errDetectArgs     = errors.New("expected exactly one argument: file path")
	errUnknownDecoder = errors.New("decoder must be auto, wav, or ffmpeg")
)

const (
	decoderAuto   = "auto"
	decoderWAV    = "wav"
	decoderFFmpeg = "ffmpeg"
)

func detectCommand() *cli.Command {
	return &cli.Command{
		Name:      "detect",
		Usage:     "Decode an audio file and detect its dominant frequency",
		ArgsUsage: "<file>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "decoder",
				Usage:   "Decoder: auto (native WAV, ffmpeg otherwise), wav, ffmpeg",
				Value:   decoderAuto,
				Sources: cli.EnvVars("DIAPASON_DECODER"),
			},
			&cli.IntFlag{
				Name:    "stream",
				Usage:   "Audio stream index (0-based), ffmpeg decoder only",
				Value:   0,
				Sources: cli.EnvVars("DIAPASON_STREAM"),
			},
		}, analysisFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errDetectArgs, cmd.NArg())
			}

			filePath := cmd.Args().First()

			source, closer, err := openSource(ctx, filePath, cmd.String("decoder"), cmd.Int("stream"))
			if err != nil {
				return err
			}

			runErr := run(ctx, cmd, filePath, source)

			return errors.Join(runErr, closer())
		},
	}
}

// openSource picks a decoder for filePath. In auto mode, files that are not valid WAV fall back to ffmpeg.
func openSource(
	ctx context.Context,
	filePath, decoder string,
	streamIndex int,
) (diapason.Source, func() error, error) {
	switch decoder {
	case decoderWAV:
		return openWAV(filePath)
	case decoderFFmpeg:
		return openFFmpeg(ctx, filePath, streamIndex)
	case decoderAuto:
		if !strings.EqualFold(filepath.Ext(filePath), ".wav") {
			return openFFmpeg(ctx, filePath, streamIndex)
		}

		source, closer, err := openWAV(filePath)
		if errors.Is(err, wav.ErrInvalidFile) {
			slog.Debug("detect.openSource", "file path", filePath, "fallback", decoderFFmpeg)

			return openFFmpeg(ctx, filePath, streamIndex)
		}

		return source, closer, err
	default:
		return nil, nil, fmt.Errorf("%w: %q", errUnknownDecoder, decoder)
	}
}

func openWAV(filePath string) (diapason.Source, func() error, error) {
	file, err := os.Open(filePath) //nolint:gosec // CLI tool opens user-specified audio files
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}

	reader, err := wav.NewReader(file)
	if err != nil {
		_ = file.Close()

		return nil, nil, err
	}

	return reader, file.Close, nil
}

func openFFmpeg(ctx context.Context, filePath string, streamIndex int) (diapason.Source, func() error, error) {
	probeResult, err := ffprobe.Probe(ctx, filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("probing file: %w", err)
	}

	stream, err := probeResult.AudioStream(streamIndex)
	if err != nil {
		return nil, nil, err
	}

	format, err := buildPCMFormat(stream)
	if err != nil {
		return nil, nil, err
	}

	decoded, err := ffmpeg.Open(ctx, filePath, streamIndex, format)
	if err != nil {
		return nil, nil, fmt.Errorf("extracting PCM: %w", err)
	}

	reader, err := pcm.NewReader(decoded, format)
	if err != nil {
		_ = decoded.Close()

		return nil, nil, err
	}

	return reader, decoded.Close, nil
}

// buildPCMFormat asks ffmpeg for 32-bit samples at the stream's native rate and layout.
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
