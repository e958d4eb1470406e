package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/diapason"
	"github.com/farcloser/diapason/internal/types"
)

var (
	errInvalidBitDepth = errors.New("must be 16, 24, or 32")
	errInvalidMinLevel = errors.New("must be between 1 and 255")
)

// analysisFlags are shared by analyze and detect.
func analysisFlags() []cli.Flag {
	defaults := diapason.DefaultOptions()

	return []cli.Flag{
		&cli.IntFlag{
			Name:    "fft-size",
			Usage:   "Analyser FFT size, a power of two between 32 and 32768",
			Value:   defaults.Detector.FFTSize,
			Sources: cli.EnvVars("DIAPASON_FFT_SIZE"),
		},
		&cli.FloatFlag{
			Name:    "smoothing",
			Usage:   "Smoothing time constant up to 1; 0 keeps the default, negative disables smoothing",
			Value:   defaults.Detector.Smoothing,
			Sources: cli.EnvVars("DIAPASON_SMOOTHING"),
		},
		&cli.FloatFlag{
			Name:    "min-db",
			Usage:   "Level mapped to byte magnitude 0",
			Value:   defaults.Detector.MinDecibels,
			Sources: cli.EnvVars("DIAPASON_MIN_DB"),
		},
		&cli.FloatFlag{
			Name:    "max-db",
			Usage:   "Level mapped to byte magnitude 255",
			Value:   defaults.Detector.MaxDecibels,
			Sources: cli.EnvVars("DIAPASON_MAX_DB"),
		},
		&cli.IntFlag{
			Name:    "hop",
			Usage:   "Frames fed to the analyser between readings (defaults to --fft-size)",
			Sources: cli.EnvVars("DIAPASON_HOP"),
		},
		&cli.IntFlag{
			Name:    "min-level",
			Usage:   "Byte magnitude below which a reading is treated as silence",
			Value:   int(defaults.Summary.MinLevel),
			Sources: cli.EnvVars("DIAPASON_MIN_LEVEL"),
		},
		&cli.FloatFlag{
			Name:    "expect",
			Usage:   "Expected frequency in Hz; fail when the median reading is further than one bin away",
			Sources: cli.EnvVars("DIAPASON_EXPECT"),
		},
		&cli.StringFlag{
			Name:    "monitor",
			Usage:   "Write the analysed signal to this WAV file",
			Sources: cli.EnvVars("DIAPASON_MONITOR"),
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: console, json, markdown",
			Value:   "console",
			Sources: cli.EnvVars("DIAPASON_FORMAT"),
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"D"},
			Usage:   "Include every reading and spectrum statistics in output",
			Sources: cli.EnvVars("DIAPASON_DEBUG"),
		},
	}
}

func parseOptions(cmd *cli.Command) (diapason.Options, error) {
	minLevel := cmd.Int("min-level")
	if minLevel < 1 || minLevel > 255 {
		return diapason.Options{}, fmt.Errorf("--min-level: %w", errInvalidMinLevel)
	}

	opts := diapason.DefaultOptions()
	opts.Detector.FFTSize = cmd.Int("fft-size")
	opts.Detector.Smoothing = cmd.Float("smoothing")
	opts.Detector.MinDecibels = cmd.Float("min-db")
	opts.Detector.MaxDecibels = cmd.Float("max-db")
	opts.Detector.Hop = cmd.Int("hop")
	opts.Summary.MinLevel = byte(minLevel)
	opts.Expect = cmd.Float("expect")

	return opts, nil
}

func toBitDepth(v int) (types.BitDepth, error) {
	switch v {
	case 16:
		return types.Depth16, nil
	case 24:
		return types.Depth24, nil
	case 32:
		return types.Depth32, nil
	default:
		return 0, errInvalidBitDepth
	}
}
