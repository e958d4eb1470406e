package diapason

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/farcloser/diapason/internal/analyser"
	"github.com/farcloser/diapason/internal/estimate"
	"github.com/farcloser/diapason/internal/level"
	"github.com/farcloser/diapason/internal/spectrum"
	"github.com/farcloser/diapason/internal/types"
)

var (
	ErrEmptySnapshot = errors.New("snapshot buffer is empty")
	ErrSnapshotSize  = errors.New("snapshot buffer length must equal the frequency bin count")
)

// DetectorOptions configures a detector.
type DetectorOptions struct {
	FFTSize     int     // default 2048
	Smoothing   float64 // smoothing time constant, default 0.8; negative disables smoothing
	MinDecibels float64 // default -100
	MaxDecibels float64 // default -30
	Hop         int     // frames pulled from the source per query, default FFTSize
	Sink        Sink    // default: discard
}

// DefaultDetectorOptions mirrors AnalyserNode defaults with a 2048 FFT.
func DefaultDetectorOptions() DetectorOptions {
	defaults := analyser.DefaultOptions()

	return DetectorOptions{
		FFTSize:     FFTSize,
		Smoothing:   defaults.SmoothingTimeConstant,
		MinDecibels: defaults.MinDecibels,
		MaxDecibels: defaults.MaxDecibels,
		Hop:         FFTSize,
	}
}

func applyDetectorDefaults(opts *DetectorOptions) {
	defaults := DefaultDetectorOptions()

	if opts.FFTSize == 0 {
		opts.FFTSize = defaults.FFTSize
	}

	if opts.Hop <= 0 {
		opts.Hop = opts.FFTSize
	}
}

// Detector pulls audio from its source through an analyser and reports the dominant frequency.
// It is not safe for concurrent use.
type Detector struct {
	context *Context
	src     Source
	sink    Sink
	node    *analyser.Analyser
	meter   level.Meter
	hop     int

	frames   []float64
	snapshot []byte
	position uint64
}

// FFTSize is the analyser transform size.
func (d *Detector) FFTSize() int {
	return d.node.FFTSize()
}

// FrequencyBinCount is the snapshot length Pitch expects.
func (d *Detector) FrequencyBinCount() int {
	return d.node.FrequencyBinCount()
}

// Position is the number of frames consumed from the source so far.
func (d *Detector) Position() uint64 {
	return d.position
}

// Pitch advances the source by one hop, refreshes snapshot with the analyser's byte frequency data and returns the
// dominant frequency. The snapshot is owned by the caller and must be FrequencyBinCount long; its content is only
// valid until the next call. Returns io.EOF once the source is exhausted.
func (d *Detector) Pitch(snapshot []byte) (types.Reading, error) {
	switch {
	case len(snapshot) == 0:
		return types.Reading{}, ErrEmptySnapshot
	case len(snapshot) != d.FrequencyBinCount():
		return types.Reading{}, fmt.Errorf("%w: got %d, want %d", ErrSnapshotSize, len(snapshot), d.FrequencyBinCount())
	}

	read, err := d.pull()
	if read == 0 {
		return types.Reading{}, err
	}

	d.node.Write(d.frames[:read])
	d.meter.Add(d.frames[:read])

	if sinkErr := d.sink.WriteFrames(d.frames[:read]); sinkErr != nil {
		return types.Reading{}, fmt.Errorf("writing to sink: %w", sinkErr)
	}

	d.position += uint64(read)

	d.node.ByteFrequencyData(snapshot)

	rate := float64(d.context.sampleRate)
	bin, level := estimate.Dominant(snapshot)

	return types.Reading{
		Frame:     d.position,
		Time:      time.Duration(float64(d.position) / rate * float64(time.Second)),
		Bin:       bin,
		Level:     level,
		Frequency: estimate.AtBin(bin, rate, d.node.FFTSize()),
	}, nil
}

// Spectrum describes the magnitude spectrum computed by the last query.
func (d *Detector) Spectrum() types.SpectrumStats {
	return spectrum.Describe(d.node.Magnitudes(), float64(d.context.sampleRate))
}

// Level measures every frame consumed so far.
func (d *Detector) Level() types.LevelResult {
	return d.meter.Result()
}

// Readings queries the detector until the source is exhausted, ctx is done, or an error occurs.
// The detector's own snapshot buffer is reused across iterations.
func (d *Detector) Readings(ctx context.Context) iter.Seq2[types.Reading, error] {
	return func(yield func(types.Reading, error) bool) {
		for {
			if err := ctx.Err(); err != nil {
				yield(types.Reading{}, err)

				return
			}

			reading, err := d.Pitch(d.snapshot)
			if errors.Is(err, io.EOF) {
				return
			}

			if !yield(reading, err) || err != nil {
				return
			}
		}
	}
}

// Track builds a detector on src and collects every reading until the source is exhausted.
func Track(ctx context.Context, actx *Context, src Source, opts DetectorOptions) ([]types.Reading, error) {
	detector, err := actx.NewDetector(src, opts)
	if err != nil {
		return nil, err
	}

	return collect(ctx, detector)
}

// pull reads up to one hop of frames, tolerating short reads. Returns io.EOF only when nothing was read.
func (d *Detector) pull() (int, error) {
	read := 0

	for read < d.hop {
		n, err := d.src.ReadFrames(d.frames[read:d.hop])
		read += n

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return 0, fmt.Errorf("reading source: %w", err)
		}

		// A source that makes no progress is done.
		if n == 0 {
			break
		}
	}

	if read == 0 {
		return 0, io.EOF
	}

	return read, nil
}
