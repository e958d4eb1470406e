// Package diapason estimates the dominant frequency of an audio signal from the byte magnitude spectrum
// of an AnalyserNode-style frequency analyser.
package diapason

import (
	"errors"
	"fmt"

	"github.com/farcloser/diapason/internal/analyser"
	"github.com/farcloser/diapason/internal/types"
)

/*
Usage:

actx, err := diapason.NewContext(44100)
detector, err := actx.NewDetector(source, diapason.DefaultDetectorOptions())

snapshot := make([]byte, detector.FrequencyBinCount())
for {
    reading, err := detector.Pitch(snapshot)
    if errors.Is(err, io.EOF) {
        break
    }
    fmt.Printf("%.1f Hz +/- %.1f\n", reading.Frequency.Value, reading.Frequency.Margin)
}

// Or let the detector own the buffer
for reading, err := range detector.Readings(ctx) {
    ...
}

// Does the tone match?
if reading.Frequency.Within(440) {
    ...
}

*/

// FFTSize is the default transform size. Frequency resolution is sampleRate/FFTSize.
const FFTSize = 2048

var (
	ErrInvalidSampleRate  = errors.New("sample rate must be positive")
	ErrSampleRateMismatch = errors.New("source sample rate does not match the context")
	ErrNilSource          = errors.New("source is required")
)

// Context is the shared analysis context: it fixes the sample rate every detector created from it runs at.
// Create it once at initialization and pass it to whatever needs a detector. It is immutable and safe to share.
type Context struct {
	sampleRate int
}

// NewContext returns a context running at sampleRate Hz.
func NewContext(sampleRate int) (*Context, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	return &Context{sampleRate: sampleRate}, nil
}

// SampleRate in Hz.
func (c *Context) SampleRate() int {
	return c.sampleRate
}

// NewDetector connects src to a new analyser, and the analyser to opts.Sink.
// The connection is made once; the detector then pulls from src on every query.
func (c *Context) NewDetector(src Source, opts DetectorOptions) (*Detector, error) {
	if src == nil {
		return nil, ErrNilSource
	}

	if rate := src.Format().SampleRate; rate != c.sampleRate {
		return nil, fmt.Errorf("%w: source at %d Hz, context at %d Hz", ErrSampleRateMismatch, rate, c.sampleRate)
	}

	applyDetectorDefaults(&opts)

	node, err := analyser.New(analyser.Options{
		FFTSize:               opts.FFTSize,
		SmoothingTimeConstant: opts.Smoothing,
		MinDecibels:           opts.MinDecibels,
		MaxDecibels:           opts.MaxDecibels,
	})
	if err != nil {
		return nil, err
	}

	sink := opts.Sink
	if sink == nil {
		sink = discard{}
	}

	return &Detector{
		context:  c,
		src:      src,
		sink:     sink,
		node:     node,
		hop:      opts.Hop,
		frames:   make([]float64, opts.Hop),
		snapshot: make([]byte, node.FrequencyBinCount()),
	}, nil
}

// Source produces mono frames in [-1, 1].
type Source interface {
	Format() types.PCMFormat
	ReadFrames(dst []float64) (int, error)
}

// Sink receives every frame that went through the analyser (the playback destination).
type Sink interface {
	WriteFrames(frames []float64) error
}

type discard struct{}

func (discard) WriteFrames([]float64) error { return nil }
