// Package analyser is a real-time frequency analysis node.
//
// It keeps the most recent FFTSize mono frames and, on every query, transforms them into a
// magnitude spectrum the way a Web Audio AnalyserNode does:
//
//  1. Blackman window over the last FFTSize frames
//  2. real FFT, magnitudes scaled by 1/FFTSize
//  3. smoothing over time: X[k] = tau * Xprev[k] + (1 - tau) * |X[k]|
//  4. conversion to dB, then (for byte data) linear mapping of [MinDecibels, MaxDecibels] onto [0, 255]
package analyser

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	MinFFTSize = 32
	MaxFFTSize = 32768
)

var (
	ErrInvalidFFTSize      = errors.New("fft size must be a power of two between 32 and 32768")
	ErrInvalidSmoothing    = errors.New("smoothing time constant must be between 0 and 1")
	ErrInvalidDecibelRange = errors.New("min decibels must be lower than max decibels")
)

// Options configures the analyser.
type Options struct {
	FFTSize               int     // default 2048
	SmoothingTimeConstant float64 // default 0.8; negative means 0 (no smoothing)
	MinDecibels           float64 // default -100
	MaxDecibels           float64 // default -30
}

func DefaultOptions() Options {
	return Options{
		FFTSize:               2048,
		SmoothingTimeConstant: 0.8,
		MinDecibels:           -100,
		MaxDecibels:           -30,
	}
}

func applyDefaults(opts *Options) {
	defaults := DefaultOptions()

	if opts.FFTSize == 0 {
		opts.FFTSize = defaults.FFTSize
	}

	if opts.SmoothingTimeConstant == 0 {
		opts.SmoothingTimeConstant = defaults.SmoothingTimeConstant
	} else if opts.SmoothingTimeConstant < 0 {
		opts.SmoothingTimeConstant = 0
	}

	if opts.MinDecibels == 0 && opts.MaxDecibels == 0 {
		opts.MinDecibels = defaults.MinDecibels
		opts.MaxDecibels = defaults.MaxDecibels
	}
}

func validate(opts Options) error {
	if opts.FFTSize < MinFFTSize || opts.FFTSize > MaxFFTSize || opts.FFTSize&(opts.FFTSize-1) != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFFTSize, opts.FFTSize)
	}

	if opts.SmoothingTimeConstant > 1 || math.IsNaN(opts.SmoothingTimeConstant) {
		return fmt.Errorf("%w: %v", ErrInvalidSmoothing, opts.SmoothingTimeConstant)
	}

	if opts.MinDecibels >= opts.MaxDecibels {
		return fmt.Errorf("%w: %v >= %v", ErrInvalidDecibelRange, opts.MinDecibels, opts.MaxDecibels)
	}

	return nil
}

// Analyser is not safe for concurrent use.
type Analyser struct {
	opts Options

	fft    *fourier.FFT
	window window.Values

	// ring holds the last FFTSize frames, oldest at pos.
	ring []float64
	pos  int

	windowed []float64
	coeffs   []complex128
	smoothed []float64 // FFTSize/2+1 bins, linear
}

// New returns an analyser fed with silence.
func New(opts Options) (*Analyser, error) {
	applyDefaults(&opts)

	if err := validate(opts); err != nil {
		return nil, err
	}

	size := opts.FFTSize

	return &Analyser{
		opts:     opts,
		fft:      fourier.NewFFT(size),
		window:   window.NewValues(window.Blackman, size),
		ring:     make([]float64, size),
		windowed: make([]float64, size),
		coeffs:   make([]complex128, size/2+1),
		smoothed: make([]float64, size/2+1),
	}, nil
}

// Options returns the effective configuration.
func (a *Analyser) Options() Options {
	return a.opts
}

// FFTSize is the transform size.
func (a *Analyser) FFTSize() int {
	return a.opts.FFTSize
}

// FrequencyBinCount is half the FFT size: the length of a frequency snapshot.
func (a *Analyser) FrequencyBinCount() int {
	return a.opts.FFTSize / 2
}

// Write pushes mono frames; only the last FFTSize frames are retained.
func (a *Analyser) Write(frames []float64) {
	size := len(a.ring)

	if len(frames) >= size {
		copy(a.ring, frames[len(frames)-size:])
		a.pos = 0

		return
	}

	for _, v := range frames {
		a.ring[a.pos] = v
		a.pos = (a.pos + 1) % size
	}
}

// ByteFrequencyData fills dst with the current spectrum quantised to [0, 255].
// At most FrequencyBinCount values are written; extra elements of dst are left untouched.
func (a *Analyser) ByteFrequencyData(dst []byte) {
	a.analyse()

	scale := 255 / (a.opts.MaxDecibels - a.opts.MinDecibels)
	count := min(len(dst), a.FrequencyBinCount())

	for i := range count {
		scaled := scale * (toDb(a.smoothed[i]) - a.opts.MinDecibels)

		switch {
		case scaled <= 0 || math.IsNaN(scaled):
			dst[i] = 0
		case scaled >= 255:
			dst[i] = 255
		default:
			dst[i] = byte(scaled)
		}
	}
}

// FloatFrequencyData fills dst with the current spectrum in dB.
func (a *Analyser) FloatFrequencyData(dst []float32) {
	a.analyse()

	count := min(len(dst), a.FrequencyBinCount())
	for i := range count {
		dst[i] = float32(toDb(a.smoothed[i]))
	}
}

// ByteTimeDomainData fills dst with the most recent waveform, 128 being zero.
func (a *Analyser) ByteTimeDomainData(dst []byte) {
	size := len(a.ring)
	count := min(len(dst), size)

	for i := range count {
		v := 128 * (1 + a.ring[(a.pos+size-count+i)%size])

		switch {
		case v <= 0:
			dst[i] = 0
		case v >= 255:
			dst[i] = 255
		default:
			dst[i] = byte(v)
		}
	}
}

// Magnitudes returns the smoothed linear magnitudes of the last query, DC to Nyquist (FFTSize/2+1 bins).
// The slice is owned by the analyser and overwritten by the next query.
func (a *Analyser) Magnitudes() []float64 {
	return a.smoothed
}

func (a *Analyser) analyse() {
	size := len(a.ring)

	// Unroll the ring so the oldest frame comes first.
	n := copy(a.windowed, a.ring[a.pos:])
	copy(a.windowed[n:], a.ring[:a.pos])

	a.window.Transform(a.windowed)
	a.fft.Coefficients(a.coeffs, a.windowed)

	tau := a.opts.SmoothingTimeConstant
	norm := 1 / float64(size)

	for k, c := range a.coeffs {
		magnitude := cmplx.Abs(c) * norm
		smoothed := tau*a.smoothed[k] + (1-tau)*magnitude

		if math.IsNaN(smoothed) || math.IsInf(smoothed, 0) {
			smoothed = 0
		}

		a.smoothed[k] = smoothed
	}
}

func toDb(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(v)
}
