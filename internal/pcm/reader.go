// Package pcm decodes interleaved signed little-endian PCM into mono float frames.
package pcm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/diapason/internal/types"
)

var (
	ErrUnsupportedBitDepth = errors.New("unsupported bit depth (valid: 16, 24, 32)")
	ErrInvalidChannels     = errors.New("channel count must be positive")
	ErrInvalidSampleRate   = errors.New("sample rate must be positive")
)

// Validate checks that a format can be decoded.
func Validate(format types.PCMFormat) error {
	if format.SampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, format.SampleRate)
	}

	if MaxValue(format.BitDepth) == 0 {
		return fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, format.BitDepth)
	}

	if format.Channels == 0 {
		return ErrInvalidChannels
	}

	return nil
}

// Reader averages all channels of each frame into a single sample in [-1, 1).
type Reader struct {
	src       io.Reader
	format    types.PCMFormat
	frameSize int
	maxValue  float64
	buf       []byte
}

// NewReader wraps src, which must produce frames in the given format.
func NewReader(src io.Reader, format types.PCMFormat) (*Reader, error) {
	if err := Validate(format); err != nil {
		return nil, err
	}

	return &Reader{
		src:       src,
		format:    format,
		frameSize: format.FrameSize(),
		maxValue:  MaxValue(format.BitDepth),
	}, nil
}

// Format returns the source format.
func (r *Reader) Format() types.PCMFormat {
	return r.format
}

// ReadFrames fills dst with up to len(dst) mono frames.
// A frame split across reads of the underlying reader is reassembled. A trailing partial frame at the end of the
// stream is dropped. Returns io.EOF once no complete frame is left.
func (r *Reader) ReadFrames(dst []float64) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	need := len(dst) * r.frameSize
	if cap(r.buf) < need {
		r.buf = make([]byte, need)
	}

	buf := r.buf[:need]

	n, err := io.ReadFull(r.src, buf)
	frames := n / r.frameSize

	r.decode(buf[:frames*r.frameSize], dst[:frames])

	switch {
	case err == nil:
		return frames, nil
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		if frames > 0 {
			return frames, nil
		}

		return 0, io.EOF
	default:
		return frames, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}
}

func (r *Reader) decode(data []byte, dst []float64) {
	numChannels := int(r.format.Channels) //nolint:gosec // validated positive value
	scale := r.maxValue * float64(numChannels)

	frame := 0

	switch r.format.BitDepth {
	case types.Depth16:
		for i := 0; i < len(data); i += r.frameSize {
			var sum float64
			for ch := range numChannels {
				sum += float64(int16(binary.LittleEndian.Uint16(data[i+ch*2:]))) //nolint:gosec // two's complement reinterpretation
			}

			dst[frame] = sum / scale
			frame++
		}
	case types.Depth24:
		for i := 0; i < len(data); i += r.frameSize {
			var sum float64
			for ch := range numChannels {
				offset := i + ch*3
				raw := int32(data[offset]) | int32(data[offset+1])<<8 | int32(data[offset+2])<<16
				if raw&0x800000 != 0 {
					raw |= ^0xFFFFFF
				}

				sum += float64(raw)
			}

			dst[frame] = sum / scale
			frame++
		}
	case types.Depth32:
		for i := 0; i < len(data); i += r.frameSize {
			var sum float64
			for ch := range numChannels {
				sum += float64(int32(binary.LittleEndian.Uint32(data[i+ch*4:]))) //nolint:gosec // two's complement reinterpretation
			}

			dst[frame] = sum / scale
			frame++
		}
	}
}
