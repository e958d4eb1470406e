// Package wav reads and writes RIFF/WAVE files as mono float frames.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/farcloser/primordium/fault"
	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
	"github.com/go-audio/wav"

	"github.com/farcloser/diapason/internal/types"
)

const (
	// pcmFormat is the WAVE_FORMAT_PCM format tag.
	pcmFormat = 1
	// extensibleFormat is WAVE_FORMAT_EXTENSIBLE; the real tag is the head of the sub-format GUID.
	extensibleFormat = 0xFFFE
	subFormatOffset  = 24
	// monitorDepth is the bit depth of files written by Writer.
	monitorDepth = 16
)

var ErrInvalidFile = errors.New("not a valid wav file")

// Reader decodes a WAV stream, down-mixing to mono.
type Reader struct {
	decoder  *wav.Decoder
	format   types.PCMFormat
	maxValue float64
	buf      *audio.IntBuffer
}

// NewReader validates the header of src and positions it at the start of the PCM data.
// Only integer PCM is accepted: float and compressed encodings are ErrInvalidFile.
func NewReader(src io.ReadSeeker) (*Reader, error) {
	tag, err := formatTag(src)
	if err != nil {
		return nil, err
	}

	if tag != pcmFormat {
		return nil, fmt.Errorf("%w: unsupported format tag %#x", ErrInvalidFile, tag)
	}

	if _, err = src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	decoder := wav.NewDecoder(src)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidFile
	}

	if err := decoder.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	format := types.PCMFormat{
		SampleRate: int(decoder.SampleRate),
		BitDepth:   types.BitDepth(decoder.BitDepth),
		Channels:   uint(decoder.NumChans),
	}

	if format.Channels == 0 || format.BitDepth == 0 {
		return nil, fmt.Errorf("%w: %d channels, %d bits", ErrInvalidFile, format.Channels, format.BitDepth)
	}

	slog.Debug("wav.NewReader", "sample rate", format.SampleRate, "bit depth", format.BitDepth,
		"channels", format.Channels)

	return &Reader{
		decoder:  decoder,
		format:   format,
		maxValue: float64(int64(1) << (format.BitDepth - 1)),
		buf:      &audio.IntBuffer{},
	}, nil
}

// formatTag walks the RIFF chunks up to "fmt " and returns its format tag, resolving WAVE_FORMAT_EXTENSIBLE.
func formatTag(src io.Reader) (uint16, error) {
	parser := riff.New(src)
	if err := parser.ParseHeaders(); err != nil || parser.Format != riff.WavFormatID {
		return 0, ErrInvalidFile
	}

	for {
		chunk, err := parser.NextChunk()
		if err != nil {
			return 0, fmt.Errorf("%w: no fmt chunk", ErrInvalidFile)
		}

		if chunk.ID != riff.FmtID {
			chunk.Drain()

			continue
		}

		body := make([]byte, chunk.Size)
		if _, err = io.ReadFull(chunk, body); err != nil || len(body) < 2 {
			return 0, fmt.Errorf("%w: truncated fmt chunk", ErrInvalidFile)
		}

		tag := binary.LittleEndian.Uint16(body)
		if tag == extensibleFormat {
			if len(body) < subFormatOffset+2 {
				return 0, fmt.Errorf("%w: truncated extensible fmt chunk", ErrInvalidFile)
			}

			tag = binary.LittleEndian.Uint16(body[subFormatOffset:])
		}

		return tag, nil
	}
}

// Format reports the header format. BitDepth may be 8, which the raw PCM reader does not accept.
func (r *Reader) Format() types.PCMFormat {
	return r.format
}

// ReadFrames fills dst with up to len(dst) mono frames. Returns io.EOF once the data chunk is exhausted.
func (r *Reader) ReadFrames(dst []float64) (int, error) {
	channels := int(r.format.Channels) //nolint:gosec // small header value

	need := len(dst) * channels
	if cap(r.buf.Data) < need {
		r.buf.Data = make([]int, need)
	}

	r.buf.Data = r.buf.Data[:need]

	n, err := r.decoder.PCMBuffer(r.buf)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	frames := n / channels
	if frames == 0 {
		return 0, io.EOF
	}

	// 8-bit WAV is unsigned, centered on 128.
	var offset float64
	if r.format.BitDepth == 8 {
		offset = 128
	}

	scale := r.maxValue * float64(channels)

	for frame := range frames {
		var sum float64
		for ch := range channels {
			sum += float64(r.buf.Data[frame*channels+ch]) - offset
		}

		dst[frame] = sum / scale
	}

	return frames, nil
}

// Writer encodes mono frames into a 16-bit WAV file.
type Writer struct {
	encoder *wav.Encoder
	buf     *audio.IntBuffer
}

// NewWriter starts a mono 16-bit WAV file on dst. Close must be called to finalise the header.
func NewWriter(dst io.WriteSeeker, sampleRate int) *Writer {
	return &Writer{
		encoder: wav.NewEncoder(dst, sampleRate, monitorDepth, 1, pcmFormat),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: monitorDepth,
		},
	}
}

// WriteFrames appends frames, clamped to [-1, 1].
func (w *Writer) WriteFrames(frames []float64) error {
	if cap(w.buf.Data) < len(frames) {
		w.buf.Data = make([]int, len(frames))
	}

	w.buf.Data = w.buf.Data[:len(frames)]

	for i, v := range frames {
		v = max(-1, min(1, v))
		w.buf.Data[i] = int(v * 32767)
	}

	if err := w.encoder.Write(w.buf); err != nil {
		return fmt.Errorf("writing wav frames: %w", err)
	}

	return nil
}

// Close finalises the WAV header. The underlying writer is not closed.
func (w *Writer) Close() error {
	if err := w.encoder.Close(); err != nil {
		return fmt.Errorf("finalising wav: %w", err)
	}

	return nil
}
