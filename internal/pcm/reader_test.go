package pcm_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/farcloser/primordium/fault"
	"gotest.tools/v3/assert"

	"github.com/farcloser/diapason/internal/pcm"
	"github.com/farcloser/diapason/internal/types"
)

func le16(values ...int16) []byte {
	out := make([]byte, 0, len(values)*2)
	for _, v := range values {
		out = binary.LittleEndian.AppendUint16(out, uint16(v)) //nolint:gosec // test data
	}

	return out
}

func TestValidate(t *testing.T) {
	t.Parallel()

	assert.NilError(t, pcm.Validate(types.PCMFormat{SampleRate: 44100, BitDepth: types.Depth16, Channels: 2}))
	assert.ErrorIs(t, pcm.Validate(types.PCMFormat{SampleRate: 0, BitDepth: types.Depth16, Channels: 2}),
		pcm.ErrInvalidSampleRate)
	assert.ErrorIs(t, pcm.Validate(types.PCMFormat{SampleRate: 44100, BitDepth: 8, Channels: 2}),
		pcm.ErrUnsupportedBitDepth)
	assert.ErrorIs(t, pcm.Validate(types.PCMFormat{SampleRate: 44100, BitDepth: types.Depth24}),
		pcm.ErrInvalidChannels)
}

func TestReadFrames16BitStereoDownmix(t *testing.T) {
	t.Parallel()

	data := le16(16384, 16384, -32768, 0, 8192, -8192)
	format := types.PCMFormat{SampleRate: 44100, BitDepth: types.Depth16, Channels: 2}

	reader, err := pcm.NewReader(bytes.NewReader(data), format)
	assert.NilError(t, err)

	dst := make([]float64, 8)
	n, err := reader.ReadFrames(dst)
	assert.NilError(t, err)
	assert.Equal(t, n, 3)
	assert.DeepEqual(t, dst[:n], []float64{0.5, -0.5, 0})

	n, err = reader.ReadFrames(dst)
	assert.Equal(t, n, 0)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrames24Bit(t *testing.T) {
	t.Parallel()

	// 0x400000 = 2^22 (0.5), 0xC00000 = -2^22 (-0.5).
	data := []byte{0x00, 0x00, 0x40, 0x00, 0x00, 0xC0}
	format := types.PCMFormat{SampleRate: 48000, BitDepth: types.Depth24, Channels: 1}

	reader, err := pcm.NewReader(bytes.NewReader(data), format)
	assert.NilError(t, err)

	dst := make([]float64, 2)
	n, err := reader.ReadFrames(dst)
	assert.NilError(t, err)
	assert.Equal(t, n, 2)
	assert.DeepEqual(t, dst, []float64{0.5, -0.5})
}

func TestReadFrames32Bit(t *testing.T) {
	t.Parallel()

	var data []byte
	data = binary.LittleEndian.AppendUint32(data, 1<<30)
	data = binary.LittleEndian.AppendUint32(data, 0x80000000)

	format := types.PCMFormat{SampleRate: 96000, BitDepth: types.Depth32, Channels: 1}

	reader, err := pcm.NewReader(bytes.NewReader(data), format)
	assert.NilError(t, err)

	dst := make([]float64, 2)
	n, err := reader.ReadFrames(dst)
	assert.NilError(t, err)
	assert.Equal(t, n, 2)
	assert.DeepEqual(t, dst, []float64{0.5, -1})
}

func TestReadFramesReassemblesSplitFrames(t *testing.T) {
	t.Parallel()

	data := le16(100, 200, 300, 400, 500, 600)
	format := types.PCMFormat{SampleRate: 44100, BitDepth: types.Depth16, Channels: 2}

	reader, err := pcm.NewReader(iotest.OneByteReader(bytes.NewReader(data)), format)
	assert.NilError(t, err)

	dst := make([]float64, 2)
	n, err := reader.ReadFrames(dst)
	assert.NilError(t, err)
	assert.Equal(t, n, 2)
	assert.Equal(t, dst[0], 150/pcm.MaxValue16)
	assert.Equal(t, dst[1], 350/pcm.MaxValue16)

	n, err = reader.ReadFrames(dst)
	assert.NilError(t, err)
	assert.Equal(t, n, 1)
	assert.Equal(t, dst[0], 550/pcm.MaxValue16)
}

func TestReadFramesDropsTrailingPartialFrame(t *testing.T) {
	t.Parallel()

	data := append(le16(1000, 1000), 0x01)
	format := types.PCMFormat{SampleRate: 44100, BitDepth: types.Depth16, Channels: 2}

	reader, err := pcm.NewReader(bytes.NewReader(data), format)
	assert.NilError(t, err)

	dst := make([]float64, 4)
	n, err := reader.ReadFrames(dst)
	assert.NilError(t, err)
	assert.Equal(t, n, 1)

	_, err = reader.ReadFrames(dst)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFramesWrapsReadFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	format := types.PCMFormat{SampleRate: 44100, BitDepth: types.Depth16, Channels: 1}

	reader, err := pcm.NewReader(iotest.ErrReader(boom), format)
	assert.NilError(t, err)

	_, err = reader.ReadFrames(make([]float64, 4))
	assert.ErrorIs(t, err, fault.ErrReadFailure)
	assert.ErrorIs(t, err, boom)
}
