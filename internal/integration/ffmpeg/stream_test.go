package ffmpeg_test

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/farcloser/primordium/fault"
	"go.uber.org/goleak"
	"gotest.tools/v3/assert"

	"github.com/farcloser/diapason/internal/integration/binary"
	"github.com/farcloser/diapason/internal/integration/ffmpeg"
	"github.com/farcloser/diapason/internal/integration/wav"
	"github.com/farcloser/diapason/internal/pcm"
	"github.com/farcloser/diapason/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func requireFFmpeg(t *testing.T) {
	t.Helper()

	if _, found := binary.Available("ffmpeg"); !found {
		t.Skip("ffmpeg not available")
	}
}

func writeTone(t *testing.T, frames int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.wav")

	out, err := os.Create(path)
	assert.NilError(t, err)

	tone := make([]float64, frames)
	for i := range tone {
		tone[i] = 0.25 * math.Sin(2*math.Pi*440*float64(i)/44100)
	}

	writer := wav.NewWriter(out, 44100)
	assert.NilError(t, writer.WriteFrames(tone))
	assert.NilError(t, writer.Close())
	assert.NilError(t, out.Close())

	return path
}

func TestOpenDecodesWholeStream(t *testing.T) {
	requireFFmpeg(t)

	path := writeTone(t, 22050)
	format := types.PCMFormat{SampleRate: 44100, BitDepth: types.Depth16, Channels: 1}

	stream, err := ffmpeg.Open(context.Background(), path, 0, format)
	assert.NilError(t, err)

	reader, err := pcm.NewReader(stream, format)
	assert.NilError(t, err)

	total := 0
	dst := make([]float64, 1000)

	for {
		n, err := reader.ReadFrames(dst)
		total += n

		if err == io.EOF {
			break
		}

		assert.NilError(t, err)
	}

	assert.Equal(t, total, 22050)
	assert.NilError(t, stream.Close())
	// Idempotent.
	assert.NilError(t, stream.Close())
}

func TestCloseBeforeEOFStopsFFmpeg(t *testing.T) {
	requireFFmpeg(t)

	path := writeTone(t, 441000)
	format := types.PCMFormat{SampleRate: 44100, BitDepth: types.Depth16, Channels: 1}

	stream, err := ffmpeg.Open(context.Background(), path, 0, format)
	assert.NilError(t, err)

	_, err = io.ReadFull(stream, make([]byte, 4096))
	assert.NilError(t, err)
	assert.NilError(t, stream.Close())
}

func TestOpenMissingFileFailsOnClose(t *testing.T) {
	requireFFmpeg(t)

	format := types.PCMFormat{SampleRate: 44100, BitDepth: types.Depth16, Channels: 1}

	stream, err := ffmpeg.Open(context.Background(), filepath.Join(t.TempDir(), "missing.flac"), 0, format)
	assert.NilError(t, err)

	_, err = io.ReadAll(stream)
	assert.NilError(t, err)
	assert.ErrorIs(t, stream.Close(), fault.ErrCommandFailure)
}
