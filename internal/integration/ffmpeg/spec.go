package ffmpeg

import (
	"strconv"
	"time"

	"github.com/farcloser/diapason/internal/types"
)

const (
	name = "ffmpeg"
	// Grace period for ffmpeg to exit once its context is cancelled.
	waitDelay = 5 * time.Second
)

func bitDepthToSpec(bitDepth types.BitDepth) string {
	// BitDepth 32 = s32le, 24 = s24le, 16 = s16le
	//nolint:gosec // we fine, gosec
	return "s" + strconv.Itoa(int(bitDepth)) + "le"
}

// Args returns the ffmpeg arguments decoding the given audio stream of filePath to raw PCM on stdout.
// A zero SampleRate or Channels keeps the source value.
func Args(filePath string, streamIndex int, format types.PCMFormat) []string {
	spec := bitDepthToSpec(format.BitDepth)

	args := []string{
		"-nostdin",
		"-v", "error",
		"-i", filePath,
		"-map", "0:a:" + strconv.Itoa(streamIndex),
		"-f", spec,
		"-acodec", "pcm_" + spec,
	}

	if format.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(format.SampleRate))
	}

	if format.Channels > 0 {
		args = append(args, "-ac", strconv.FormatUint(uint64(format.Channels), 10))
	}

	return append(args, "-")
}
