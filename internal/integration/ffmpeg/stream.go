package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/diapason/internal/integration/binary"
	"github.com/farcloser/diapason/internal/types"
)

// Stream is a running ffmpeg decode. Reads return raw PCM in the requested format.
type Stream struct {
	stdout io.ReadCloser
	cmd    *exec.Cmd
	stderr bytes.Buffer
	cancel context.CancelFunc
	ctx    context.Context //nolint:containedctx // owned by the process lifetime

	drained   bool
	closeOnce sync.Once
	closeErr  error
}

// Open starts decoding the given audio stream (0-based, audio streams only) of filePath.
// Close must always be called; closing before EOF stops ffmpeg.
func Open(ctx context.Context, filePath string, streamIndex int, format types.PCMFormat) (*Stream, error) {
	slog.Debug("ffmpeg.Open", "stream index", streamIndex, "stage", "start")

	ffmpegPath, err := binary.Require(name)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)

	stream := &Stream{
		cancel: cancel,
		ctx:    ctx,
	}

	//nolint:gosec // filePath is intentionally user-provided input
	stream.cmd = exec.CommandContext(ctx, ffmpegPath, Args(filePath, streamIndex, format)...)
	stream.cmd.Stderr = &stream.stderr
	stream.cmd.WaitDelay = waitDelay

	stream.stdout, err = stream.cmd.StdoutPipe()
	if err != nil {
		cancel()

		return nil, fmt.Errorf("%w: %w", fault.ErrCommandFailure, err)
	}

	if err = stream.cmd.Start(); err != nil {
		cancel()

		return nil, fmt.Errorf("%w: %w", fault.ErrCommandFailure, err)
	}

	return stream, nil
}

func (s *Stream) Read(p []byte) (int, error) {
	n, err := s.stdout.Read(p)
	if errors.Is(err, io.EOF) {
		s.drained = true
	}

	return n, err //nolint:wrapcheck // io.Reader contract
}

// Close waits for ffmpeg to exit. It reports decode failures only when the output was fully consumed.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		defer s.cancel()

		if !s.drained {
			slog.Debug("ffmpeg.Close", "stage", "interrupted")
			s.cancel()
		}

		err := s.cmd.Wait()

		switch {
		case err == nil:
		case errors.Is(s.ctx.Err(), context.DeadlineExceeded):
			slog.Debug("ffmpeg.Close", "stage", "timeout")

			s.closeErr = fmt.Errorf("%w: %w", fault.ErrTimeout, s.ctx.Err())
		case !s.drained:
			// Killed on purpose.
		default:
			slog.Debug("ffmpeg.Close", "stage", "error")

			s.closeErr = fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, s.stderr.String(), err)
		}
	})

	return s.closeErr
}
