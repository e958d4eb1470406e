package pcm

import "github.com/farcloser/diapason/internal/types"

const (
	MaxValue16 = 32768.0      // 2^15 — 16-bit signed PCM normalization divisor
	MaxValue24 = 8388608.0    // 2^23 — 24-bit signed PCM normalization divisor
	MaxValue32 = 2147483648.0 // 2^31 — 32-bit signed PCM normalization divisor
)

// MaxValue returns the normalization divisor for a bit depth, or 0 if unsupported.
func MaxValue(depth types.BitDepth) float64 {
	switch depth {
	case types.Depth16:
		return MaxValue16
	case types.Depth24:
		return MaxValue24
	case types.Depth32:
		return MaxValue32
	}

	return 0
}
