// Package level measures the mono signal fed to the analyser: DC offset, RMS and peak.
// A large DC offset concentrates energy in bin 0 and can win the dominant frequency search on its own.
package level

import (
	"math"

	"github.com/farcloser/diapason/internal/types"
)

// Floor is reported for digital silence.
const Floor = -120.0

// Meter accumulates frames. The zero value is ready to use.
type Meter struct {
	frames     uint64
	sum        float64
	sumSquares float64
	peak       float64
}

// Add accumulates frames.
func (m *Meter) Add(frames []float64) {
	for _, frame := range frames {
		m.sum += frame
		m.sumSquares += frame * frame
		m.peak = max(m.peak, math.Abs(frame))
	}

	m.frames += uint64(len(frames))
}

// Result reports what has been measured so far.
func (m *Meter) Result() types.LevelResult {
	if m.frames == 0 {
		return types.LevelResult{DCOffsetDb: Floor, RMSDb: Floor, PeakDb: Floor}
	}

	count := float64(m.frames)
	offset := m.sum / count

	return types.LevelResult{
		DCOffset:   offset,
		DCOffsetDb: toDb(math.Abs(offset)),
		RMSDb:      toDb(math.Sqrt(m.sumSquares / count)),
		PeakDb:     toDb(m.peak),
		Frames:     m.frames,
	}
}

func toDb(amplitude float64) float64 {
	db := 20 * math.Log10(amplitude) //nolint:mnd
	if math.IsInf(db, -1) || db < Floor {
		return Floor
	}

	return db
}
