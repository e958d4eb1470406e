package testutils

import (
	encbinary "encoding/binary"
	"math"
	"os"

	"github.com/containerd/nerdctl/mod/tigron/test"

	"github.com/farcloser/diapason/internal/integration/wav"
)

// FixtureRate is the sample rate of every generated fixture.
const FixtureRate = 44100

func sine(freq, amplitude, seconds float64) []float64 {
	frames := make([]float64, int(seconds*FixtureRate))
	for i := range frames {
		frames[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/FixtureRate)
	}

	return frames
}

// ToneWAV writes a 16-bit mono WAV sine and returns its path. A zero amplitude gives silence.
func ToneWAV(data test.Data, helpers test.Helpers, name string, freq, amplitude, seconds float64) string {
	helpers.T().Helper()

	path := data.Temp().Path(name)

	out, err := os.Create(path)
	if err != nil {
		helpers.T().Log(err.Error())
		helpers.T().FailNow()
	}

	writer := wav.NewWriter(out, FixtureRate)

	if err = writer.WriteFrames(sine(freq, amplitude, seconds)); err == nil {
		err = writer.Close()
	}

	if closeErr := out.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		helpers.T().Log(err.Error())
		helpers.T().FailNow()
	}

	return path
}

// TonePCM writes a raw signed 16-bit little-endian interleaved sine and returns its path.
func TonePCM(data test.Data, name string, freq, amplitude, seconds float64, channels int) string {
	frames := sine(freq, amplitude, seconds)
	raw := make([]byte, 0, len(frames)*channels*2) //nolint:mnd

	for _, frame := range frames {
		sample := uint16(int16(math.Round(frame * math.MaxInt16))) //nolint:gosec // bounded by amplitude
		for range channels {
			raw = encbinary.LittleEndian.AppendUint16(raw, sample)
		}
	}

	return data.Temp().Save(string(raw), name)
}
