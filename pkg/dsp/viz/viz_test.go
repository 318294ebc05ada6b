package viz

import (
	"bytes"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
)

var pngMagic = []byte("\x89PNG")

func tone(n int, freq, sampleRate float64) []complex128 {
	ret := make([]complex128, n)
	for i := range ret {
		ret[i] = cmplx.Exp(complex(0, 2*math.Pi*freq*float64(i)/sampleRate))
	}
	return ret
}

func TestSpectrumPeak(t *testing.T) {
	tests := []struct {
		name string
		freq float64
	}{
		{"positive", 12500},
		{"negative", -25000},
		{"dc", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			freqs, db := Spectrum(tone(256, tt.freq, 100e3), 100e3)
			require.Len(t, freqs, 256)
			require.Len(t, db, 256)

			assert.InDelta(t, tt.freq, freqs[floats.MaxIdx(db)], 100e3/256)
			assert.Equal(t, 0.0, floats.Max(db))
			assert.GreaterOrEqual(t, floats.Min(db), float64(FloorDB))
			assert.Equal(t, -50e3, freqs[0])
		})
	}
}

func TestSpectrumEmpty(t *testing.T) {
	freqs, db := Spectrum(nil, 1)
	assert.Nil(t, freqs)
	assert.Nil(t, db)
}

func TestNextRadix(t *testing.T) {
	assert.Equal(t, 16, nextRadix(1))
	assert.Equal(t, 16, nextRadix(16))
	assert.Equal(t, 32, nextRadix(17))
	assert.Equal(t, 2048, nextRadix(1500))
}

func TestPlotters(t *testing.T) {
	x := tone(300, 5000, 100e3)

	td := NewTimeDomainPlotter("tx_time", 1e-5)
	_, err := td.GetImage()
	assert.Error(t, err)
	td.SetSamples(x)
	td.SetPlotType(PlotTypeScatter)
	applied := false
	td.AddPlotOption(func(p *plot.Plot) { applied = true })

	spectrum := NewFFTPlotter("tx_spectrum", 100e3)
	spectrum.SetSamples(x)

	dir := filepath.Join(t.TempDir(), "plots")
	paths, err := WriteAll(dir, td, spectrum)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.True(t, applied)
	assert.Equal(t, filepath.Join(dir, "tx_time.png"), paths[0])

	for _, path := range paths {
		contents, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(contents, pngMagic))
	}
}
