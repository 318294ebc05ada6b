package viz

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/norasector/sonartx/pkg/dsp/filters/fir"
	"github.com/norasector/sonartx/pkg/util"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
)

// FloorDB is the lowest level drawn on a spectrum plot.
const FloorDB = -120

// Spectrum returns the Blackman windowed, zero padded power spectrum of x
// in dB relative to its peak, ordered from -fs/2 to fs/2.
func Spectrum(x []complex128, sampleRate float64) (freqs, db []float64) {
	if len(x) == 0 {
		return nil, nil
	}
	n := nextRadix(len(x))
	win := fir.BlackmanWindow(len(x))
	data := make([]complex128, n)
	for i, v := range x {
		data[i] = v * complex(win[i], 0)
	}
	coeffs := fft.FFT(data)

	mags := make([]float64, n)
	for i, c := range coeffs {
		mags[i] = cmplx.Abs(c)
	}
	peak := floats.Max(mags)

	freqs = make([]float64, n)
	db = make([]float64, n)
	for i := 0; i < n; i++ {
		// shift so that bin n/2 (the most negative frequency) comes first
		k := (i + n/2) % n
		f := float64(k)
		if k >= n/2 {
			f -= float64(n)
		}
		freqs[i] = f * sampleRate / float64(n)

		level := float64(FloorDB)
		if peak > 0 && mags[k] > 0 {
			level = math.Max(20*math.Log10(mags[k]/peak), FloorDB)
		}
		db[i] = level
	}
	return freqs, db
}

func nextRadix(size int) int {
	radix := 16

	for {
		if size > radix {
			radix *= 2
		} else {
			return radix
		}
	}
}

type FFTPlotter struct {
	samples     []complex128
	sampleRate  float64
	name        string
	plotOptions []PlotOptions
}

func NewFFTPlotter(name string, sampleRate float64) *FFTPlotter {
	return &FFTPlotter{
		sampleRate: sampleRate,
		name:       name,
	}
}

func (f *FFTPlotter) Name() string {
	return f.name
}

func (f *FFTPlotter) SetSamples(x []complex128) {
	f.samples = append(f.samples[:0], x...)
}

func (f *FFTPlotter) AddPlotOption(opt PlotOptions) {
	f.plotOptions = append(f.plotOptions, opt)
}

func (f *FFTPlotter) GetImage() (*ImageContainer, error) {
	if len(f.samples) == 0 {
		return nil, fmt.Errorf("no samples")
	}
	freqs, db := Spectrum(f.samples, f.sampleRate)

	p := plotWithDefaults()
	p.Title.Text = fmt.Sprintf("%s (peak %s)", f.name, util.KHzToString(freqs[floats.MaxIdx(db)]))
	p.Y.Label.Text = "Power (dB)"
	p.X.Label.Text = "Frequency (Hz)"
	p.Y.Max = 0
	p.Y.Min = FloorDB

	for _, opt := range f.plotOptions {
		opt(p)
	}

	grid := plotter.NewGrid()
	p.Add(grid)

	pts := make(plotter.XYs, len(freqs))
	for i := range freqs {
		pts[i] = plotter.XY{X: freqs[i], Y: db[i]}
	}
	if err := plotutil.AddLines(p, "spectrum", pts); err != nil {
		return nil, err
	}

	return render(f.name, p)
}
