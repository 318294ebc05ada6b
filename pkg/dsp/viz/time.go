package viz

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
)

type PlotType int

const (
	PlotTypeDefault PlotType = iota
	PlotTypeScatter
	PlotTypeLines
)

// TimeDomainPlotter draws the real part, imaginary part and magnitude of a
// complex sequence against time in milliseconds.
type TimeDomainPlotter struct {
	samples        []complex128
	sampleInterval float64
	name           string
	plotFunc       func(*plot.Plot, ...interface{}) error
	plotOptions    []PlotOptions
}

func NewTimeDomainPlotter(name string, sampleInterval float64) *TimeDomainPlotter {
	ret := &TimeDomainPlotter{
		sampleInterval: sampleInterval,
		name:           name,
		plotFunc:       plotutil.AddLines,
	}

	return ret
}

func (t *TimeDomainPlotter) Name() string {
	return t.name
}

func (t *TimeDomainPlotter) SetPlotType(tp PlotType) {
	switch tp {
	case PlotTypeScatter:
		t.plotFunc = plotutil.AddScatters
	default:
		t.plotFunc = plotutil.AddLines
	}
}

func (t *TimeDomainPlotter) SetSamples(x []complex128) {
	t.samples = append(t.samples[:0], x...)
}

func (t *TimeDomainPlotter) AddPlotOption(opt PlotOptions) {
	t.plotOptions = append(t.plotOptions, opt)
}

func (t *TimeDomainPlotter) GetImage() (*ImageContainer, error) {
	if len(t.samples) == 0 {
		return nil, fmt.Errorf("no samples")
	}

	p := plotWithDefaults()

	p.Title.Text = t.name
	p.Y.Label.Text = "Amplitude"
	p.X.Label.Text = "t (ms)"

	for _, opt := range t.plotOptions {
		opt(p)
	}

	grid := plotter.NewGrid()
	p.Add(grid)

	re := make(plotter.XYs, len(t.samples))
	im := make(plotter.XYs, len(t.samples))
	mag := make(plotter.XYs, len(t.samples))
	for i, v := range t.samples {
		x := float64(i) * t.sampleInterval * 1e3
		re[i] = plotter.XY{X: x, Y: real(v)}
		im[i] = plotter.XY{X: x, Y: imag(v)}
		mag[i] = plotter.XY{X: x, Y: cmplx.Abs(v)}
	}
	if err := t.plotFunc(p, "real", re, "imag", im, "|x|", mag); err != nil {
		return nil, err
	}

	return render(t.name, p)
}
