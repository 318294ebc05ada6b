// Package viz renders diagnostic PNG plots of transmit signals, their
// spectra and compressed receive traces.
package viz

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

type PlotOptions func(p *plot.Plot)

// Producer renders one named plot.
type Producer interface {
	Name() string
	GetImage() (*ImageContainer, error)
	AddPlotOption(opt PlotOptions)
}

type ImageContainer struct {
	name string
	data []byte
}

func (i *ImageContainer) Name() string {
	return i.name
}

func (i *ImageContainer) Data() []byte {
	return i.data
}

// WriteFile stores the image as <dir>/<name>.png and returns the path.
func (i *ImageContainer) WriteFile(dir string) (string, error) {
	path := filepath.Join(dir, i.name+".png")
	if err := os.WriteFile(path, i.data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// WriteAll renders every producer into dir, creating dir if needed.
func WriteAll(dir string, producers ...Producer) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(producers))
	for _, p := range producers {
		img, err := p.GetImage()
		if err != nil {
			return paths, fmt.Errorf("plot %s: %w", p.Name(), err)
		}
		path, err := img.WriteFile(dir)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func plotWithDefaults() *plot.Plot {

	p := plot.New()
	p.BackgroundColor = color.Black
	p.Title.TextStyle.Color = color.White
	p.Y.Label.TextStyle.Color = color.White
	p.Y.Color = color.White
	p.X.Label.TextStyle.Color = color.White
	p.X.Color = color.White
	p.Legend.TextStyle.Color = color.White
	p.X.Tick.Color = color.White
	p.Y.Tick.Color = color.White
	p.X.Tick.Label.Color = color.White
	p.Y.Tick.Label.Color = color.White

	return p
}

func render(name string, p *plot.Plot) (*ImageContainer, error) {
	w, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, err
	}
	return &ImageContainer{name: name, data: buf.Bytes()}, nil
}
