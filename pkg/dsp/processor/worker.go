package processor

import "fmt"

type DSPWorker struct {
	Name        string
	DisplayName string
	InputRate   float64
	OutputRate  float64

	ccWorker CCWorker
}

type DSPWorkerOption func(r *DSPWorker)

func WithDisplayName(displayName string) DSPWorkerOption {
	return func(r *DSPWorker) {
		r.DisplayName = displayName
	}
}

func NewDSPWorkerCC(name string, inputRate, outputRate float64, worker CCWorker, opts ...DSPWorkerOption) *DSPWorker {
	ret := &DSPWorker{
		Name:        name,
		DisplayName: name,
		InputRate:   inputRate,
		OutputRate:  outputRate,
		ccWorker:    worker,
	}

	for _, opt := range opts {
		opt(ret)
	}

	return ret
}

func (w *DSPWorker) String() string {
	return fmt.Sprintf("%s (%g -> %g Hz)", w.DisplayName, w.InputRate, w.OutputRate)
}

// Complex in, complex out
type CCWorker interface {
	WorkBuffer([]complex128, []complex128) int
	PredictOutputSize(int) int
}
