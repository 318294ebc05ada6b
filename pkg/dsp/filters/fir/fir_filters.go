package fir

import (
	"fmt"
	"strconv"

	"github.com/norasector/sonartx/pkg/dsp/conv"
)

// StageKey identifies a stage within a Set. Integer stage numbers are stored
// in their decimal form, see StageNumber.
type StageKey string

func StageNumber(n int) StageKey {
	return StageKey(strconv.Itoa(n))
}

// Stage is a single FIR filter followed by a decimator.
type Stage struct {
	Coefficients []complex128
	Decimation   int
}

func (s Stage) Validate() error {
	if len(s.Coefficients) == 0 {
		return fmt.Errorf("stage has no coefficients")
	}
	if s.Decimation < 1 {
		return fmt.Errorf("decimation factor must be positive, got %d", s.Decimation)
	}
	return nil
}

func (s Stage) Equal(o Stage) bool {
	if s.Decimation != o.Decimation || len(s.Coefficients) != len(o.Coefficients) {
		return false
	}
	for i := range s.Coefficients {
		if s.Coefficients[i] != o.Coefficients[i] {
			return false
		}
	}
	return true
}

// Set maps stage keys to stages. It is unordered; callers choose the order
// stages are applied in.
type Set map[StageKey]Stage

func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for key, stage := range s {
		other, ok := o[key]
		if !ok || !stage.Equal(other) {
			return false
		}
	}
	return true
}

// DecimatingFilter convolves its input with the full set of taps and keeps
// every decimation-th sample of the result, starting with the first.
type DecimatingFilter struct {
	taps       []complex128
	decimation int
}

func NewDecimatingFilter(stage Stage) (*DecimatingFilter, error) {
	if err := stage.Validate(); err != nil {
		return nil, err
	}
	return &DecimatingFilter{
		taps:       stage.Coefficients,
		decimation: stage.Decimation,
	}, nil
}

func (f *DecimatingFilter) Decimation() int {
	return f.decimation
}

func (f *DecimatingFilter) PredictOutputSize(inputSize int) int {
	if inputSize == 0 {
		return 0
	}
	full := inputSize + len(f.taps) - 1
	return (full + f.decimation - 1) / f.decimation
}

func (f *DecimatingFilter) WorkBuffer(input []complex128, output []complex128) int {
	if len(input) == 0 {
		return 0
	}
	full := make([]complex128, len(input)+len(f.taps)-1)
	conv.DirectTo(full, input, f.taps)

	n := 0
	for i := 0; i < len(full); i += f.decimation {
		output[n] = full[i]
		n++
	}
	return n
}

func (f *DecimatingFilter) Work(input []complex128) []complex128 {
	ret := make([]complex128, f.PredictOutputSize(len(input)))
	n := f.WorkBuffer(input, ret)
	return ret[:n]
}
