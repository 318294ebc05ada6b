package processor

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/norasector/sonartx/pkg/dsp/filters/fir"
)

var ErrInvalidStage = errors.New("invalid filter stage")

// InvalidStageError reports a requested stage that is not in the filter set.
type InvalidStageError struct {
	Stage fir.StageKey
}

func (e *InvalidStageError) Error() string {
	return fmt.Sprintf("filter stage %s is not in the supplied filter set", e.Stage)
}

func (e *InvalidStageError) Unwrap() error {
	return ErrInvalidStage
}

// Processor runs a chain of complex workers, feeding the output of each
// block into the next.
type Processor struct {
	Name        string
	blocks      []*DSPWorker
	initialized bool
}

func NewProcessor(name string) *Processor {
	return &Processor{
		Name: name,
	}
}

func (p *Processor) AddBlock(worker *DSPWorker) {
	p.blocks = append(p.blocks, worker)
	p.initialized = false
}

func (p *Processor) Blocks() []*DSPWorker {
	return p.blocks
}

// OutputRate is the sample rate leaving the last block.
func (p *Processor) OutputRate() float64 {
	if len(p.blocks) == 0 {
		return 0
	}
	return p.blocks[len(p.blocks)-1].OutputRate
}

func (p *Processor) Initialize() error {
	if p.initialized {
		return nil
	}
	if len(p.blocks) == 0 {
		return fmt.Errorf("%s: must specify at least 1 block", p.Name)
	}

	cur := p.blocks[0]
	for i := 1; i < len(p.blocks); i++ {
		next := p.blocks[i]
		if !sameRate(cur.OutputRate, next.InputRate) {
			return fmt.Errorf("cur: %s next %s rate mismatch (%g %g)", cur.Name, next.Name, cur.OutputRate, next.InputRate)
		}
		cur = next
	}

	p.initialized = true
	return nil
}

// Process pushes input through every block in order. When metrics is not
// nil the time spent in each block is recorded under "<name>_duration" in
// microseconds.
func (p *Processor) Process(input []complex128, metrics map[string]interface{}) ([]complex128, error) {
	if err := p.Initialize(); err != nil {
		return nil, err
	}

	for _, block := range p.blocks {
		output := make([]complex128, block.ccWorker.PredictOutputSize(len(input)))

		start := time.Now()
		length := block.ccWorker.WorkBuffer(input, output)
		if metrics != nil {
			metrics[fmt.Sprintf("%s_duration", block.Name)] = time.Since(start).Microseconds()
		}

		input = output[:length]
	}
	return input, nil
}

// NewCascade builds a processor applying the given stages of set in order,
// starting at inputRate. A stage missing from set yields an
// InvalidStageError.
func NewCascade(set fir.Set, inputRate float64, stages ...fir.StageKey) (*Processor, error) {
	p := NewProcessor("cascade")
	rate := inputRate
	for _, key := range stages {
		stage, ok := set[key]
		if !ok {
			return nil, &InvalidStageError{Stage: key}
		}
		filter, err := fir.NewDecimatingFilter(stage)
		if err != nil {
			return nil, fmt.Errorf("filter stage %s: %w", key, err)
		}
		outRate := rate / float64(filter.Decimation())
		p.AddBlock(NewDSPWorkerCC(fmt.Sprintf("stage_%s", key), rate, outRate, filter,
			WithDisplayName(fmt.Sprintf("Filter stage %s", key))))
		rate = outRate
	}
	return p, nil
}

// FilterAndDecimate convolves y with each stage's coefficients and
// decimates the result, applying stages in the order given.
func FilterAndDecimate(y []complex128, set fir.Set, stages ...fir.StageKey) ([]complex128, error) {
	if len(stages) == 0 {
		out := make([]complex128, len(y))
		copy(out, y)
		return out, nil
	}
	p, err := NewCascade(set, 1, stages...)
	if err != nil {
		return nil, err
	}
	return p.Process(y, nil)
}

func sameRate(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(math.Abs(a), math.Abs(b))
}
