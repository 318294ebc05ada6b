package sonar

import (
	"context"
	"fmt"
	"math/cmplx"

	"github.com/norasector/sonartx/pkg/dsp/chirp"
	"gonum.org/v1/gonum/floats"
)

type EstimateResult struct {
	Ping   int
	TauEff float32
	Reused bool
	Err    error
}

type EstimateResults []EstimateResult

func (r EstimateResults) Values() []float32 {
	ret := make([]float32, len(r))
	for i, res := range r {
		ret[i] = res.TauEff
	}
	return ret
}

func (r EstimateResults) Err() error {
	var errs []*PingError
	for _, res := range r {
		if res.Err != nil {
			errs = append(errs, &PingError{Ping: res.Ping, Err: res.Err})
		}
	}
	return batchError(errs)
}

// Estimator derives the effective pulse duration of each ping: the length
// of a rectangular pulse carrying the same energy as the transmit signal at
// its peak power.
type Estimator struct {
	builder *Builder
	settings
}

func NewEstimator(cal Calibration, opts ...Option) (*Estimator, error) {
	b, err := NewBuilder(cal, opts...)
	if err != nil {
		return nil, err
	}
	return &Estimator{builder: b, settings: b.settings}, nil
}

// Estimate builds the transmit signals of the requested pings and returns
// their effective pulse durations in request order.
func (e *Estimator) Estimate(ctx context.Context, batch *PingBatch, pings []int) (EstimateResults, error) {
	built, err := e.builder.Build(ctx, batch, pings)
	if err != nil {
		return nil, err
	}
	results := EstimateSignals(built, batch.SampleInterval)
	if e.strict {
		if err := results.Err(); err != nil {
			return results, err
		}
	}

	e.logger.Debug().Int("pings", len(results)).Msg("estimated effective pulse durations")
	return results, nil
}

// estimatorState is the memo carried from one ping to the next.
type estimatorState struct {
	signal   TransmitSignal
	interval float64
	tau      float32
	valid    bool
}

func (s estimatorState) next(signal TransmitSignal, interval float64) (EstimateResult, estimatorState) {
	if s.valid && s.interval == interval && signalsEqual(s.signal, signal) {
		return EstimateResult{TauEff: s.tau, Reused: true}, s
	}
	tau, err := EffectivePulseDuration(signal, interval)
	if err != nil {
		return EstimateResult{Err: err}, estimatorState{}
	}
	return EstimateResult{TauEff: tau}, estimatorState{
		signal:   signal,
		interval: interval,
		tau:      tau,
		valid:    true,
	}
}

// EstimateSignals computes the effective pulse duration of each built
// signal. intervals is indexed by ping. The value of the previous ping is
// reused when both the signal and the sample interval are unchanged.
func EstimateSignals(built BuildResults, intervals []float64) EstimateResults {
	results := make(EstimateResults, len(built))
	var state estimatorState
	for i, b := range built {
		var res EstimateResult
		switch {
		case b.Err != nil:
			res = EstimateResult{Err: b.Err}
			state = estimatorState{}
		case b.Ping < 0 || b.Ping >= len(intervals):
			res = EstimateResult{Err: fmt.Errorf("no sample interval for ping %d: %w", b.Ping, ErrPingOutOfRange)}
			state = estimatorState{}
		default:
			res, state = state.next(b.Signal, intervals[b.Ping])
		}
		res.Ping = b.Ping
		results[i] = res
	}
	return results
}

// EffectivePulseDuration returns sum(|y|^2) / (max(|y|^2) * fs) with
// fs = 1/interval.
func EffectivePulseDuration(y TransmitSignal, interval float64) (float32, error) {
	if !(interval > 0) {
		return 0, &chirp.DomainError{Param: "sample_interval", Value: interval}
	}
	if len(y) == 0 {
		return 0, &chirp.DomainError{Param: "signal_length", Value: 0}
	}

	power := make([]float64, len(y))
	for i, v := range y {
		a := cmplx.Abs(v)
		power[i] = a * a
	}
	peak := floats.Max(power)
	if !(peak > 0) {
		return 0, &chirp.DomainError{Param: "signal_peak", Value: peak}
	}

	fs := 1 / interval
	return float32(floats.Sum(power) / (peak * fs)), nil
}

func signalsEqual(a, b TransmitSignal) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
