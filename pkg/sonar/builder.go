package sonar

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/norasector/sonartx/pkg/dsp/chirp"
	"github.com/norasector/sonartx/pkg/dsp/processor"
	"github.com/norasector/sonartx/pkg/util"
	"golang.org/x/sync/errgroup"
)

// TransmitSignal is the simulated, filtered and decimated transmit pulse of
// one ping. It must not be modified once returned: consecutive pings with
// identical calibration share the same backing array.
type TransmitSignal []complex128

type BuildResult struct {
	Ping       int
	Signal     TransmitSignal
	Recomputed bool
	Err        error
}

type BuildResults []BuildResult

// Signals returns the signal of every result, nil where the ping failed.
func (r BuildResults) Signals() []TransmitSignal {
	ret := make([]TransmitSignal, len(r))
	for i, res := range r {
		ret[i] = res.Signal
	}
	return ret
}

// Err returns a *BatchError listing every failed ping, or nil.
func (r BuildResults) Err() error {
	var errs []*PingError
	for _, res := range r {
		if res.Err != nil {
			errs = append(errs, &PingError{Ping: res.Ping, Err: res.Err})
		}
	}
	return batchError(errs)
}

// Builder produces the ideal transmit signal of each ping from its
// calibration. A signal is only synthesized again when the calibration of a
// ping differs from the ping before it.
type Builder struct {
	cal Calibration
	settings
}

func NewBuilder(cal Calibration, opts ...Option) (*Builder, error) {
	if cal == nil {
		return nil, fmt.Errorf("must specify calibration")
	}
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	return &Builder{cal: cal, settings: s}, nil
}

// Build returns one result per requested ping, in request order. A nil
// pings slice selects every ping of the batch. Failures are recorded per
// ping; in strict mode the first failure is returned instead. On
// cancellation the pings not yet processed carry the context error.
func (b *Builder) Build(ctx context.Context, batch *PingBatch, pings []int) (BuildResults, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}
	idx, err := batch.indices(pings)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results := make(BuildResults, len(idx))
	snaps := make([]Snapshot, len(idx))
	recompute := make([]bool, len(idx))

	var detector ChangeDetector
	for i, ping := range idx {
		results[i].Ping = ping
		snap, err := SnapshotFor(b.cal, ping)
		if err != nil {
			if b.strict {
				return nil, err
			}
			results[i].Err = err
			detector = ChangeDetector{}
			continue
		}
		snaps[i] = snap
		recompute[i], detector = detector.Next(snap)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(b.workers)
	for i := range idx {
		if !recompute[i] {
			continue
		}
		i := i
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			signal, err := b.synthesize(snaps[i], results[i].Ping)
			if err != nil {
				results[i].Err = err
				if b.strict {
					return &PingError{Ping: results[i].Ping, Err: err}
				}
				return nil
			}
			results[i].Signal = signal
			results[i].Recomputed = true
			return nil
		})
	}
	waitErr := eg.Wait()

	var recomputed, reused, failed int
	for i := range results {
		if !recompute[i] && results[i].Err == nil && i > 0 {
			results[i].Signal = results[i-1].Signal
			results[i].Err = results[i-1].Err
			reused++
		}
		if results[i].Recomputed {
			recomputed++
		}
		if results[i].Err != nil {
			failed++
		}
	}

	b.writeAPI.WritePoint(influxdb2.NewPoint("sonar.tx.build",
		map[string]string{
			"component": "builder",
		},
		map[string]interface{}{
			"pings":       len(idx),
			"recomputed":  recomputed,
			"reused":      reused,
			"failed":      failed,
			"duration_us": time.Since(start).Microseconds(),
		}, time.Now()))

	if waitErr != nil {
		return results, waitErr
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (b *Builder) synthesize(snap Snapshot, ping int) (TransmitSignal, error) {
	var y []float64
	synthDuration, err := util.TimeOperationErrMicroseconds(func() error {
		var err error
		_, y, err = chirp.Synthesize(snap.ChirpParams())
		return err
	})
	if err != nil {
		return nil, err
	}

	cascade, err := processor.NewCascade(snap.Filters, snap.RxSampleFrequency, b.stages...)
	if err != nil {
		return nil, err
	}
	metrics := make(map[string]interface{})
	signal, err := cascade.Process(chirp.Complex(y), metrics)
	if err != nil {
		return nil, err
	}

	b.logger.Debug().
		Int("ping", ping).
		Str("start", util.KHzToString(snap.FrequencyStart)).
		Str("end", util.KHzToString(snap.FrequencyEnd)).
		Str("rx_rate", util.MHzToString(snap.RxSampleFrequency)).
		Int("samples", len(y)).
		Int("filtered_samples", len(signal)).
		Float64("output_rate", cascade.OutputRate()).
		Int64("synth_duration_us", synthDuration).
		Interface("stage_durations", metrics).
		Msg("synthesized transmit signal")

	return TransmitSignal(signal), nil
}
