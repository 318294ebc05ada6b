package sonar

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/norasector/sonartx/pkg/dsp/chirp"
	"github.com/norasector/sonartx/pkg/dsp/conv"
	"github.com/norasector/sonartx/pkg/util"
	"golang.org/x/sync/errgroup"
)

// Compressor applies matched-filter pulse compression to the FM pings of a
// batch, overwriting their receive traces. CW pings are left untouched.
type Compressor struct {
	builder *Builder
	settings
}

func NewCompressor(cal Calibration, opts ...Option) (*Compressor, error) {
	b, err := NewBuilder(cal, opts...)
	if err != nil {
		return nil, err
	}
	return &Compressor{builder: b, settings: b.settings}, nil
}

// MatchedFilter returns the time reversed complex conjugate of tx and the
// energy of tx.
func MatchedFilter(tx TransmitSignal) ([]complex128, float64) {
	mf := make([]complex128, len(tx))
	var energy float64
	for i, v := range tx {
		mf[len(tx)-1-i] = complex(real(v), -imag(v))
		energy += real(v)*real(v) + imag(v)*imag(v)
	}
	return mf, energy
}

// Compress correlates trace with tx and returns the result aligned with
// trace: sample k is the response at lag k, normalized by the energy of tx.
func Compress(trace []complex128, tx TransmitSignal) ([]complex128, error) {
	mf, energy := MatchedFilter(tx)
	if len(mf) == 0 || !(energy > 0) {
		return nil, &chirp.DomainError{Param: "signal_energy", Value: energy}
	}
	if len(trace) < len(mf) {
		return nil, &InsufficientSamplesError{Ping: -1, Samples: len(trace), FilterLength: len(mf)}
	}

	full, err := conv.Convolve(trace, mf)
	if err != nil {
		return nil, err
	}

	out := full[len(mf)-1 : len(mf)-1+len(trace)]
	for i, v := range out {
		out[i] = complex(real(v)/energy, imag(v)/energy)
	}
	return out, nil
}

// CompressInPlace pulse compresses the FM pings among pings (every ping when
// nil) in batch.Data. Per-ping failures are returned together as a
// *BatchError after all other pings were processed; in strict mode the
// first failure stops the batch. Traces already compressed when the context
// is cancelled stay compressed.
func (c *Compressor) CompressInPlace(ctx context.Context, batch *PingBatch, pings []int) error {
	if err := batch.Validate(); err != nil {
		return err
	}
	if batch.Data == nil {
		return fmt.Errorf("batch has no receive data")
	}
	idx, err := batch.indices(pings)
	if err != nil {
		return err
	}

	fm := make([]int, 0, len(idx))
	for _, ping := range idx {
		if batch.IsFM(ping) {
			fm = append(fm, ping)
		}
	}
	if len(fm) == 0 {
		c.logger.Debug().Int("pings", len(idx)).Msg("no FM pings to compress")
		return nil
	}

	built, err := c.builder.Build(ctx, batch, fm)
	if err != nil {
		return err
	}

	start := time.Now()
	var errs []*PingError
	compressed := 0
	for _, res := range built {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := res.Err
		var duration int64
		if err == nil {
			duration = util.TimeOperationMicroseconds(func() {
				err = c.compressPing(ctx, batch.Data, res.Ping, res.Signal)
			})
		}
		if err != nil {
			pingErr := &PingError{Ping: res.Ping, Err: err}
			if c.strict {
				return pingErr
			}
			c.logger.Warn().Err(err).Int("ping", res.Ping).Msg("pulse compression failed")
			errs = append(errs, pingErr)
			continue
		}
		c.logger.Debug().Int("ping", res.Ping).Int("filter_length", len(res.Signal)).Int64("duration_us", duration).Msg("compressed ping")
		compressed++
	}

	c.writeAPI.WritePoint(influxdb2.NewPoint("sonar.pulse_compression",
		map[string]string{
			"component": "compressor",
		},
		map[string]interface{}{
			"pings":       len(idx),
			"fm_pings":    len(fm),
			"compressed":  compressed,
			"failed":      len(errs),
			"channels":    batch.Data.Channels,
			"duration_us": time.Since(start).Microseconds(),
		}, time.Now()))

	return batchError(errs)
}

// compressPing filters every channel of ping. Each goroutine owns one
// channel's trace.
func (c *Compressor) compressPing(ctx context.Context, data *ReceiveData, ping int, tx TransmitSignal) error {
	if data.Samples < len(tx) {
		return &InsufficientSamplesError{Ping: ping, Samples: data.Samples, FilterLength: len(tx)}
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(c.workers)
	for ch := 0; ch < data.Channels; ch++ {
		trace := data.Trace(ping, ch)
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := Compress(trace.Samples(), tx)
			if err != nil {
				return err
			}
			return trace.Overwrite(out)
		})
	}
	return eg.Wait()
}
