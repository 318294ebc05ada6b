package sonar

import (
	"context"
	"errors"
	"testing"

	"github.com/norasector/sonartx/pkg/dsp/chirp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectivePulseDuration(t *testing.T) {
	tests := []struct {
		name     string
		signal   TransmitSignal
		interval float64
		want     float32
	}{
		{"rectangular", TransmitSignal{1, 1, 1, 1}, 0.5, 2},
		{"complex rectangular", TransmitSignal{1i, -1, 1i, 1}, 1e-3, 4e-3},
		{"single peak", TransmitSignal{0, 2, 0}, 1, 1},
		{"half power tail", TransmitSignal{2, 1i * 1.4142135623730951}, 1, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EffectivePulseDuration(tt.signal, tt.interval)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestEffectivePulseDurationErrors(t *testing.T) {
	tests := []struct {
		name     string
		signal   TransmitSignal
		interval float64
		param    string
	}{
		{"zero interval", TransmitSignal{1}, 0, "sample_interval"},
		{"negative interval", TransmitSignal{1}, -1e-5, "sample_interval"},
		{"empty", TransmitSignal{}, 1e-5, "signal_length"},
		{"silent", TransmitSignal{0, 0}, 1e-5, "signal_peak"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EffectivePulseDuration(tt.signal, tt.interval)
			var domain *chirp.DomainError
			require.True(t, errors.As(err, &domain))
			assert.Equal(t, tt.param, domain.Param)
		})
	}
}

func TestEstimateRectangularPulse(t *testing.T) {
	// A zero frequency, untapered pulse is a constant: tau_eff equals the
	// pulse duration.
	cal := MapCalibration{ping(cwValues(0), identityFilters())}
	estimator, err := NewEstimator(cal, quietOptions()...)
	require.NoError(t, err)

	results, err := estimator.Estimate(context.Background(), newBatch(1e-5, []int{0}, 0, 0), nil)
	require.NoError(t, err)
	require.NoError(t, results.Err())
	assert.InDelta(t, 1e-3, results[0].TauEff, 1e-9)
}

func TestEstimateTaperedPulseIsShorter(t *testing.T) {
	cal := MapCalibration{
		ping(cwValues(0), identityFilters()),
		ping(withValue(cwValues(0), KeySlope, 0.25), identityFilters()),
		ping(withValue(cwValues(0), KeySlope, 0.5), identityFilters()),
	}
	estimator, err := NewEstimator(cal, quietOptions()...)
	require.NoError(t, err)

	results, err := estimator.Estimate(context.Background(), newBatch(1e-5, []int{0, 0, 0}, 0, 0), nil)
	require.NoError(t, err)
	values := results.Values()
	assert.Greater(t, values[0], values[1])
	assert.Greater(t, values[1], values[2])
	assert.Greater(t, values[2], float32(0))
}

func TestEstimateReuse(t *testing.T) {
	a := ping(fmValues(), identityFilters())
	b := ping(withValue(fmValues(), KeyFrequencyEnd, 60000), identityFilters())
	cal := MapCalibration{a, a, a, b}

	batch := newBatch(1/1.5e6, []int{1, 1, 1, 1}, 0, 0)
	batch.SampleInterval[2] = 2 / 1.5e6

	estimator, err := NewEstimator(cal, quietOptions()...)
	require.NoError(t, err)
	results, err := estimator.Estimate(context.Background(), batch, nil)
	require.NoError(t, err)

	assert.False(t, results[0].Reused)
	assert.True(t, results[1].Reused)
	assert.Equal(t, results[0].TauEff, results[1].TauEff)

	// same signal, different interval
	assert.False(t, results[2].Reused)
	assert.InDelta(t, 2*results[1].TauEff, results[2].TauEff, 1e-9)

	assert.False(t, results[3].Reused)
	for i, res := range results {
		assert.Equal(t, i, res.Ping)
		assert.NoError(t, res.Err)
	}
}

func TestEstimateSignalsIndexesIntervalsByPing(t *testing.T) {
	built := BuildResults{
		{Ping: 2, Signal: TransmitSignal{1, 1}},
		{Ping: 0, Signal: TransmitSignal{1, 1}},
	}
	results := EstimateSignals(built, []float64{1, 10, 100})

	assert.Equal(t, 2, results[0].Ping)
	assert.InDelta(t, 200, results[0].TauEff, 1e-6)
	assert.Equal(t, 0, results[1].Ping)
	assert.InDelta(t, 2, results[1].TauEff, 1e-6)
	assert.False(t, results[1].Reused)
}

func TestEstimateSignalsErrors(t *testing.T) {
	failed := errors.New("failed")
	sig := TransmitSignal{1, 1}
	built := BuildResults{
		{Ping: 0, Signal: sig},
		{Ping: 1, Err: failed},
		{Ping: 2, Signal: sig},
		{Ping: 5, Signal: sig},
	}
	results := EstimateSignals(built, []float64{1, 1, 1})

	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, failed)
	// the failure resets the memo
	assert.NoError(t, results[2].Err)
	assert.False(t, results[2].Reused)
	assert.ErrorIs(t, results[3].Err, ErrPingOutOfRange)

	var batchErr *BatchError
	require.True(t, errors.As(results.Err(), &batchErr))
	assert.Len(t, batchErr.Errors, 2)
}

func TestEstimateStrict(t *testing.T) {
	cal := MapCalibration{ping(cwValues(0), identityFilters())}
	estimator, err := NewEstimator(cal, quietOptions(WithStrict(true))...)
	require.NoError(t, err)

	_, err = estimator.Estimate(context.Background(), newBatch(0, []int{0}, 0, 0), nil)
	assert.ErrorIs(t, err, chirp.ErrDomain)
}
