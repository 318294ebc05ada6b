package sonar

import (
	"errors"
	"testing"

	"github.com/norasector/sonartx/pkg/dsp/filters/fir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotForCW(t *testing.T) {
	cal := MapCalibration{ping(cwValues(38000), identityFilters())}

	snap, err := SnapshotFor(cal, 0)
	require.NoError(t, err)
	assert.Equal(t, 38000.0, snap.FrequencyStart)
	assert.Equal(t, 38000.0, snap.FrequencyEnd)
	assert.True(t, snap.IsCW())
	assert.True(t, snap.Filters.Equal(identityFilters()))
}

func TestSnapshotForFM(t *testing.T) {
	cal := MapCalibration{ping(fmValues(), identityFilters())}

	snap, err := SnapshotFor(cal, 0)
	require.NoError(t, err)
	assert.Equal(t, 30000.0, snap.FrequencyStart)
	assert.Equal(t, 50000.0, snap.FrequencyEnd)
	assert.False(t, snap.IsCW())

	p := snap.ChirpParams()
	assert.Equal(t, 1.5e6, p.RxSampleFrequency)
	assert.Equal(t, 0.1, p.Slope)
}

func TestSnapshotForMissing(t *testing.T) {
	noEnd := fmValues()
	delete(noEnd, KeyFrequencyEnd)
	noImpedance := fmValues()
	delete(noImpedance, KeyImpedance)
	noFrequency := cwValues(38000)
	delete(noFrequency, KeyFrequency)

	tests := []struct {
		name string
		cal  MapCalibration
		key  string
	}{
		{"frequency end", MapCalibration{ping(noEnd, identityFilters())}, KeyFrequencyEnd},
		{"impedance", MapCalibration{ping(noImpedance, identityFilters())}, KeyImpedance},
		{"cw frequency", MapCalibration{ping(noFrequency, identityFilters())}, KeyFrequency},
		{"filters", MapCalibration{{Values: fmValues()}}, KeyFilters},
		{"ping out of range", MapCalibration{}, KeySlope},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SnapshotFor(tt.cal, 0)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingParameter))

			var missing *MissingParameterError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, tt.key, missing.Key)
		})
	}
}

func TestSnapshotEqualDetectsEveryField(t *testing.T) {
	base, err := SnapshotFor(MapCalibration{ping(fmValues(), identityFilters())}, 0)
	require.NoError(t, err)
	assert.True(t, base.Equal(base))

	mutations := map[string]func(s *Snapshot){
		"slope":               func(s *Snapshot) { s.Slope = 0.2 },
		"transmit_power":      func(s *Snapshot) { s.TransmitPower = 999 },
		"pulse_duration":      func(s *Snapshot) { s.PulseDuration = 2e-3 },
		"frequency_start":     func(s *Snapshot) { s.FrequencyStart = 31000 },
		"frequency_end":       func(s *Snapshot) { s.FrequencyEnd = 51000 },
		"frequency":           func(s *Snapshot) { s.Frequency = 41000 },
		"impedance":           func(s *Snapshot) { s.Impedance = 50 },
		"rx_sample_frequency": func(s *Snapshot) { s.RxSampleFrequency = 1e6 },
		"filters":             func(s *Snapshot) { s.Filters = decimatingFilters() },
		"filter coefficient": func(s *Snapshot) {
			s.Filters = fir.Set{
				"1": {Coefficients: []complex128{1}, Decimation: 1},
				"2": {Coefficients: []complex128{1.0000001}, Decimation: 1},
			}
		},
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			changed := base
			mutate(&changed)
			assert.False(t, base.Equal(changed))
			assert.False(t, changed.Equal(base))
		})
	}
}

func TestMapCalibration(t *testing.T) {
	second := decimatingFilters()
	cal := MapCalibration{{
		Values:  map[string]float64{KeySlope: 0.1},
		Filters: []fir.Set{identityFilters(), second},
	}}

	v, ok := cal.Parameter(0, KeySlope)
	assert.True(t, ok)
	assert.Equal(t, 0.1, v)

	_, ok = cal.Parameter(0, KeyFrequencyStart)
	assert.False(t, ok)
	_, ok = cal.Parameter(1, KeySlope)
	assert.False(t, ok)
	_, ok = cal.Parameter(-1, KeySlope)
	assert.False(t, ok)

	filters, ok := cal.Filters(0)
	require.True(t, ok)
	assert.True(t, filters.Equal(identityFilters()))
	_, ok = cal.Filters(3)
	assert.False(t, ok)
}
