package sonar

import (
	"time"

	"github.com/norasector/sonartx/pkg/dsp/filters/fir"
	"github.com/rs/zerolog"
)

func identityFilters() fir.Set {
	return fir.Set{
		fir.StageNumber(1): {Coefficients: []complex128{1}, Decimation: 1},
		fir.StageNumber(2): {Coefficients: []complex128{1}, Decimation: 1},
	}
}

func decimatingFilters() fir.Set {
	return fir.Set{
		fir.StageNumber(1): {Coefficients: []complex128{0.25, 0.5, 0.25}, Decimation: 2},
		fir.StageNumber(2): {Coefficients: []complex128{0.5, 0.5i}, Decimation: 3},
	}
}

func fmValues() map[string]float64 {
	return map[string]float64{
		KeySlope:             0.1,
		KeyTransmitPower:     1000,
		KeyPulseDuration:     1e-3,
		KeyFrequencyStart:    30000,
		KeyFrequencyEnd:      50000,
		KeyFrequency:         40000,
		KeyImpedance:         75,
		KeyRxSampleFrequency: 1.5e6,
	}
}

func cwValues(freq float64) map[string]float64 {
	return map[string]float64{
		KeySlope:             0,
		KeyTransmitPower:     500,
		KeyPulseDuration:     1e-3,
		KeyFrequency:         freq,
		KeyImpedance:         75,
		KeyRxSampleFrequency: 1e5,
	}
}

func withValue(values map[string]float64, key string, v float64) map[string]float64 {
	ret := make(map[string]float64, len(values))
	for k, val := range values {
		ret[k] = val
	}
	ret[key] = v
	return ret
}

func ping(values map[string]float64, filters fir.Set) PingCalibration {
	return PingCalibration{Values: values, Filters: []fir.Set{filters}}
}

// newBatch returns a batch of n pings sampled at interval with the given
// pulse forms. Receive data is allocated when samples > 0.
func newBatch(interval float64, pulseForm []int, samples, channels int) *PingBatch {
	n := len(pulseForm)
	b := &PingBatch{
		PingTime:       make([]time.Time, n),
		SampleInterval: make([]float64, n),
		PulseForm:      pulseForm,
	}
	t0 := time.Date(2020, 1, 26, 6, 10, 4, 0, time.UTC)
	for i := 0; i < n; i++ {
		b.PingTime[i] = t0.Add(time.Duration(i) * time.Second)
		b.SampleInterval[i] = interval
	}
	if samples > 0 {
		b.Data = NewReceiveData(n, samples, channels)
	}
	return b
}

func quietOptions(opts ...Option) []Option {
	return append([]Option{WithLogger(zerolog.Nop())}, opts...)
}
