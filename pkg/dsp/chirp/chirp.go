// Package chirp synthesizes the ideal, amplitude-normalized transmit pulse
// of a sonar transceiver: a linear frequency sweep (constant frequency for
// CW pulses) shaped by a raised cosine taper at both ends.
package chirp

import (
	"errors"
	"fmt"
	"math"

	"github.com/norasector/sonartx/pkg/dsp/filters/fir"
)

const (
	tau float64 = math.Pi * 2
)

var ErrDomain = errors.New("non-physical signal parameters")

// DomainError reports a parameter for which no transmit signal exists.
type DomainError struct {
	Param string
	Value float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("invalid %s: %g", e.Param, e.Value)
}

func (e *DomainError) Unwrap() error {
	return ErrDomain
}

type Params struct {
	TransmitPower     float64 // W
	FrequencyStart    float64 // Hz
	FrequencyEnd      float64 // Hz
	Slope             float64 // fraction of samples in each taper ramp, [0, 0.5]
	PulseDuration     float64 // s
	Impedance         float64 // ohm
	RxSampleFrequency float64 // Hz
}

func (p Params) Validate() error {
	switch {
	case !(p.PulseDuration > 0):
		return &DomainError{Param: "pulse_duration", Value: p.PulseDuration}
	case !(p.RxSampleFrequency > 0):
		return &DomainError{Param: "rx_sample_frequency", Value: p.RxSampleFrequency}
	case !(p.Slope >= 0 && p.Slope <= 0.5):
		return &DomainError{Param: "slope", Value: p.Slope}
	}
	return nil
}

// NumSamples is the number of sample instants i/RxSampleFrequency that fall
// inside [0, PulseDuration).
func (p Params) NumSamples() int {
	sf := 1.0 / p.RxSampleFrequency
	n := int(math.Ceil(p.PulseDuration / sf))
	for n > 0 && float64(n-1)*sf >= p.PulseDuration {
		n--
	}
	return n
}

// Taper returns the n sample amplitude envelope: a Hann ramp of
// floor(slope*n) samples at each end and ones in between.
func Taper(n int, slope float64) []float64 {
	nw := 2 * int(math.Floor(slope*float64(n)))
	if nw > n {
		nw = n - n%2
	}
	w := fir.HannWindow(nw)
	half := nw / 2

	ret := make([]float64, 0, n)
	ret = append(ret, w[:half]...)
	for i := 0; i < n-nw; i++ {
		ret = append(ret, 1)
	}
	ret = append(ret, w[half:]...)
	return ret
}

// Synthesize returns the sample times and the transmit signal for p. The
// signal is scaled so that its largest magnitude is exactly 1.
func Synthesize(p Params) (t []float64, y []float64, err error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}

	sf := 1.0 / p.RxSampleFrequency
	a := math.Sqrt((p.TransmitPower / 4.0) * (2.0 * p.Impedance))
	n := p.NumSamples()
	if n == 0 {
		return nil, nil, &DomainError{Param: "pulse_duration", Value: p.PulseDuration}
	}

	taper := Taper(n, p.Slope)
	beta := (p.FrequencyEnd - p.FrequencyStart) / p.PulseDuration

	t = make([]float64, n)
	y = make([]float64, n)
	var peak float64
	for i := 0; i < n; i++ {
		ti := float64(i) * sf
		t[i] = ti
		phase := tau * (beta/2.0*(ti*ti) + p.FrequencyStart*ti)
		y[i] = a * math.Cos(phase) * taper[i]
		if m := math.Abs(y[i]); m > peak {
			peak = m
		}
	}

	if !(peak > 0) || math.IsInf(peak, 0) {
		return nil, nil, &DomainError{Param: "signal_peak", Value: peak}
	}
	for i := range y {
		y[i] /= peak
	}
	return t, y, nil
}

// Complex returns y as a complex sequence with zero imaginary part.
func Complex(y []float64) []complex128 {
	ret := make([]complex128, len(y))
	for i, v := range y {
		ret[i] = complex(v, 0)
	}
	return ret
}
