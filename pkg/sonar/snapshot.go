package sonar

import (
	"github.com/norasector/sonartx/pkg/dsp/chirp"
	"github.com/norasector/sonartx/pkg/dsp/filters/fir"
)

// Calibration parameter keys.
const (
	KeySlope             = "slope"
	KeyTransmitPower     = "transmit_power"
	KeyPulseDuration     = "pulse_duration"
	KeyFrequencyStart    = "frequency_start"
	KeyFrequencyEnd      = "frequency_end"
	KeyFrequency         = "frequency"
	KeyImpedance         = "impedance"
	KeyRxSampleFrequency = "rx_sample_frequency"
	KeyFilters           = "filters"
)

// Snapshot holds the calibration values that determine one ping's transmit
// signal. CW pings carry FrequencyStart == FrequencyEnd == Frequency.
type Snapshot struct {
	Slope             float64
	TransmitPower     float64
	PulseDuration     float64
	FrequencyStart    float64
	FrequencyEnd      float64
	Frequency         float64
	Impedance         float64
	RxSampleFrequency float64
	Filters           fir.Set
}

// Equal reports whether every field of s matches o exactly.
func (s Snapshot) Equal(o Snapshot) bool {
	return !s.differs(o)
}

func (s Snapshot) differs(o Snapshot) bool {
	return s.Slope != o.Slope ||
		s.TransmitPower != o.TransmitPower ||
		s.PulseDuration != o.PulseDuration ||
		s.FrequencyStart != o.FrequencyStart ||
		s.FrequencyEnd != o.FrequencyEnd ||
		s.Frequency != o.Frequency ||
		s.Impedance != o.Impedance ||
		s.RxSampleFrequency != o.RxSampleFrequency ||
		!s.Filters.Equal(o.Filters)
}

func (s Snapshot) IsCW() bool {
	return s.FrequencyStart == s.FrequencyEnd
}

func (s Snapshot) ChirpParams() chirp.Params {
	return chirp.Params{
		TransmitPower:     s.TransmitPower,
		FrequencyStart:    s.FrequencyStart,
		FrequencyEnd:      s.FrequencyEnd,
		Slope:             s.Slope,
		PulseDuration:     s.PulseDuration,
		Impedance:         s.Impedance,
		RxSampleFrequency: s.RxSampleFrequency,
	}
}

// SnapshotFor reads the calibration values of ping from cal. When the start
// frequency is absent the ping is treated as CW and both sweep ends are set
// to the nominal frequency.
func SnapshotFor(cal Calibration, ping int) (Snapshot, error) {
	var s Snapshot
	var err error

	required := func(key string) float64 {
		if err != nil {
			return 0
		}
		v, ok := cal.Parameter(ping, key)
		if !ok {
			err = &MissingParameterError{Ping: ping, Key: key}
		}
		return v
	}

	s.Slope = required(KeySlope)
	s.TransmitPower = required(KeyTransmitPower)
	s.PulseDuration = required(KeyPulseDuration)
	s.Impedance = required(KeyImpedance)
	s.RxSampleFrequency = required(KeyRxSampleFrequency)
	if err != nil {
		return Snapshot{}, err
	}

	start, hasStart := cal.Parameter(ping, KeyFrequencyStart)
	if hasStart {
		s.FrequencyStart = start
		s.FrequencyEnd = required(KeyFrequencyEnd)
		if f, ok := cal.Parameter(ping, KeyFrequency); ok {
			s.Frequency = f
		}
	} else {
		s.Frequency = required(KeyFrequency)
		s.FrequencyStart = s.Frequency
		s.FrequencyEnd = s.Frequency
	}
	if err != nil {
		return Snapshot{}, err
	}

	filters, ok := cal.Filters(ping)
	if !ok {
		return Snapshot{}, &MissingParameterError{Ping: ping, Key: KeyFilters}
	}
	s.Filters = filters

	return s, nil
}
