package sonar

import "github.com/norasector/sonartx/pkg/dsp/filters/fir"

// Calibration looks up per-ping calibration values. A false second return
// marks the value as absent.
type Calibration interface {
	Parameter(ping int, key string) (float64, bool)
	Filters(ping int) (fir.Set, bool)
}

// PingCalibration is the calibration record of one ping. A ping may carry
// several filter sets; the first one describes the receiver chain.
type PingCalibration struct {
	Values  map[string]float64
	Filters []fir.Set
}

// MapCalibration is an in-memory Calibration indexed by ping.
type MapCalibration []PingCalibration

func (m MapCalibration) Parameter(ping int, key string) (float64, bool) {
	if ping < 0 || ping >= len(m) {
		return 0, false
	}
	v, ok := m[ping].Values[key]
	return v, ok
}

func (m MapCalibration) Filters(ping int) (fir.Set, bool) {
	if ping < 0 || ping >= len(m) || len(m[ping].Filters) == 0 {
		return nil, false
	}
	return m[ping].Filters[0], true
}
