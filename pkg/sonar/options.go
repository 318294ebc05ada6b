package sonar

import (
	"fmt"
	"runtime"

	"github.com/influxdata/influxdb-client-go/api"
	"github.com/norasector/sonartx/pkg/dsp/filters/fir"
	"github.com/norasector/sonartx/pkg/util"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultStages are the receiver filter stages applied to a synthesized
// transmit signal.
var DefaultStages = []fir.StageKey{fir.StageNumber(1), fir.StageNumber(2)}

type settings struct {
	logger   zerolog.Logger
	writeAPI api.WriteAPI
	workers  int
	strict   bool
	stages   []fir.StageKey
}

type Option func(s *settings) error

func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) error {
		s.logger = logger
		return nil
	}
}

func WithInfluxDB(writeAPI api.WriteAPI) Option {
	return func(s *settings) error {
		s.writeAPI = writeAPI
		return nil
	}
}

// WithWorkers bounds the number of signals synthesized or traces compressed
// at the same time.
func WithWorkers(n int) Option {
	return func(s *settings) error {
		if n < 1 {
			return fmt.Errorf("workers must be positive, got %d", n)
		}
		s.workers = n
		return nil
	}
}

// WithStrict makes batch calls stop at the first failing ping and return
// its error instead of recording it per ping.
func WithStrict(strict bool) Option {
	return func(s *settings) error {
		s.strict = strict
		return nil
	}
}

func WithStages(stages ...fir.StageKey) Option {
	return func(s *settings) error {
		if len(stages) == 0 {
			return fmt.Errorf("must specify at least 1 filter stage")
		}
		s.stages = append([]fir.StageKey(nil), stages...)
		return nil
	}
}

func newSettings(opts []Option) (settings, error) {
	s := settings{
		logger:   log.Logger,
		writeAPI: &util.MockWriteAPI{}, // overwritten with option
		workers:  runtime.NumCPU(),
		stages:   DefaultStages,
	}
	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return settings{}, err
		}
	}
	return s, nil
}
