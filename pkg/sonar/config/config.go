package config

import (
	"fmt"
	"os"
	"time"

	"github.com/norasector/sonartx/pkg/dsp/filters/fir"
	"github.com/norasector/sonartx/pkg/sonar"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Samples          int                      `yaml:"samples"`
	Channels         int                      `yaml:"channels"`
	SampleInterval   float64                  `yaml:"sample_interval"`
	StartTime        time.Time                `yaml:"start_time"`
	PingInterval     time.Duration            `yaml:"ping_interval"`
	Workers          int                      `yaml:"workers"`
	Strict           bool                     `yaml:"strict"`
	Stages           []string                 `yaml:"stages,flow"`
	FilterSets       map[string][]FilterStage `yaml:"filter_sets"`
	Pings            []Ping                   `yaml:"pings"`
	PlaybackLocation string                   `yaml:"playback_location"`
	PlaybackFormat   string                   `yaml:"playback_format"`
	RecordLocation   string                   `yaml:"record_location"`
	Outputs          struct {
		Results string `yaml:"results"`
		PlotDir string `yaml:"plot_dir"`
	} `yaml:"outputs"`
	InfluxDB struct {
		Host         string `yaml:"host"`
		Organization string `yaml:"organization"`
		Bucket       string `yaml:"bucket"`
	} `yaml:"influxdb"`
}

// Ping describes Repeat consecutive pings sharing one calibration.
type Ping struct {
	Repeat         int                `yaml:"repeat"`
	PulseForm      int                `yaml:"pulse_form"`
	SampleInterval float64            `yaml:"sample_interval"`
	FilterSets     []string           `yaml:"filter_sets,flow"`
	Calibration    map[string]float64 `yaml:"calibration"`
}

func (p Ping) count() int {
	if p.Repeat <= 0 {
		return 1
	}
	return p.Repeat
}

// FilterStage is one FIR stage. Coefficients are [re, im] pairs; a single
// value is a real coefficient.
type FilterStage struct {
	Key          string      `yaml:"key"`
	Decimation   int         `yaml:"decimation"`
	Coefficients [][]float64 `yaml:"coefficients"`
}

func (f FilterStage) Stage() (fir.Stage, error) {
	stage := fir.Stage{
		Coefficients: make([]complex128, len(f.Coefficients)),
		Decimation:   f.Decimation,
	}
	for i, c := range f.Coefficients {
		switch len(c) {
		case 1:
			stage.Coefficients[i] = complex(c[0], 0)
		case 2:
			stage.Coefficients[i] = complex(c[0], c[1])
		default:
			return fir.Stage{}, fmt.Errorf("stage %s coefficient %d has %d values", f.Key, i, len(c))
		}
	}
	if err := stage.Validate(); err != nil {
		return fir.Stage{}, fmt.Errorf("stage %s: %w", f.Key, err)
	}
	return stage, nil
}

// Load reads and validates the YAML file at path.
func Load(path string) (*Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return Parse(contents)
}

func Parse(contents []byte) (*Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(contents, &c); err != nil {
		return nil, fmt.Errorf("error unmarshaling yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if len(c.Pings) == 0 {
		return fmt.Errorf("must specify at least 1 ping")
	}
	if c.Samples < 0 || c.Channels < 0 {
		return fmt.Errorf("invalid receive data shape: %d samples, %d channels", c.Samples, c.Channels)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	for name := range c.FilterSets {
		if _, err := c.FilterSet(name); err != nil {
			return err
		}
	}
	for i, p := range c.Pings {
		if p.Repeat < 0 {
			return fmt.Errorf("ping entry %d: negative repeat %d", i, p.Repeat)
		}
		for _, name := range p.FilterSets {
			if _, ok := c.FilterSets[name]; !ok {
				return fmt.Errorf("ping entry %d: unknown filter set %q", i, name)
			}
		}
	}
	return nil
}

// NumPings is the number of pings after expanding repeats.
func (c *Config) NumPings() int {
	n := 0
	for _, p := range c.Pings {
		n += p.count()
	}
	return n
}

func (c *Config) FilterSet(name string) (fir.Set, error) {
	stages, ok := c.FilterSets[name]
	if !ok {
		return nil, fmt.Errorf("unknown filter set %q", name)
	}
	set := make(fir.Set, len(stages))
	for _, s := range stages {
		key := fir.StageKey(s.Key)
		if _, dup := set[key]; dup {
			return nil, fmt.Errorf("filter set %q: duplicate stage %s", name, s.Key)
		}
		stage, err := s.Stage()
		if err != nil {
			return nil, fmt.Errorf("filter set %q: %w", name, err)
		}
		set[key] = stage
	}
	return set, nil
}

// StageKeys returns the configured filter stages, or sonar.DefaultStages.
func (c *Config) StageKeys() []fir.StageKey {
	if len(c.Stages) == 0 {
		return sonar.DefaultStages
	}
	ret := make([]fir.StageKey, len(c.Stages))
	for i, s := range c.Stages {
		ret[i] = fir.StageKey(s)
	}
	return ret
}

// Calibration expands the ping entries into one calibration record per
// ping. Pings produced by the same entry share their maps.
func (c *Config) Calibration() (sonar.MapCalibration, error) {
	ret := make(sonar.MapCalibration, 0, c.NumPings())
	for _, p := range c.Pings {
		rec := sonar.PingCalibration{Values: p.Calibration}
		for _, name := range p.FilterSets {
			set, err := c.FilterSet(name)
			if err != nil {
				return nil, err
			}
			rec.Filters = append(rec.Filters, set)
		}
		for i := 0; i < p.count(); i++ {
			ret = append(ret, rec)
		}
	}
	return ret, nil
}

// Batch returns the ping metadata. Receive data is left for the caller to
// attach.
func (c *Config) Batch() *sonar.PingBatch {
	n := c.NumPings()
	b := &sonar.PingBatch{
		PingTime:       make([]time.Time, 0, n),
		SampleInterval: make([]float64, 0, n),
		PulseForm:      make([]int, 0, n),
	}
	for _, p := range c.Pings {
		interval := p.SampleInterval
		if interval == 0 {
			interval = c.SampleInterval
		}
		for i := 0; i < p.count(); i++ {
			b.PingTime = append(b.PingTime, c.StartTime.Add(time.Duration(len(b.PingTime))*c.PingInterval))
			b.SampleInterval = append(b.SampleInterval, interval)
			b.PulseForm = append(b.PulseForm, p.PulseForm)
		}
	}
	return b
}

// Options returns the sonar options carried by the config.
func (c *Config) Options() []sonar.Option {
	opts := []sonar.Option{
		sonar.WithStrict(c.Strict),
		sonar.WithStages(c.StageKeys()...),
	}
	if c.Workers > 0 {
		opts = append(opts, sonar.WithWorkers(c.Workers))
	}
	return opts
}
