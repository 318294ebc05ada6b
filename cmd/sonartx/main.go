package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/norasector/sonartx/pkg/dsp/processor"
	"github.com/norasector/sonartx/pkg/dsp/viz"
	"github.com/norasector/sonartx/pkg/sonar"
	"github.com/norasector/sonartx/pkg/sonar/config"
	"github.com/norasector/sonartx/pkg/sonar/output"
	"github.com/norasector/sonartx/pkg/sonar/source/file"
	"github.com/norasector/sonartx/pkg/util"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)
	configFile := flag.String("config", "sonartx.yaml", "YAML config file")
	debug := flag.Bool("debug", false, "enable debug logging")

	flag.Parse()
	if *configFile == "" {
		flag.Usage()
		os.Exit(1)
	}
	if *debug {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configFile).Msg("error loading config")
	}

	var writeAPI api.WriteAPI = &util.MockWriteAPI{}
	if cfg.InfluxDB.Host != "" {
		client := influxdb2.NewClient(cfg.InfluxDB.Host, "")
		defer client.Close()
		writeAPI = client.WriteAPI(cfg.InfluxDB.Organization, cfg.InfluxDB.Bucket)
		defer writeAPI.Flush()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	eg.Go(func() error {
		select {
		case <-sigChan:
			log.Info().Msg("interrupted")
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	eg.Go(func() error {
		defer cancel()
		return run(ctx, cfg, writeAPI)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("exited program")
	}
}

func run(ctx context.Context, cfg *config.Config, writeAPI api.WriteAPI) error {
	cal, err := cfg.Calibration()
	if err != nil {
		return err
	}
	batch := cfg.Batch()

	if cfg.PlaybackLocation != "" {
		log.Info().Str("file", cfg.PlaybackLocation).Msg("reading receive data...")
		batch.Data, err = file.Load(cfg.PlaybackLocation, file.Format(cfg.PlaybackFormat),
			batch.NumPings(), cfg.Samples, cfg.Channels)
		if err != nil {
			return fmt.Errorf("error reading receive data: %w", err)
		}
	}

	opts := append(cfg.Options(),
		sonar.WithLogger(log.Logger),
		sonar.WithInfluxDB(writeAPI),
	)

	builder, err := sonar.NewBuilder(cal, opts...)
	if err != nil {
		return err
	}
	built, err := builder.Build(ctx, batch, nil)
	if err != nil {
		return err
	}
	estimated := sonar.EstimateSignals(built, batch.SampleInterval)
	for _, res := range estimated {
		if res.Err != nil {
			log.Warn().Int("ping", res.Ping).Err(res.Err).Msg("no effective pulse duration")
			continue
		}
		log.Debug().Int("ping", res.Ping).Float32("tau_eff", res.TauEff).Bool("reused", res.Reused).Msg("effective pulse duration")
	}
	if err := estimated.Err(); err != nil && cfg.Strict {
		return err
	}

	var producers []viz.Producer
	if cfg.Outputs.PlotDir != "" {
		producers = signalPlots(cal, built, cfg)
	}

	records := output.Records(batch, built, estimated)
	if batch.Data != nil {
		compressor, err := sonar.NewCompressor(cal, opts...)
		if err != nil {
			return err
		}
		compressErr := compressor.CompressInPlace(ctx, batch, nil)
		var batchErr *sonar.BatchError
		switch {
		case compressErr == nil:
		case errors.As(compressErr, &batchErr):
			log.Warn().Int("failed", len(batchErr.Errors)).Msg("some pings were not compressed")
		default:
			return compressErr
		}
		output.MarkCompressed(records, batch, nil, compressErr)

		if cfg.RecordLocation != "" {
			if err := file.Save(cfg.RecordLocation, batch.Data); err != nil {
				return fmt.Errorf("error writing compressed data: %w", err)
			}
			log.Info().Str("file", cfg.RecordLocation).Msg("wrote compressed receive data")
		}
		if cfg.Outputs.PlotDir != "" {
			producers = append(producers, tracePlots(batch, records)...)
		}
	}

	if len(producers) > 0 {
		paths, err := viz.WriteAll(cfg.Outputs.PlotDir, producers...)
		if err != nil {
			return err
		}
		log.Info().Int("plots", len(paths)).Str("dir", cfg.Outputs.PlotDir).Msg("wrote plots")
	}

	if cfg.Outputs.Results != "" {
		if err := output.WriteFile(cfg.Outputs.Results, records); err != nil {
			return fmt.Errorf("error writing results: %w", err)
		}
		log.Info().Str("file", cfg.Outputs.Results).Int("pings", len(records)).Msg("wrote results")
	}

	log.Info().Int("pings", batch.NumPings()).Msg("done")
	return nil
}

// signalPlots draws every newly synthesized transmit signal and its
// spectrum at the rate it leaves the filter cascade.
func signalPlots(cal sonar.Calibration, built sonar.BuildResults, cfg *config.Config) []viz.Producer {
	var ret []viz.Producer
	for _, res := range built {
		if !res.Recomputed {
			continue
		}
		snap, err := sonar.SnapshotFor(cal, res.Ping)
		if err != nil {
			continue
		}
		cascade, err := processor.NewCascade(snap.Filters, snap.RxSampleFrequency, cfg.StageKeys()...)
		if err != nil {
			continue
		}
		rate := cascade.OutputRate()

		td := viz.NewTimeDomainPlotter(fmt.Sprintf("ping_%04d_tx", res.Ping), 1/rate)
		td.SetSamples(res.Signal)
		spectrum := viz.NewFFTPlotter(fmt.Sprintf("ping_%04d_tx_spectrum", res.Ping), rate)
		spectrum.SetSamples(res.Signal)
		ret = append(ret, td, spectrum)
	}
	return ret
}

// tracePlots draws channel 0 of the first compressed ping.
func tracePlots(batch *sonar.PingBatch, records []output.Record) []viz.Producer {
	for _, r := range records {
		if !r.Compressed || batch.Data.Channels == 0 {
			continue
		}
		ping := int(r.Ping)
		td := viz.NewTimeDomainPlotter(fmt.Sprintf("ping_%04d_compressed", ping), batch.SampleInterval[ping])
		td.SetSamples(batch.Data.Trace(ping, 0).Samples())
		return []viz.Producer{td}
	}
	return nil
}
