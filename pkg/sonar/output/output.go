// Package output exports per-ping processing results as Parquet.
package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/norasector/sonartx/pkg/sonar"
	parquet "github.com/parquet-go/parquet-go"
)

// Record is one row of the results file.
type Record struct {
	Ping           int64   `parquet:"ping"`
	PingTimeMicros int64   `parquet:"ping_time_us"`
	PulseForm      int32   `parquet:"pulse_form"`
	SampleInterval float64 `parquet:"sample_interval"`
	SignalLength   int32   `parquet:"signal_length"`
	Recomputed     bool    `parquet:"recomputed"`
	TauEff         float32 `parquet:"tau_eff"`
	TauEffReused   bool    `parquet:"tau_eff_reused"`
	Compressed     bool    `parquet:"compressed"`
	Error          string  `parquet:"error"`
}

// Records merges the build and estimation results of one run into one
// record per ping of batch. built and estimated may cover any subset of the
// pings.
func Records(batch *sonar.PingBatch, built sonar.BuildResults, estimated sonar.EstimateResults) []Record {
	ret := make([]Record, batch.NumPings())
	for i := range ret {
		ret[i] = Record{
			Ping:           int64(i),
			PingTimeMicros: batch.PingTime[i].UnixMicro(),
			PulseForm:      int32(batch.PulseForm[i]),
			SampleInterval: batch.SampleInterval[i],
		}
	}

	for _, b := range built {
		r := &ret[b.Ping]
		r.SignalLength = int32(len(b.Signal))
		r.Recomputed = b.Recomputed
		if b.Err != nil {
			r.Error = b.Err.Error()
		}
	}
	for _, e := range estimated {
		r := &ret[e.Ping]
		r.TauEff = e.TauEff
		r.TauEffReused = e.Reused
		if e.Err != nil && r.Error == "" {
			r.Error = e.Err.Error()
		}
	}
	return ret
}

// MarkCompressed flags the FM pings among pings (every ping when nil) that
// CompressInPlace processed, given the error it returned. Only a
// *sonar.BatchError leaves the other pings known good.
func MarkCompressed(records []Record, batch *sonar.PingBatch, pings []int, compressErr error) {
	failed := make(map[int]error)
	var batchErr *sonar.BatchError
	var pingErr *sonar.PingError
	switch {
	case compressErr == nil:
	case errors.As(compressErr, &batchErr):
		for _, pe := range batchErr.Errors {
			failed[pe.Ping] = pe.Err
		}
	case errors.As(compressErr, &pingErr):
		if records[pingErr.Ping].Error == "" {
			records[pingErr.Ping].Error = pingErr.Err.Error()
		}
		return
	default:
		return
	}

	if pings == nil {
		pings = make([]int, len(records))
		for i := range pings {
			pings[i] = i
		}
	}
	for _, p := range pings {
		if !batch.IsFM(p) {
			continue
		}
		if err, ok := failed[p]; ok {
			if records[p].Error == "" {
				records[p].Error = err.Error()
			}
			continue
		}
		records[p].Compressed = true
	}
}

func Write(w io.Writer, records []Record, opts ...parquet.WriterOption) error {
	pw := parquet.NewGenericWriter[Record](w, opts...)
	if _, err := pw.Write(records); err != nil {
		pw.Close()
		return fmt.Errorf("writing %d records: %w", len(records), err)
	}
	return pw.Close()
}

// WriteFile writes records to path with zstd compression.
func WriteFile(path string, records []Record) error {
	var buf bytes.Buffer
	if err := Write(&buf, records, parquet.Compression(&parquet.Zstd)); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func Read(ra io.ReaderAt) ([]Record, error) {
	gr := parquet.NewGenericReader[Record](ra)
	defer gr.Close()

	out := make([]Record, 0, gr.NumRows())
	batch := make([]Record, 256)
	for {
		n, err := gr.Read(batch)
		if n > 0 {
			out = append(out, batch[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func ReadFile(path string) ([]Record, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Read(bytes.NewReader(contents))
}
