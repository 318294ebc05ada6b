// Package file reads and writes raw receive samples stored in
// [ping][sample][channel] order.
package file

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/norasector/sonartx/pkg/sonar"
	"github.com/norasector/turbine-common/types"
)

type Format string

const (
	// FormatCF32 is interleaved little-endian float32 I/Q.
	FormatCF32 Format = "cf32"
	// FormatCS8 is interleaved signed 8-bit I/Q as recorded by SDR front ends.
	FormatCS8 Format = "cs8"
)

func (f Format) sampleSize() (int, error) {
	switch f {
	case FormatCF32, "":
		return 8, nil
	case FormatCS8:
		return 2, nil
	}
	return 0, fmt.Errorf("unknown sample format %q", string(f))
}

// Read decodes pings*samples*channels samples from r.
func Read(r io.Reader, format Format, pings, samples, channels int) (*sonar.ReceiveData, error) {
	size, err := format.sampleSize()
	if err != nil {
		return nil, err
	}
	data := sonar.NewReceiveData(pings, samples, channels)
	n := len(data.Data)

	switch size {
	case 8:
		buf := make([]complex64, n)
		if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
			return nil, fmt.Errorf("reading %d cf32 samples: %w", n, err)
		}
		for i, v := range buf {
			data.Data[i] = complex128(v)
		}
	case 2:
		seg := types.SegmentCS8Raw{Data: make([]byte, 2*n)}
		if _, err := io.ReadFull(r, seg.Data); err != nil {
			return nil, fmt.Errorf("reading %d cs8 samples: %w", n, err)
		}
		for i, v := range seg.ToComplex64().Data {
			data.Data[i] = complex128(v)
		}
	}
	return data, nil
}

// Write encodes data as cf32.
func Write(w io.Writer, data *sonar.ReceiveData) error {
	if err := data.Validate(); err != nil {
		return err
	}
	buf := make([]complex64, len(data.Data))
	for i, v := range data.Data {
		buf[i] = complex64(v)
	}
	return binary.Write(w, binary.LittleEndian, buf)
}

func Load(path string, format Format, pings, samples, channels int) (*sonar.ReceiveData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(bufio.NewReader(f), format, pings, samples, channels)
}

func Save(path string, data *sonar.ReceiveData) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := Write(w, data); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
