package file

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/norasector/sonartx/pkg/sonar"
	"github.com/norasector/turbine-common/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad(t *testing.T) {
	data := sonar.NewReceiveData(2, 3, 2)
	for i := range data.Data {
		data.Data[i] = complex(float64(i), -0.5*float64(i))
	}

	path := filepath.Join(t.TempDir(), "pings.raw")
	require.NoError(t, Save(path, data))

	got, err := Load(path, FormatCF32, 2, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, complex(7, -3.5), got.At(1, 0, 1))
}

func TestReadShort(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sonar.NewReceiveData(1, 2, 1)))

	_, err := Read(&buf, FormatCF32, 1, 3, 1)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	_, err = Read(bytes.NewReader([]byte{1, 2, 3}), FormatCS8, 1, 2, 1)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestReadCS8(t *testing.T) {
	raw := []byte{0x7f, 0x80, 0x00, 0x40, 0xc0, 0x01}
	seg := types.SegmentCS8Raw{Data: append([]byte(nil), raw...)}
	want := seg.ToComplex64().Data

	got, err := Read(bytes.NewReader(raw), FormatCS8, 1, 3, 1)
	require.NoError(t, err)
	require.Len(t, got.Data, 3)
	for i := range want {
		assert.Equal(t, complex128(want[i]), got.Data[i])
	}
}

func TestUnknownFormat(t *testing.T) {
	_, err := Read(bytes.NewReader(nil), Format("wav"), 1, 1, 1)
	assert.Error(t, err)
}
