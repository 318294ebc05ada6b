package util

import (
	"errors"
	"testing"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
)

func TestMockWriteAPI(t *testing.T) {
	m := &MockWriteAPI{}
	m.WriteRecord("ignored value=1")
	m.WritePoint(influxdb2.NewPoint("test.point", map[string]string{"a": "b"}, map[string]interface{}{"v": 1}, time.Now()))

	points := m.Points()
	if len(points) != 1 {
		t.Fatalf("Points() returned %d points, want 1", len(points))
	}
	if points[0].Name() != "test.point" {
		t.Errorf("point name = %s, want test.point", points[0].Name())
	}
	if m.Errors() != nil {
		t.Errorf("Errors() should be nil")
	}
}

func TestTimeOperation(t *testing.T) {
	ran := false
	if d := TimeOperationMicroseconds(func() { ran = true }); d < 0 || !ran {
		t.Errorf("TimeOperationMicroseconds() = %d, ran = %v", d, ran)
	}

	want := errors.New("boom")
	if _, err := TimeOperationErrMicroseconds(func() error { return want }); err != want {
		t.Errorf("TimeOperationErrMicroseconds() error = %v, want %v", err, want)
	}
}

func TestFrequencyStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{KHzToString(38000), "38.000 kHz"},
		{KHzToString(70500), "70.500 kHz"},
		{MHzToString(1.5e6), "1.5000 MHz"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
