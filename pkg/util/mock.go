package util

import (
	"sync"

	"github.com/influxdata/influxdb-client-go/api/write"
)

// MockWriteAPI stands in for an influx write API when no database is
// configured. Points are kept in memory so they can be inspected.
type MockWriteAPI struct {
	mu     sync.Mutex
	points []*write.Point
}

// WriteRecord discards line protocol records.
func (m *MockWriteAPI) WriteRecord(line string) {}

// WritePoint stores the point.
func (m *MockWriteAPI) WritePoint(point *write.Point) {
	m.mu.Lock()
	m.points = append(m.points, point)
	m.mu.Unlock()
}

// Points returns the points written so far.
func (m *MockWriteAPI) Points() []*write.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret := make([]*write.Point, len(m.points))
	copy(ret, m.points)
	return ret
}

func (m *MockWriteAPI) Flush() {}

func (m *MockWriteAPI) Close() {}

func (m *MockWriteAPI) Errors() <-chan error { return nil }
