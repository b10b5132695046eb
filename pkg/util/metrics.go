package util

import (
	"time"

	"github.com/influxdata/influxdb-client-go/api/write"
)

// NopWriteAPI discards metrics. It stands in for the InfluxDB write API
// when no metrics endpoint is configured.
type NopWriteAPI struct{}

func (m *NopWriteAPI) WriteRecord(line string) {}

func (m *NopWriteAPI) WritePoint(point *write.Point) {}

func (m *NopWriteAPI) Flush() {}

func (m *NopWriteAPI) Close() {}

// Errors returns a channel for reading errors which occur during async
// writes. Must be called before performing any writes for errors to be
// collected.
func (m *NopWriteAPI) Errors() <-chan error { return nil }

func TimeOperationMicroseconds(op func()) int64 {
	start := time.Now()
	op()
	return time.Since(start).Microseconds()
}
