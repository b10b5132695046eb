package repeater

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
)

// Transition describes how the busy signal changed between two samples.
type Transition int

const (
	Unchanged Transition = iota
	BecameBusy
	BecameFree
)

// BusyMonitor keeps the controller's view of the receive-busy signal.
// lastReceived marks the most recent free-to-busy edge, so it re-arms on
// every new incoming transmission and never moves backwards.
type BusyMonitor struct {
	c            *Controller
	busy         bool
	lastReceived time.Time
}

func newBusyMonitor(c *Controller) *BusyMonitor {
	return &BusyMonitor{c: c, lastReceived: c.now()}
}

// Sample reads the line once and reports how the signal changed since the
// previous sample. On a read failure the previous state is kept.
func (m *BusyMonitor) Sample() (Transition, error) {
	busy, err := m.c.line.ReadBusy()
	if err != nil {
		return Unchanged, err
	}

	switch {
	case busy && !m.busy:
		m.busy = true
		m.lastReceived = m.c.now()
		m.c.logger.Debug().Msg("receiver busy")
		m.writeEdge(true)
		return BecameBusy, nil
	case !busy && m.busy:
		m.busy = false
		m.c.logger.Debug().Msg("receiver free")
		m.writeEdge(false)
		return BecameFree, nil
	}

	return Unchanged, nil
}

func (m *BusyMonitor) Busy() bool {
	return m.busy
}

func (m *BusyMonitor) LastReceived() time.Time {
	return m.lastReceived
}

func (m *BusyMonitor) writeEdge(busy bool) {
	go m.c.writeAPI.WritePoint(influxdb2.NewPoint("repeater.carrier",
		map[string]string{
			"callsign": m.c.opts.Callsign,
		},
		map[string]interface{}{
			"busy": busy,
		}, time.Now()))
}
