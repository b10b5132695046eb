package repeater

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
)

// TransmitSequencer keys the transmitter and plays out everything queued.
// The controller only invokes it when the channel sampled free this tick;
// the sequencer holds the key for the whole drain without re-checking busy,
// so a station keying up mid-announcement waits out the announcement rather
// than interrupting it.
type TransmitSequencer struct {
	c *Controller
}

func newTransmitSequencer(c *Controller) *TransmitSequencer {
	return &TransmitSequencer{c: c}
}

// Drain transmits the whole queue in order. If keying fails the queue is
// left intact for the next free tick. Once keyed, the queue is cleared even
// if individual clips fail to play.
func (t *TransmitSequencer) Drain(q *PendingQueue) {
	if q.Len() == 0 {
		return
	}

	if err := t.c.line.SetTransmit(true); err != nil {
		t.c.logger.Error().Err(err).Msg("failed to key transmitter")
		return
	}

	start := t.c.now()
	time.Sleep(t.c.opts.PreTXDelay)

	clips := q.Take()
	failures := 0
	for _, clip := range clips {
		t.c.logger.Info().Str("clip", clip).Msg("playing")
		if err := t.c.opts.Player.Play(clip); err != nil {
			failures++
			t.c.logger.Error().Err(err).Str("clip", clip).Msg("failed to play clip")
		}
	}

	time.Sleep(t.c.opts.PostTXDelay)

	if err := t.c.line.SetTransmit(false); err != nil {
		// The clips were already delivered; the shutdown path deasserts
		// the line again.
		t.c.logger.Error().Err(err).Msg("failed to unkey transmitter")
	}

	go t.c.writeAPI.WritePoint(influxdb2.NewPoint("repeater.transmit",
		map[string]string{
			"callsign": t.c.opts.Callsign,
		},
		map[string]interface{}{
			"clips":       len(clips),
			"failures":    failures,
			"duration_ms": t.c.now().Sub(start).Milliseconds(),
		}, time.Now()))
}
