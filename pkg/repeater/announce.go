package repeater

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
)

// AnnouncementScheduler decides when the station ID and repeater info clips
// are due and appends them to the pending queue. The info announcement
// always carries a trailing ID, which advances both watermarks so the ID
// timer does not fire again right after. A watermark only advances when its
// clip is actually enqueued; a timer gated off while sleeping keeps its
// watermark and fires on the first awake tick.
type AnnouncementScheduler struct {
	c        *Controller
	lastID   time.Time
	lastInfo time.Time
}

func newAnnouncementScheduler(c *Controller) *AnnouncementScheduler {
	now := c.now()
	return &AnnouncementScheduler{c: c, lastID: now, lastInfo: now}
}

func (a *AnnouncementScheduler) Tick(sleeping bool, q *PendingQueue) {
	now := a.c.now()

	if now.Sub(a.lastInfo) >= a.c.opts.InfoInterval && (!sleeping || a.c.opts.InfoWhenSleeping) {
		q.Append(a.c.opts.InfoClip, a.c.opts.IDClip)
		a.lastInfo = now
		a.lastID = now
		a.c.logger.Info().Str("clip", a.c.opts.InfoClip).Msg("repeater info due")
		a.writeDue("info")
	}

	if now.Sub(a.lastID) >= a.c.opts.IDInterval && (!sleeping || a.c.opts.IDWhenSleeping) {
		q.Append(a.c.opts.IDClip)
		a.lastID = now
		a.c.logger.Info().Str("clip", a.c.opts.IDClip).Msg("station id due")
		a.writeDue("id")
	}
}

func (a *AnnouncementScheduler) writeDue(kind string) {
	go a.c.writeAPI.WritePoint(influxdb2.NewPoint("repeater.announcement",
		map[string]string{
			"callsign": a.c.opts.Callsign,
			"kind":     kind,
		},
		map[string]interface{}{
			"due": true,
		}, time.Now()))
}
