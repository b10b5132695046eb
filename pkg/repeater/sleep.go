package repeater

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
)

// SleepManager puts the controller to sleep once the channel has seen no
// incoming transmission for sleep_after, and wakes it once the channel has
// been busy continuously for wake_after. Because lastReceived re-arms on
// every free-to-busy edge, carrier flaps shorter than wake_after never
// wake a sleeping controller.
type SleepManager struct {
	c            *Controller
	sleeping     bool
	sleepStarted time.Time
}

func newSleepManager(c *Controller) *SleepManager {
	return &SleepManager{c: c}
}

func (s *SleepManager) Tick(busy bool, lastReceived time.Time) {
	now := s.c.now()

	if !s.sleeping {
		if idle := now.Sub(lastReceived); idle >= s.c.opts.SleepAfter {
			s.sleeping = true
			s.sleepStarted = now
			s.c.logger.Info().
				Float64("idle_minutes", idle.Minutes()).
				Msg("going to sleep")
			s.writeState(true)
		}
		return
	}

	if busy && now.Sub(lastReceived) >= s.c.opts.WakeAfter {
		slept := now.Sub(s.sleepStarted)
		s.sleeping = false
		s.sleepStarted = time.Time{}
		s.c.logger.Info().
			Float64("slept_minutes", slept.Minutes()).
			Msg("waking up")
		s.writeState(false)
	}
}

func (s *SleepManager) Sleeping() bool {
	return s.sleeping
}

func (s *SleepManager) writeState(sleeping bool) {
	go s.c.writeAPI.WritePoint(influxdb2.NewPoint("repeater.sleep",
		map[string]string{
			"callsign": s.c.opts.Callsign,
		},
		map[string]interface{}{
			"sleeping": sleeping,
		}, time.Now()))
}
