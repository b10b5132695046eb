package repeater

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"

	"github.com/wrxc682/repeaterd/pkg/repeater/audio"
	"github.com/wrxc682/repeaterd/pkg/repeater/line"
	"github.com/wrxc682/repeaterd/pkg/util"
)

// Controller runs the repeater: it samples the busy signal on a fixed
// interval and, on each tick, reconciles the recording state, the sleep
// state, and the announcement timers, then drains any pending clips if the
// channel is free. All control state is owned by the tick loop; the only
// things other goroutines may touch are Status and Stop.
type Controller struct {
	line     line.Line
	opts     Options
	writeAPI api.WriteAPI
	logger   zerolog.Logger
	now      func() time.Time

	busy      *BusyMonitor
	recording *RecordingManager
	sleep     *SleepManager
	announce  *AnnouncementScheduler
	transmit  *TransmitSequencer
	queue     *PendingQueue

	mu     sync.RWMutex
	status Status

	ctx    context.Context
	cancel context.CancelFunc
}

// Options are the per-run settings of the controller. All durations are
// required to be positive except the TX delays and MinRecording, which may
// be zero.
type Options struct {
	Player   audio.Player
	Recorder audio.Recorder

	Callsign          string
	PollInterval      time.Duration
	PreTXDelay        time.Duration
	PostTXDelay       time.Duration
	IDInterval        time.Duration
	InfoInterval      time.Duration
	SleepAfter        time.Duration
	WakeAfter         time.Duration
	MinRecording      time.Duration
	IDWhenSleeping    bool
	InfoWhenSleeping  bool
	AnnounceOnStartup bool
	RecordingsDir     string
	IDClip            string
	InfoClip          string
}

func (o Options) validate() error {
	if o.Player == nil || o.Recorder == nil {
		return fmt.Errorf("must specify a player and a recorder")
	}
	if o.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if o.IDInterval <= 0 || o.InfoInterval <= 0 {
		return fmt.Errorf("id and info intervals must be positive")
	}
	if o.SleepAfter <= 0 || o.WakeAfter <= 0 {
		return fmt.Errorf("sleep and wake durations must be positive")
	}
	if o.PreTXDelay < 0 || o.PostTXDelay < 0 || o.MinRecording < 0 {
		return fmt.Errorf("delays and minimum recording length must not be negative")
	}
	if o.IDClip == "" || o.InfoClip == "" {
		return fmt.Errorf("must specify the id and info clips")
	}
	if o.RecordingsDir == "" {
		return fmt.Errorf("must specify the recordings directory")
	}
	return nil
}

// Status is the controller's published state snapshot.
type Status struct {
	Callsign      string    `json:"callsign"`
	Busy          bool      `json:"busy"`
	Sleeping      bool      `json:"sleeping"`
	Recording     bool      `json:"recording"`
	RecordingFile string    `json:"recording_file,omitempty"`
	LastReceived  time.Time `json:"last_received"`
	LastID        time.Time `json:"last_id"`
	LastInfo      time.Time `json:"last_info"`
	QueuedClips   []string  `json:"queued_clips"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ControllerOption func(c *Controller) error

func WithInfluxDB(influxClient api.WriteAPI) ControllerOption {
	return func(c *Controller) error {
		c.writeAPI = influxClient
		return nil
	}
}

func WithLogger(logger zerolog.Logger) ControllerOption {
	return func(c *Controller) error {
		c.logger = logger
		return nil
	}
}

// WithClock substitutes the time source used by the controller's state
// machines.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) error {
		c.now = now
		return nil
	}
}

func New(l line.Line, options Options, opts ...ControllerOption) (*Controller, error) {
	c := &Controller{
		line:     l,
		opts:     options,
		writeAPI: &util.NopWriteAPI{}, // overwritten with option
		logger:   log.Logger,
		now:      time.Now,
		queue:    &PendingQueue{},
		cancel:   func() {},
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if l == nil {
		return nil, fmt.Errorf("must specify a line")
	}
	if err := c.opts.validate(); err != nil {
		return nil, err
	}

	c.busy = newBusyMonitor(c)
	c.recording = newRecordingManager(c)
	c.sleep = newSleepManager(c)
	c.announce = newAnnouncementScheduler(c)
	c.transmit = newTransmitSequencer(c)

	if c.opts.AnnounceOnStartup {
		c.queue.Append(c.opts.InfoClip, c.opts.IDClip)
	}

	return c, nil
}

// Run owns the tick loop until ctx is cancelled or Stop is called.
// Cancellation is honored between ticks, never while the transmitter is
// keyed. On exit any live recording is stopped, the transmitter is
// deasserted, and the line is closed.
func (c *Controller) Run(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	if err := os.MkdirAll(c.opts.RecordingsDir, 0o755); err != nil {
		return fmt.Errorf("create recordings directory: %w", err)
	}

	defer c.shutdown()

	c.logger.Info().
		Str("callsign", c.opts.Callsign).
		Dur("poll_interval", c.opts.PollInterval).
		Dur("id_interval", c.opts.IDInterval).
		Dur("info_interval", c.opts.InfoInterval).
		Int("queued", c.queue.Len()).
		Msg("starting repeater controller")

	c.publishStatus()

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return c.ctx.Err()
		case <-ticker.C:
			took := util.TimeOperationMicroseconds(c.tick)
			go c.writeAPI.WritePoint(influxdb2.NewPoint("repeater.tick",
				map[string]string{
					"callsign": c.opts.Callsign,
				},
				map[string]interface{}{
					"duration_us": took,
				}, time.Now()))
		}
	}
}

func (c *Controller) Stop() error {
	c.cancel()
	return nil
}

// Status returns the snapshot published at the end of the last tick.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// tick runs the five control steps in their fixed order. A busy-read
// failure aborts the tick; every later step works from this tick's sample.
func (c *Controller) tick() {
	if _, err := c.busy.Sample(); err != nil {
		c.logger.Error().Err(err).Msg("failed to read busy signal")
		return
	}
	busy := c.busy.Busy()

	c.recording.Reconcile(busy)
	c.sleep.Tick(busy, c.busy.LastReceived())
	c.announce.Tick(c.sleep.Sleeping(), c.queue)

	if !busy && c.queue.Len() > 0 {
		c.transmit.Drain(c.queue)
	}

	c.publishStatus()
}

func (c *Controller) publishStatus() {
	recording, file := c.recording.Recording()

	c.mu.Lock()
	c.status = Status{
		Callsign:      c.opts.Callsign,
		Busy:          c.busy.Busy(),
		Sleeping:      c.sleep.Sleeping(),
		Recording:     recording,
		RecordingFile: file,
		LastReceived:  c.busy.LastReceived(),
		LastID:        c.announce.lastID,
		LastInfo:      c.announce.lastInfo,
		QueuedClips:   c.queue.Clips(),
		UpdatedAt:     c.now(),
	}
	c.mu.Unlock()
}

func (c *Controller) shutdown() {
	c.recording.Shutdown()
	if err := c.line.SetTransmit(false); err != nil {
		c.logger.Error().Err(err).Msg("failed to deassert transmit on shutdown")
	}
	if err := c.line.Close(); err != nil {
		c.logger.Error().Err(err).Msg("failed to close line")
	}
	c.logger.Info().Msg("repeater controller stopped")
}
