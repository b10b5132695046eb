package repeater

import (
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/wrxc682/repeaterd/pkg/repeater/audio"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.t = f.t.Add(d)
}

// fakeLine scripts the busy signal and records every keying call. keyings
// remembers the busy state at the moment of each SetTransmit(true) so tests
// can check the transmitter is never keyed into a busy channel.
type fakeLine struct {
	busy    bool
	busyErr error

	transmit  bool
	keyErr    error
	unkeyErr  error
	keyCalls  []bool
	keyedBusy []bool
	closed    bool
}

func (l *fakeLine) ReadBusy() (bool, error) {
	if l.busyErr != nil {
		return false, l.busyErr
	}
	return l.busy, nil
}

func (l *fakeLine) SetTransmit(on bool) error {
	if on && l.keyErr != nil {
		return l.keyErr
	}
	if !on && l.unkeyErr != nil {
		return l.unkeyErr
	}
	if on {
		l.keyedBusy = append(l.keyedBusy, l.busy)
	}
	l.transmit = on
	l.keyCalls = append(l.keyCalls, on)
	return nil
}

func (l *fakeLine) Close() error {
	l.closed = true
	return nil
}

// fakePlayer records what it plays and whether the transmitter was keyed at
// the time.
type fakePlayer struct {
	line      *fakeLine
	played    []string
	keyedWhen []bool
	failing   map[string]error
}

func (p *fakePlayer) Play(path string) error {
	p.played = append(p.played, path)
	if p.line != nil {
		p.keyedWhen = append(p.keyedWhen, p.line.transmit)
	}
	if err, ok := p.failing[path]; ok {
		return err
	}
	return nil
}

type fakeCapture struct {
	rec     *fakeRecorder
	path    string
	stopped bool
	stopErr error
}

func (c *fakeCapture) Stop() error {
	if !c.stopped {
		c.stopped = true
		c.rec.live--
	}
	return c.stopErr
}

// fakeRecorder creates real (empty) files so the discard path has
// something to delete. It tracks how many captures are live at once.
type fakeRecorder struct {
	started  []string
	captures []*fakeCapture
	startErr error
	stopErr  error
	live     int
	maxLive  int
}

func (r *fakeRecorder) Start(path string) (audio.Capture, error) {
	if r.startErr != nil {
		return nil, r.startErr
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return nil, err
	}
	c := &fakeCapture{rec: r, path: path, stopErr: r.stopErr}
	r.started = append(r.started, path)
	r.captures = append(r.captures, c)
	r.live++
	if r.live > r.maxLive {
		r.maxLive = r.live
	}
	return c, nil
}

// testOptions is a working baseline the tests mutate as needed. TX delays
// are zero so drains complete instantly.
func testOptions(t *testing.T, player *fakePlayer, rec *fakeRecorder) Options {
	t.Helper()
	return Options{
		Player:        player,
		Recorder:      rec,
		Callsign:      "W1AW",
		PollInterval:  10 * time.Millisecond,
		IDInterval:    15 * time.Minute,
		InfoInterval:  time.Hour,
		SleepAfter:    10 * time.Minute,
		WakeAfter:     2 * time.Second,
		MinRecording:  2 * time.Second,
		RecordingsDir: t.TempDir(),
		IDClip:        "sounds/cw_id.wav",
		InfoClip:      "sounds/repeater_info.wav",
	}
}

func newTestController(t *testing.T, l *fakeLine, clock *fakeClock, opts Options) *Controller {
	t.Helper()
	c, err := New(l, opts, WithLogger(zerolog.Nop()), WithClock(clock.Now))
	require.NoError(t, err)
	return c
}
