package repeater

import (
	"os"
	"path/filepath"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/lestrrat-go/strftime"

	"github.com/wrxc682/repeaterd/pkg/repeater/audio"
)

// Recording artifacts are named by their start time.
var recordingPattern = mustPattern("%Y-%m-%d_%H-%M-%S")

func mustPattern(p string) *strftime.Strftime {
	f, err := strftime.New(p)
	if err != nil {
		panic(err)
	}
	return f
}

// RecordingManager starts a capture when the receiver goes busy and stops
// it when the channel frees again. Artifacts shorter than min_recording
// (squelch tails, kerchunks) are deleted. At most one capture is ever live.
type RecordingManager struct {
	c         *Controller
	capture   audio.Capture
	path      string
	startedAt time.Time
}

func newRecordingManager(c *Controller) *RecordingManager {
	return &RecordingManager{c: c}
}

// Reconcile aligns the recording state with this tick's busy sample.
func (r *RecordingManager) Reconcile(busy bool) {
	switch {
	case busy && r.capture == nil:
		r.start()
	case !busy && r.capture != nil:
		r.stop()
	}
}

// Shutdown stops any live capture. The keep-or-discard policy still
// applies to the artifact.
func (r *RecordingManager) Shutdown() {
	if r.capture != nil {
		r.stop()
	}
}

// Recording reports whether a capture is live and the file it writes to.
func (r *RecordingManager) Recording() (bool, string) {
	return r.capture != nil, r.path
}

func (r *RecordingManager) start() {
	now := r.c.now()
	path := filepath.Join(r.c.opts.RecordingsDir, recordingPattern.FormatString(now)+".wav")

	capture, err := r.c.opts.Recorder.Start(path)
	if err != nil {
		// Stay idle; retried next tick while the channel is still busy.
		r.c.logger.Error().Err(err).Str("file", path).Msg("failed to start recording")
		return
	}

	r.capture = capture
	r.path = path
	r.startedAt = now
	r.c.logger.Info().Str("file", path).Msg("recording")
}

func (r *RecordingManager) stop() {
	if err := r.capture.Stop(); err != nil {
		r.c.logger.Error().Err(err).Str("file", r.path).Msg("failed to stop recording")
	}

	duration := r.c.now().Sub(r.startedAt)
	kept := duration >= r.c.opts.MinRecording
	if kept {
		r.c.logger.Info().
			Str("file", r.path).
			Float64("seconds", duration.Seconds()).
			Msg("recorded")
	} else {
		if err := os.Remove(r.path); err != nil {
			r.c.logger.Error().Err(err).Str("file", r.path).Msg("failed to remove short recording")
		}
		r.c.logger.Debug().
			Str("file", r.path).
			Float64("seconds", duration.Seconds()).
			Msg("discarded short recording")
	}

	go r.c.writeAPI.WritePoint(influxdb2.NewPoint("repeater.recording",
		map[string]string{
			"callsign": r.c.opts.Callsign,
		},
		map[string]interface{}{
			"seconds": duration.Seconds(),
			"kept":    kept,
		}, time.Now()))

	r.capture = nil
	r.path = ""
	r.startedAt = time.Time{}
}
