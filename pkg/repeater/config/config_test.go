package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repeaterd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "callsign: WRXC682\n"))
	require.NoError(t, err)

	assert.Equal(t, "WRXC682", cfg.Callsign)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, time.Second, cfg.PreTXDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.PostTXDelay)
	assert.Equal(t, 15*time.Minute, cfg.IDInterval)
	assert.Equal(t, time.Hour, cfg.InfoInterval)
	assert.Equal(t, 10*time.Minute, cfg.SleepAfter)
	assert.Equal(t, 2*time.Second, cfg.WakeAfter)
	assert.Equal(t, 2*time.Second, cfg.MinRecording)
	assert.True(t, cfg.AnnounceOnStartup)
	assert.False(t, cfg.IDWhenSleeping)
	assert.Equal(t, "serial", cfg.Line.Driver)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Line.Serial.Device)
	assert.Equal(t, 9600, cfg.Line.Serial.Baud)
	assert.Equal(t, "dsr", cfg.Line.Serial.BusySignal)
	assert.Equal(t, "rec", cfg.Audio.RecordCommand)
	assert.Equal(t, 8000, cfg.Audio.SampleRate)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
callsign: K7ABC
poll_interval: 50ms
id_interval: 10m
announce_on_startup: false
id_when_sleeping: true
recordings_dir: /var/lib/repeaterd/recordings
line:
  driver: gpio
  gpio:
    chip: gpiochip1
    busy_offset: 5
    transmit_offset: 6
    busy_active_low: true
audio:
  sample_rate: 44100
influxdb:
  host: http://localhost:8086
  organization: radio
  bucket: repeater
status_server:
  port: 8089
log_file: /var/log/repeaterd.log
`))
	require.NoError(t, err)

	assert.Equal(t, "K7ABC", cfg.Callsign)
	assert.Equal(t, 50*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 10*time.Minute, cfg.IDInterval)
	assert.False(t, cfg.AnnounceOnStartup)
	assert.True(t, cfg.IDWhenSleeping)
	assert.Equal(t, "/var/lib/repeaterd/recordings", cfg.RecordingsDir)
	assert.Equal(t, "gpio", cfg.Line.Driver)
	assert.Equal(t, "gpiochip1", cfg.Line.GPIO.Chip)
	assert.Equal(t, 5, cfg.Line.GPIO.BusyOffset)
	assert.Equal(t, 6, cfg.Line.GPIO.TransmitOffset)
	assert.True(t, cfg.Line.GPIO.BusyActiveLow)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	// Untouched sections keep their defaults.
	assert.Equal(t, "play", cfg.Audio.PlayCommand)
	assert.Equal(t, time.Hour, cfg.InfoInterval)
	assert.Equal(t, "http://localhost:8086", cfg.InfluxDB.Host)
	assert.Equal(t, "radio", cfg.InfluxDB.Organization)
	assert.Equal(t, 8089, cfg.StatusServer.Port)
	assert.Equal(t, "/var/log/repeaterd.log", cfg.LogFile)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "callsign: [unterminated\n"))
	assert.Error(t, err)
}

func TestLoadBadDuration(t *testing.T) {
	_, err := Load(writeConfig(t, "id_interval: fifteen minutes\n"))
	assert.Error(t, err)
}
