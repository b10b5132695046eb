package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Callsign          string        `yaml:"callsign"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	PreTXDelay        time.Duration `yaml:"pre_tx_delay"`
	PostTXDelay       time.Duration `yaml:"post_tx_delay"`
	IDInterval        time.Duration `yaml:"id_interval"`
	InfoInterval      time.Duration `yaml:"info_interval"`
	SleepAfter        time.Duration `yaml:"sleep_after"`
	WakeAfter         time.Duration `yaml:"wake_after"`
	MinRecording      time.Duration `yaml:"min_recording"`
	IDWhenSleeping    bool          `yaml:"id_when_sleeping"`
	InfoWhenSleeping  bool          `yaml:"info_when_sleeping"`
	AnnounceOnStartup bool          `yaml:"announce_on_startup"`
	RecordingsDir     string        `yaml:"recordings_dir"`
	IDClip            string        `yaml:"id_clip"`
	InfoClip          string        `yaml:"info_clip"`
	Line              Line          `yaml:"line"`
	Audio             Audio         `yaml:"audio"`
	StatusServer      struct {
		Port int `yaml:"port"`
	} `yaml:"status_server"`
	InfluxDB struct {
		Host         string `yaml:"host"`
		Organization string `yaml:"organization"`
		Bucket       string `yaml:"bucket"`
	} `yaml:"influxdb"`
	LogFile       string `yaml:"log_file"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
}

type Line struct {
	// Driver selects the hardware backend: "serial", "gpio", or "replay".
	Driver string `yaml:"driver"`
	Serial Serial `yaml:"serial"`
	GPIO   GPIO   `yaml:"gpio"`
	Replay Replay `yaml:"replay"`
}

type Serial struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
	// BusySignal names the modem status line carrying the receive-busy
	// indication: "dsr", "cts", or "dcd".
	BusySignal string `yaml:"busy_signal"`
}

type GPIO struct {
	Chip           string `yaml:"chip"`
	BusyOffset     int    `yaml:"busy_offset"`
	TransmitOffset int    `yaml:"transmit_offset"`
	BusyActiveLow  bool   `yaml:"busy_active_low"`
}

type Replay struct {
	Script string `yaml:"script"`
}

type Audio struct {
	PlayCommand   string `yaml:"play_command"`
	RecordCommand string `yaml:"record_command"`
	Channels      int    `yaml:"channels"`
	SampleRate    int    `yaml:"sample_rate"`
}

// Default returns the configuration used for keys absent from the file.
func Default() Config {
	return Config{
		PollInterval:      100 * time.Millisecond,
		PreTXDelay:        time.Second,
		PostTXDelay:       500 * time.Millisecond,
		IDInterval:        15 * time.Minute,
		InfoInterval:      60 * time.Minute,
		SleepAfter:        10 * time.Minute,
		WakeAfter:         2 * time.Second,
		MinRecording:      2 * time.Second,
		AnnounceOnStartup: true,
		RecordingsDir:     "recordings",
		IDClip:            "sounds/cw_id.wav",
		InfoClip:          "sounds/repeater_info.wav",
		Line: Line{
			Driver: "serial",
			Serial: Serial{
				Device:     "/dev/ttyUSB0",
				Baud:       9600,
				BusySignal: "dsr",
			},
			GPIO: GPIO{
				Chip:           "gpiochip0",
				BusyOffset:     17,
				TransmitOffset: 27,
			},
		},
		Audio: Audio{
			PlayCommand:   "play",
			RecordCommand: "rec",
			Channels:      1,
			SampleRate:    8000,
		},
		LogMaxSizeMB:  10,
		LogMaxBackups: 5,
	}
}

// Load reads the YAML config at path over the defaults.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}
