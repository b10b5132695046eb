// Package sox plays and records audio by shelling out to the SoX play and
// rec utilities, which handle the sound card and WAV framing.
package sox

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/wrxc682/repeaterd/pkg/repeater/audio"
)

const (
	defaultPlayCommand   = "play"
	defaultRecordCommand = "rec"
	defaultChannels      = 1
	defaultSampleRate    = 8000
)

type Config struct {
	// PlayCommand and RecordCommand name the executables to run. They
	// default to the standard SoX entry points "play" and "rec".
	PlayCommand   string
	RecordCommand string
	// Channels and SampleRate apply to recordings only; playback takes
	// its format from the clip.
	Channels   int
	SampleRate int
}

type Sox struct {
	cfg    Config
	logger zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) *Sox {
	if cfg.PlayCommand == "" {
		cfg.PlayCommand = defaultPlayCommand
	}
	if cfg.RecordCommand == "" {
		cfg.RecordCommand = defaultRecordCommand
	}
	if cfg.Channels == 0 {
		cfg.Channels = defaultChannels
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = defaultSampleRate
	}
	return &Sox{cfg: cfg, logger: logger}
}

func (s *Sox) Play(path string) error {
	cmd := exec.Command(s.cfg.PlayCommand, "-q", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", s.cfg.PlayCommand, path, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (s *Sox) Start(path string) (audio.Capture, error) {
	cmd := exec.Command(s.cfg.RecordCommand, "-q",
		"-c", strconv.Itoa(s.cfg.Channels),
		"-r", strconv.Itoa(s.cfg.SampleRate),
		path)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", s.cfg.RecordCommand, err)
	}
	s.logger.Debug().Str("file", path).Int("pid", cmd.Process.Pid).Msg("capture started")
	return &capture{cmd: cmd}, nil
}

type capture struct {
	cmd *exec.Cmd
}

func (c *capture) Stop() error {
	if err := c.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("stop recorder: %w", err)
	}
	err := c.cmd.Wait()
	if err == nil {
		return nil
	}
	var exit *exec.ExitError
	if errors.As(err, &exit) && !exit.ProcessState.Exited() {
		// Ended by our signal rather than on its own.
		return nil
	}
	return fmt.Errorf("recorder: %w", err)
}
