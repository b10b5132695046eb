// Package gpio drives a repeater through GPIO lines on a character device
// such as the header of a Raspberry Pi. One input line carries the
// receive-busy signal and one output line keys the transmitter.
package gpio

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/warthog618/go-gpiocdev"
)

type Config struct {
	// Chip is the gpiochip device name, e.g. "gpiochip0".
	Chip string
	// BusyOffset is the line offset of the receive-busy input.
	BusyOffset int
	// TransmitOffset is the line offset of the transmit-key output.
	TransmitOffset int
	// BusyActiveLow inverts the busy input for receivers whose carrier
	// detect output pulls low when a signal is present.
	BusyActiveLow bool
}

type Line struct {
	busy   *gpiocdev.Line
	tx     *gpiocdev.Line
	logger zerolog.Logger
}

// Open requests both GPIO lines and leaves the transmitter unkeyed.
func Open(cfg Config, logger zerolog.Logger) (*Line, error) {
	busyOpts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithConsumer("repeaterd-busy"),
	}
	if cfg.BusyActiveLow {
		busyOpts = append(busyOpts, gpiocdev.AsActiveLow)
	}
	busy, err := gpiocdev.RequestLine(cfg.Chip, cfg.BusyOffset, busyOpts...)
	if err != nil {
		return nil, fmt.Errorf("request busy line %s:%d: %w", cfg.Chip, cfg.BusyOffset, err)
	}

	tx, err := gpiocdev.RequestLine(cfg.Chip, cfg.TransmitOffset,
		gpiocdev.AsOutput(0),
		gpiocdev.WithConsumer("repeaterd-ptt"))
	if err != nil {
		busy.Close()
		return nil, fmt.Errorf("request transmit line %s:%d: %w", cfg.Chip, cfg.TransmitOffset, err)
	}

	logger.Info().
		Str("chip", cfg.Chip).
		Int("busy_offset", cfg.BusyOffset).
		Int("transmit_offset", cfg.TransmitOffset).
		Bool("busy_active_low", cfg.BusyActiveLow).
		Msg("opened gpio line")

	return &Line{busy: busy, tx: tx, logger: logger}, nil
}

func (l *Line) ReadBusy() (bool, error) {
	v, err := l.busy.Value()
	if err != nil {
		return false, fmt.Errorf("read busy line: %w", err)
	}
	return v != 0, nil
}

func (l *Line) SetTransmit(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := l.tx.SetValue(v); err != nil {
		return fmt.Errorf("set transmit line: %w", err)
	}
	return nil
}

func (l *Line) Close() error {
	if err := l.tx.SetValue(0); err != nil {
		l.logger.Error().Err(err).Msg("failed to deassert transmit on close")
	}
	err := l.tx.Close()
	if cerr := l.busy.Close(); err == nil {
		err = cerr
	}
	return err
}
