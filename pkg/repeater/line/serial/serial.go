// Package serial drives a repeater through the modem-control lines of a
// serial port: the busy signal is sensed on a status line (DSR by default)
// and the transmitter is keyed by asserting RTS and DTR together.
package serial

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

var speeds = map[int]uint32{
	1200:   unix.B1200,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
}

type Port struct {
	f       *os.File
	busyBit int
	logger  zerolog.Logger
}

// Open opens the serial device and deasserts the transmit lines.
// busySignal selects which modem status bit carries the receive-busy
// indication: "dsr" (default), "cts", or "dcd".
func Open(device string, baud int, busySignal string, logger zerolog.Logger) (*Port, error) {
	bit, err := busyBit(busySignal)
	if err != nil {
		return nil, err
	}

	// O_NONBLOCK so open does not hang waiting for carrier detect on
	// some USB-serial adapters.
	f, err := os.OpenFile(device, os.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open serial device %s: %w", device, err)
	}

	p := &Port{f: f, busyBit: bit, logger: logger}

	if baud != 0 {
		if err := p.setSpeed(baud); err != nil {
			f.Close()
			return nil, err
		}
	}

	// Make sure we're not transmitting.
	if err := p.SetTransmit(false); err != nil {
		f.Close()
		return nil, err
	}

	logger.Info().
		Str("device", device).
		Int("baud", baud).
		Str("busy_signal", signalName(bit)).
		Msg("opened serial line")

	return p, nil
}

func (p *Port) ReadBusy() (bool, error) {
	bits, err := unix.IoctlGetInt(int(p.f.Fd()), unix.TIOCMGET)
	if err != nil {
		return false, fmt.Errorf("read modem status: %w", err)
	}
	return bits&p.busyBit != 0, nil
}

func (p *Port) SetTransmit(on bool) error {
	fd := int(p.f.Fd())
	bits, err := unix.IoctlGetInt(fd, unix.TIOCMGET)
	if err != nil {
		return fmt.Errorf("read modem status: %w", err)
	}
	if on {
		bits |= unix.TIOCM_RTS | unix.TIOCM_DTR
	} else {
		bits &^= unix.TIOCM_RTS | unix.TIOCM_DTR
	}
	if err := unix.IoctlSetInt(fd, unix.TIOCMSET, bits); err != nil {
		return fmt.Errorf("set modem control: %w", err)
	}
	return nil
}

func (p *Port) Close() error {
	if err := p.SetTransmit(false); err != nil {
		p.logger.Error().Err(err).Msg("failed to deassert transmit on close")
	}
	return p.f.Close()
}

func (p *Port) setSpeed(baud int) error {
	speed, ok := speeds[baud]
	if !ok {
		return fmt.Errorf("unsupported baud rate %d", baud)
	}

	fd := int(p.f.Fd())
	tio, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}
	tio.Cflag &^= unix.CBAUD
	tio.Cflag |= speed
	tio.Ispeed = speed
	tio.Ospeed = speed
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, tio); err != nil {
		return fmt.Errorf("set termios: %w", err)
	}
	return nil
}

func busyBit(signal string) (int, error) {
	switch signal {
	case "", "dsr":
		return unix.TIOCM_DSR, nil
	case "cts":
		return unix.TIOCM_CTS, nil
	case "dcd":
		return unix.TIOCM_CD, nil
	}
	return 0, fmt.Errorf("unknown busy signal %q (want dsr, cts, or dcd)", signal)
}

func signalName(bit int) string {
	switch bit {
	case unix.TIOCM_CTS:
		return "cts"
	case unix.TIOCM_CD:
		return "dcd"
	default:
		return "dsr"
	}
}
