// Package replay implements a repeater line backed by a script file instead
// of hardware. It is useful for developing and testing the controller
// without a radio attached.
//
// The script holds one event per line, "<offset> busy|free", where offset is
// a duration from the moment the line was opened:
//
//	0s     free
//	1.5s   busy
//	4s     free
//
// Blank lines and lines starting with # are ignored. The busy signal holds
// the value of the most recent event; transmit keying is logged and
// discarded.
package replay

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type event struct {
	at   time.Duration
	busy bool
}

type Line struct {
	events []event
	start  time.Time
	now    func() time.Time
	logger zerolog.Logger

	mu       sync.Mutex
	transmit bool
}

func Open(path string, logger zerolog.Logger) (*Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay script: %w", err)
	}
	defer f.Close()

	events, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse replay script %s: %w", path, err)
	}

	logger.Info().Str("script", path).Int("events", len(events)).Msg("opened replay line")

	return &Line{
		events: events,
		start:  time.Now(),
		now:    time.Now,
		logger: logger,
	}, nil
}

func parse(r io.Reader) ([]event, error) {
	var events []event
	sc := bufio.NewScanner(r)
	lineno := 0
	for sc.Scan() {
		lineno++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: want \"<offset> busy|free\", got %q", lineno, text)
		}
		at, err := time.ParseDuration(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad offset: %w", lineno, err)
		}
		var busy bool
		switch fields[1] {
		case "busy":
			busy = true
		case "free":
			busy = false
		default:
			return nil, fmt.Errorf("line %d: want busy or free, got %q", lineno, fields[1])
		}
		if n := len(events); n > 0 && at < events[n-1].at {
			return nil, fmt.Errorf("line %d: offsets must not decrease", lineno)
		}
		events = append(events, event{at: at, busy: busy})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (l *Line) ReadBusy() (bool, error) {
	elapsed := l.now().Sub(l.start)
	busy := false
	for _, ev := range l.events {
		if ev.at > elapsed {
			break
		}
		busy = ev.busy
	}
	return busy, nil
}

func (l *Line) SetTransmit(on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if on != l.transmit {
		l.logger.Info().Bool("transmit", on).Msg("transmit key")
		l.transmit = on
	}
	return nil
}

// Transmitting reports the last state set through SetTransmit.
func (l *Line) Transmitting() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transmit
}

func (l *Line) Close() error {
	return nil
}
