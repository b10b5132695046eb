package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"golang.org/x/sync/errgroup"

	"github.com/wrxc682/repeaterd/pkg/repeater"
	"github.com/wrxc682/repeaterd/pkg/repeater/audio/sox"
	"github.com/wrxc682/repeaterd/pkg/repeater/config"
	"github.com/wrxc682/repeaterd/pkg/repeater/line"
	"github.com/wrxc682/repeaterd/pkg/repeater/line/gpio"
	"github.com/wrxc682/repeaterd/pkg/repeater/line/replay"
	"github.com/wrxc682/repeaterd/pkg/repeater/line/serial"
	"github.com/wrxc682/repeaterd/pkg/repeater/status"
	"github.com/wrxc682/repeaterd/pkg/util"
)

func main() {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr}
	log.Logger = log.Output(consoleWriter).Level(zerolog.InfoLevel)

	configFile := flag.String("config", "repeaterd.yaml", "YAML config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Logger.Level(level)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("error reading config file")
	}

	if cfg.LogFile != "" {
		var writer io.Writer = zerolog.MultiLevelWriter(consoleWriter, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
		})
		log.Logger = log.Output(writer).Level(level)
	}

	var hwLine line.Line

	switch cfg.Line.Driver {
	case "serial":
		log.Info().Str("line", "serial").Msg("initializing line...")
		hwLine, err = serial.Open(cfg.Line.Serial.Device, cfg.Line.Serial.Baud, cfg.Line.Serial.BusySignal, log.Logger)
		if err != nil {
			log.Fatal().Str("line", "serial").Err(err).Msg("failed to open serial line")
		}
	case "gpio":
		log.Info().Str("line", "gpio").Msg("initializing line...")
		hwLine, err = gpio.Open(gpio.Config{
			Chip:           cfg.Line.GPIO.Chip,
			BusyOffset:     cfg.Line.GPIO.BusyOffset,
			TransmitOffset: cfg.Line.GPIO.TransmitOffset,
			BusyActiveLow:  cfg.Line.GPIO.BusyActiveLow,
		}, log.Logger)
		if err != nil {
			log.Fatal().Str("line", "gpio").Err(err).Msg("failed to open gpio line")
		}
	case "replay":
		log.Info().Str("line", "replay").Msg("initializing line...")
		hwLine, err = replay.Open(cfg.Line.Replay.Script, log.Logger)
		if err != nil {
			log.Fatal().Str("line", "replay").Err(err).Msg("failed to open replay line")
		}
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	default:
		log.Fatal().Str("driver", cfg.Line.Driver).Msg("unknown line driver")
	}

	soxAudio := sox.New(sox.Config{
		PlayCommand:   cfg.Audio.PlayCommand,
		RecordCommand: cfg.Audio.RecordCommand,
		Channels:      cfg.Audio.Channels,
		SampleRate:    cfg.Audio.SampleRate,
	}, log.Logger)

	var writeAPI api.WriteAPI = &util.NopWriteAPI{}
	if cfg.InfluxDB.Host != "" {
		writeAPI = influxdb2.NewClient(cfg.InfluxDB.Host, "").WriteAPI(cfg.InfluxDB.Organization, cfg.InfluxDB.Bucket)
	}

	controller, err := repeater.New(hwLine,
		repeater.Options{
			Player:            soxAudio,
			Recorder:          soxAudio,
			Callsign:          cfg.Callsign,
			PollInterval:      cfg.PollInterval,
			PreTXDelay:        cfg.PreTXDelay,
			PostTXDelay:       cfg.PostTXDelay,
			IDInterval:        cfg.IDInterval,
			InfoInterval:      cfg.InfoInterval,
			SleepAfter:        cfg.SleepAfter,
			WakeAfter:         cfg.WakeAfter,
			MinRecording:      cfg.MinRecording,
			IDWhenSleeping:    cfg.IDWhenSleeping,
			InfoWhenSleeping:  cfg.InfoWhenSleeping,
			AnnounceOnStartup: cfg.AnnounceOnStartup,
			RecordingsDir:     cfg.RecordingsDir,
			IDClip:            cfg.IDClip,
			InfoClip:          cfg.InfoClip,
		},
		repeater.WithInfluxDB(writeAPI),
		repeater.WithLogger(log.Logger))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create controller")
	}

	var statusServer *status.Server
	if cfg.StatusServer.Port != 0 {
		statusServer = status.NewServer(cfg.StatusServer.Port, controller, log.Logger)
	}

	eg, ctx := errgroup.WithContext(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	eg.Go(func() error {
		select {
		case <-sigChan:
		case <-ctx.Done():
		}

		if statusServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			statusServer.Stop(shutdownCtx)
		}
		return controller.Stop()
	})

	eg.Go(func() error {
		return controller.Run(ctx)
	})

	if statusServer != nil {
		eg.Go(func() error {
			return statusServer.Run(ctx)
		})
	}

	if err := eg.Wait(); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("exited program")
	}
}
