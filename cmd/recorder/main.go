package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samuel/go-hackrf/hackrf"
	"golang.org/x/sync/errgroup"

	"github.com/open-weather-community/open-weather-ags/pkg/recorder"
	"github.com/open-weather-community/open-weather-ags/pkg/recorder/config"
	"github.com/open-weather-community/open-weather-ags/pkg/recorder/device"
	filedev "github.com/open-weather-community/open-weather-ags/pkg/recorder/device/file"
	hackrfdev "github.com/open-weather-community/open-weather-ags/pkg/recorder/device/hackrf"
	"github.com/open-weather-community/open-weather-ags/pkg/recorder/device/rtlsdr"
	"github.com/open-weather-community/open-weather-ags/pkg/recorder/device/sim"
	"github.com/open-weather-community/open-weather-ags/pkg/recorder/status"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)
	configFile := flag.String("config", "recorder.yaml", "YAML config file")

	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("error loading config file")
	}

	dev, cleanup, err := openDevice(cfg)
	if err != nil {
		log.Fatal().Str("driver", cfg.Driver).Err(err).Msg("failed to open device")
	}
	defer cleanup()

	opts := []recorder.Option{recorder.WithLogger(log.Logger)}

	if cfg.InfluxDB.Host != "" {
		writeAPI := influxdb2.NewClient(cfg.InfluxDB.Host, "").
			WriteAPI(cfg.InfluxDB.Organization, cfg.InfluxDB.Bucket)
		opts = append(opts, recorder.WithInfluxDB(writeAPI))
	}

	var statusServer *status.Server
	if cfg.StatusPort > 0 {
		statusServer = status.NewServer(cfg.StatusPort)
		opts = append(opts, recorder.WithStatusServer(statusServer))
	}

	rec, err := recorder.New(dev, recorder.Options{
		Driver:     cfg.Driver,
		CenterFreq: cfg.CenterFreq,
		SampleRate: cfg.SampleRate,
		Duration:   time.Duration(cfg.Duration),
		Output:     cfg.Output,
	}, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create recorder")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	eg.Go(func() error {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	if statusServer != nil {
		eg.Go(func() error {
			return statusServer.Run(ctx)
		})
	}

	eg.Go(func() error {
		defer cancel()
		return rec.Run(ctx)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("exited program")
	}
}

// openDevice maps the configured driver name to a backend. The returned
// cleanup releases the device handle and any library-level state.
func openDevice(cfg config.Config) (device.Device, func(), error) {
	switch cfg.Driver {
	case "rtlsdr":
		log.Info().Str("driver", "rtlsdr").Msg("initializing device...")
		dev, err := rtlsdr.Open(cfg.RTLSDRDeviceIndex)
		if err != nil {
			return nil, nil, err
		}
		return dev, func() { dev.Close() }, nil

	case "hackrf":
		log.Info().Str("driver", "hackrf").Msg("initializing device...")
		if err := hackrf.Init(); err != nil {
			return nil, nil, err
		}
		dev, err := hackrfdev.Open()
		if err != nil {
			hackrf.Exit()
			return nil, nil, err
		}
		return dev, func() {
			dev.Close()
			hackrf.Exit()
		}, nil

	case "file":
		log.Info().Str("driver", "file").Str("playback", cfg.PlaybackLocation).Msg("initializing device...")
		dev, err := filedev.Open(cfg.PlaybackLocation)
		if err != nil {
			return nil, nil, err
		}
		return dev, func() { dev.Close() }, nil

	case "sim":
		log.Info().Str("driver", "sim").Int("tone_hz", cfg.SimToneHz).Msg("initializing device...")
		dev := sim.New(cfg.SimToneHz)
		return dev, func() { dev.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("%q: %w", cfg.Driver, device.ErrUnknownDriver)
	}
}
