package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/ecprobe/cmd/ecprobe/console"
	"github.com/mklimuk/ecprobe/water"
)

var measureCmd = cli.Command{
	Name:  "measure",
	Usage: "measure conductivity or salinity",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "salinity",
			Aliases: []string{"s"},
			Usage:   "measure salinity in PSU instead of conductivity",
		},
		&cli.BoolFlag{
			Name:  "compensate",
			Usage: "measure temperature first and compensate with it",
			Value: true,
		},
		&cli.DurationFlag{
			Name:    "interval",
			Aliases: []string{"i"},
			Usage:   "time between readings",
		},
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"n"},
			Usage:   "number of readings, 0 runs until interrupted",
		},
	},
	Action: func(c *cli.Context) error {
		compensate := settings.Compensate
		if c.IsSet("compensate") {
			compensate = c.Bool("compensate")
		}
		interval := settings.Interval
		if c.IsSet("interval") {
			interval = c.Duration("interval")
		}
		count := settings.Count
		if c.IsSet("count") {
			count = c.Int("count")
		}
		if count < 0 {
			return console.Exit(2, "count must not be negative")
		}

		s, err := openSession(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		defer s.Close()

		ctx, cancel := signal.NotifyContext(s.ctx, os.Interrupt, syscall.SIGTERM)
		defer cancel()

		measure := measureConductivity
		if c.Bool("salinity") {
			measure = measureSalinity
		}
		return repeat(ctx, count, interval, func() error {
			return measure(ctx, s.probe, compensate)
		})
	},
}

// repeat runs fn count times, or until ctx is done when count is 0.
func repeat(ctx context.Context, count int, interval time.Duration, fn func() error) error {
	for i := 0; count == 0 || i < count; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(interval):
			}
		}
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

func measureConductivity(ctx context.Context, p *water.Probe, compensate bool) error {
	ms, err := p.MeasureEC(ctx, compensate)
	if err != nil {
		return probeExit("could not measure conductivity", err)
	}
	ec := water.Conductivity(ms)
	console.PInfof(console.PictoDrop, "%s mS  (%.1f µS, %d ppm)", console.White(formatFloat(ms, 3)), ec.MicroSiemens(), ec.PPM500())
	return nil
}

func measureSalinity(ctx context.Context, p *water.Probe, compensate bool) error {
	psu, err := p.MeasureSalinity(ctx, compensate)
	if err != nil {
		return probeExit("could not measure salinity", err)
	}
	console.PInfof(console.PictoWave, "%s PSU  (%.2f PPT)", console.White(formatFloat(psu, 2)), water.Salinity(psu).PPT())
	return nil
}

var tempCmd = cli.Command{
	Name:    "temperature",
	Aliases: []string{"temp"},
	Usage:   "measure water temperature",
	Action: func(c *cli.Context) error {
		s, err := openSession(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		defer s.Close()
		temp, err := s.probe.MeasureTemp(s.ctx)
		if err != nil {
			return probeExit("could not measure temperature", err)
		}
		console.PInfof(console.PictoThermometer, "%s °C  (%.2f °F)", console.White(formatFloat(temp, 2)), water.Temperature(temp).Fahrenheit())
		return nil
	},
}
