package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/ecprobe"
	"github.com/mklimuk/ecprobe/adapter"
	"github.com/mklimuk/ecprobe/i2c"
	"github.com/mklimuk/ecprobe/pkg/config"
	"github.com/mklimuk/ecprobe/snsctx"
	"github.com/mklimuk/ecprobe/water"
)

// settings is the configuration file merged with the global flags.
var settings = config.Default()

// probeOpts are applied to every probe before the address and byte order.
var probeOpts []water.ProbeOpt

// newSimulator builds the bus for the sim adapter.
var newSimulator = func(cfg *config.Config) ecprobe.I2CBusCloser {
	return water.NewSimulator(water.SimWithAddress(byte(cfg.Address)), water.SimWithByteOrder(byteOrder(cfg)))
}

func loadSettings(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("adapter") {
		cfg.Adapter = c.String("adapter")
	}
	if c.IsSet("device") {
		cfg.Device = c.String("device")
	}
	if c.IsSet("bus") {
		cfg.Bus = c.Int("bus")
	}
	if c.IsSet("address") {
		addr, err := config.ParseAddress(c.String("address"))
		if err != nil {
			return nil, err
		}
		cfg.Address = config.Address(addr)
	}
	if c.IsSet("little-endian") {
		cfg.LittleEndian = c.Bool("little-endian")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !water.ValidAddress(byte(cfg.Address)) {
		return nil, fmt.Errorf("%w: %#x", water.ErrInvalidAddress, byte(cfg.Address))
	}
	return cfg, nil
}

func byteOrder(cfg *config.Config) binary.ByteOrder {
	if cfg.LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func openBus(cfg *config.Config) (ecprobe.I2CBusCloser, error) {
	switch cfg.Adapter {
	case config.AdapterGeneric:
		bus, err := i2c.NewGenericBus(cfg.Device)
		if err != nil {
			return nil, err
		}
		if cfg.SpeedKHz > 0 {
			err = bus.SetSpeed(physic.Frequency(cfg.SpeedKHz) * physic.KiloHertz)
			if err != nil {
				_ = bus.Close()
				return nil, fmt.Errorf("could not set bus speed: %w", err)
			}
		}
		return bus, nil
	case config.AdapterDevfs:
		bus, err := i2c.NewDevfsBus(cfg.Device)
		if err != nil {
			return nil, err
		}
		return bus, nil
	case config.AdapterNanoPi:
		bus, err := i2c.NewNanoPiBus(cfg.Bus)
		if err != nil {
			return nil, err
		}
		return bus, nil
	case config.AdapterMCP2221:
		bridge := adapter.NewMCP2221()
		if err := bridge.Init(); err != nil {
			return nil, err
		}
		return bridge, nil
	case config.AdapterSim:
		return newSimulator(cfg), nil
	}
	return nil, fmt.Errorf("unknown adapter %q", cfg.Adapter)
}

// session is an open probe plus the context its commands run with.
type session struct {
	ctx   context.Context
	probe *water.Probe
	bus   ecprobe.I2CBusCloser
}

func openSession(c *cli.Context) (*session, error) {
	bus, err := openBus(settings)
	if err != nil {
		return nil, fmt.Errorf("could not open %s bus: %w", settings.Adapter, err)
	}
	ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
	slog.Debug("probe session", "adapter", settings.Adapter, "device", settings.Device, "address", fmt.Sprintf("%#x", byte(settings.Address)))
	return &session{
		ctx:   ctx,
		probe: water.New(bus, append(probeOpts, water.WithAddress(byte(settings.Address)), water.WithByteOrder(byteOrder(settings)))...),
		bus:   bus,
	}, nil
}

func (s *session) Close() {
	if err := s.bus.Close(); err != nil {
		slog.Warn("could not close bus", "error", err)
	}
}
