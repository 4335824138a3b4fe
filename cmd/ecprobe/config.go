package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/ecprobe/cmd/ecprobe/console"
	"github.com/mklimuk/ecprobe/water"
)

// probeConfig is the device configuration as printed by the config command.
type probeConfig struct {
	Address       string `yaml:"address"`
	Version       int    `yaml:"version"`
	Firmware      int    `yaml:"firmware"`
	CalibrationEC string `yaml:"calibration_ec"`
	CalibrationSW string `yaml:"calibration_sw"`
	Compensation  bool   `yaml:"temperature_compensation"`
	TempConstant  string `yaml:"temperature_constant"`
}

var configCmd = cli.Command{
	Name:  "config",
	Usage: "print probe version, calibration and compensation settings",
	Action: func(c *cli.Context) error {
		s, err := openSession(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		defer s.Close()
		cfg, err := readProbeConfig(s.ctx, s.probe)
		if err != nil {
			return probeExit("could not read probe configuration", err)
		}
		enc := yaml.NewEncoder(console.Writer())
		defer func() { _ = enc.Close() }()
		if err := enc.Encode(cfg); err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		return nil
	},
}

func readProbeConfig(ctx context.Context, p *water.Probe) (*probeConfig, error) {
	ok, err := p.Connected(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no probe at %#x: %w", p.Address(), water.ErrUnavailable)
	}
	cfg := &probeConfig{Address: fmt.Sprintf("%#x", p.Address())}
	if cfg.Version, err = p.GetVersion(ctx); err != nil {
		return nil, err
	}
	if cfg.Firmware, err = p.GetFirmware(ctx); err != nil {
		return nil, err
	}
	if cfg.CalibrationEC, err = optionalFloat(p.GetCalibrationEC(ctx)); err != nil {
		return nil, err
	}
	if cfg.CalibrationSW, err = optionalFloat(p.GetCalibrationSW(ctx)); err != nil {
		return nil, err
	}
	if cfg.Compensation, err = p.UsingTemperatureCompensation(ctx); err != nil {
		return nil, err
	}
	if cfg.TempConstant, err = optionalFloat(p.GetTempConstant(ctx)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// optionalFloat renders unset registers as "none" instead of failing.
func optionalFloat(v float32, err error) (string, error) {
	if errors.Is(err, water.ErrUnavailable) {
		return "none", nil
	}
	if err != nil {
		return "", err
	}
	return formatFloat(v, -1), nil
}
