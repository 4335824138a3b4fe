package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/ecprobe/cmd/ecprobe/console"
	"github.com/mklimuk/ecprobe/pkg/config"
	"github.com/mklimuk/ecprobe/water"
)

var yesFlag = &cli.BoolFlag{
	Name:    "yes",
	Aliases: []string{"y"},
	Usage:   "do not ask for confirmation",
}

// confirm asks unless --yes was given.
var confirm = func(c *cli.Context, question string) (bool, error) {
	if c.Bool("yes") {
		return true, nil
	}
	return console.Confirm(question)
}

var calibrateCmd = cli.Command{
	Name:  "calibrate",
	Usage: "calibrate against a reference solution",
	Subcommands: cli.Commands{
		{
			Name:      "ec",
			Usage:     "single point conductivity calibration, solution in mS",
			ArgsUsage: "<solution mS>",
			Flags:     []cli.Flag{yesFlag},
			Action: func(c *cli.Context) error {
				return calibrate(c, "conductivity", (*water.Probe).CalibrateEC)
			},
		},
		{
			Name:      "sw",
			Usage:     "single point salinity calibration, solution in PSU",
			ArgsUsage: "<solution PSU>",
			Flags:     []cli.Flag{yesFlag},
			Action: func(c *cli.Context) error {
				return calibrate(c, "salinity", (*water.Probe).CalibrateSW)
			},
		},
	},
}

func calibrate(c *cli.Context, what string, run func(*water.Probe, context.Context, float32) error) error {
	solution, err := floatArg(c, 0, "solution")
	if err != nil {
		return err
	}
	ok, err := confirm(c, fmt.Sprintf("probe in %s reference solution %s?", what, formatFloat(solution, 3)))
	if err != nil || !ok {
		return console.Exit(1, "calibration aborted")
	}
	s, err := openSession(c)
	if err != nil {
		return console.Exit(1, "%s", console.Red(err))
	}
	defer s.Close()
	if err := run(s.probe, s.ctx, solution); err != nil {
		return probeExit("calibration failed", err)
	}
	console.PInfof(console.PictoTestTube, "%s calibrated with %s", what, console.Green(formatFloat(solution, 3)))
	return nil
}

var setCmd = cli.Command{
	Name:  "set",
	Usage: "write a configuration register",
	Subcommands: cli.Commands{
		setFloatCmd("ec", "conductivity calibration factor", (*water.Probe).SetCalibrationEC),
		setFloatCmd("sw", "salinity calibration factor", (*water.Probe).SetCalibrationSW),
		setFloatCmd("temp-constant", "temperature used for compensation in °C", (*water.Probe).SetTempConstant),
		setFloatCmd("temp", "temperature register in °C", (*water.Probe).SetTemp),
		{
			Name:      "compensation",
			Usage:     "enable or disable temperature compensation",
			ArgsUsage: "<on|off>",
			Action: func(c *cli.Context) error {
				enabled, err := parseSwitch(c.Args().First())
				if err != nil {
					return console.Exit(2, "%s", err)
				}
				s, err := openSession(c)
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				defer s.Close()
				if err := s.probe.UseTemperatureCompensation(s.ctx, enabled); err != nil {
					return probeExit("could not set compensation", err)
				}
				console.PInfof(console.PictoPin, "temperature compensation %s", console.Green(enabled))
				return nil
			},
		},
	},
}

func setFloatCmd(name, usage string, set func(*water.Probe, context.Context, float32) error) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     "set " + usage,
		ArgsUsage: "<value>",
		Action: func(c *cli.Context) error {
			value, err := floatArg(c, 0, "value")
			if err != nil {
				return err
			}
			s, err := openSession(c)
			if err != nil {
				return console.Exit(1, "%s", console.Red(err))
			}
			defer s.Close()
			if err := set(s.probe, s.ctx, value); err != nil {
				return probeExit("could not set "+name, err)
			}
			console.PInfof(console.PictoPin, "%s set to %s", name, console.Green(formatFloat(value, 3)))
			return nil
		},
	}
}

func parseSwitch(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
	return v, nil
}

var resetCmd = cli.Command{
	Name:  "reset",
	Usage: "clear calibration and restore compensation defaults",
	Flags: []cli.Flag{yesFlag},
	Action: func(c *cli.Context) error {
		ok, err := confirm(c, "erase probe calibration?")
		if err != nil || !ok {
			return console.Exit(1, "reset aborted")
		}
		s, err := openSession(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		defer s.Close()
		if err := s.probe.Reset(s.ctx); err != nil {
			return probeExit("reset failed", err)
		}
		console.PInfof(console.PictoFinish, "probe reset")
		return nil
	},
}

var addressCmd = cli.Command{
	Name:      "address",
	Usage:     "move the probe to a new i2c address",
	ArgsUsage: "<new address>",
	Flags:     []cli.Flag{yesFlag},
	Action: func(c *cli.Context) error {
		addr, err := config.ParseAddress(c.Args().First())
		if err != nil {
			return console.Exit(2, "%s", err)
		}
		ok, err := confirm(c, fmt.Sprintf("move probe from %#x to %#x?", byte(settings.Address), addr))
		if err != nil || !ok {
			return console.Exit(1, "address change aborted")
		}
		s, err := openSession(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		defer s.Close()
		if err := s.probe.SetI2CAddress(s.ctx, addr); err != nil {
			return probeExit("address change failed", err)
		}
		console.PInfof(console.PictoKey, "probe now answers at %s", console.Green(fmt.Sprintf("%#x", s.probe.Address())))
		return nil
	},
}

var eepromCmd = cli.Command{
	Name:  "eeprom",
	Usage: "read or write the probe user eeprom",
	Subcommands: cli.Commands{
		{
			Name:      "read",
			ArgsUsage: "<address>",
			Action: func(c *cli.Context) error {
				addr, err := floatArg(c, 0, "address")
				if err != nil {
					return err
				}
				s, err := openSession(c)
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				defer s.Close()
				value, err := s.probe.ReadEEPROM(s.ctx, addr)
				if err != nil {
					return probeExit("eeprom read failed", err)
				}
				console.Printf("%s\n", formatFloat(value, -1))
				return nil
			},
		},
		{
			Name:      "write",
			ArgsUsage: "<address> <value>",
			Action: func(c *cli.Context) error {
				addr, err := floatArg(c, 0, "address")
				if err != nil {
					return err
				}
				value, err := floatArg(c, 1, "value")
				if err != nil {
					return err
				}
				s, err := openSession(c)
				if err != nil {
					return console.Exit(1, "%s", console.Red(err))
				}
				defer s.Close()
				if err := s.probe.WriteEEPROM(s.ctx, addr, value); err != nil {
					return probeExit("eeprom write failed", err)
				}
				console.PInfof(console.PictoPin, "eeprom[%s] = %s", formatFloat(addr, -1), console.Green(formatFloat(value, -1)))
				return nil
			},
		},
	},
}

func floatArg(c *cli.Context, i int, name string) (float32, error) {
	arg := c.Args().Get(i)
	if arg == "" {
		return 0, console.Exit(2, "missing %s argument", name)
	}
	v, err := parseFloat(arg)
	if err != nil {
		return 0, console.Exit(2, "invalid %s %q", name, arg)
	}
	return v, nil
}
