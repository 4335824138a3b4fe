package main

import (
	"errors"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/ecprobe/cmd/ecprobe/console"
	"github.com/mklimuk/ecprobe/water"
)

// Exit codes by failure kind.
const (
	exitTransport = 3
	exitDecode    = 4
)

func probeExit(msg string, err error) cli.ExitCoder {
	switch water.KindOf(err) {
	case water.KindTransport:
		return console.Exit(exitTransport, "%s: %s", msg, console.Red(err))
	case water.KindDecode:
		if errors.Is(err, water.ErrUnavailable) {
			return console.Exit(exitDecode, "%s: %s", msg, console.Yellow("no reading, check the probe is connected"))
		}
		return console.Exit(exitDecode, "%s: %s", msg, console.Red(err))
	}
	return console.Exit(1, "%s: %s", msg, console.Red(err))
}

func formatFloat(v float32, prec int) string {
	return strconv.FormatFloat(float64(v), 'f', prec, 32)
}

func parseFloat(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	return float32(v), nil
}
