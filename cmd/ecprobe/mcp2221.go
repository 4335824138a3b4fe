package main

import (
	"context"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/ecprobe/adapter"
	"github.com/mklimuk/ecprobe/cmd/ecprobe/console"
	"github.com/mklimuk/ecprobe/snsctx"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "inspect or unlock the MCP2221 usb bridge",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "id", Usage: "bridge index as listed by usb detect", Value: -1},
	},
	Subcommands: cli.Commands{
		{
			Name:  "status",
			Usage: "print the bridge i2c engine state",
			Action: func(c *cli.Context) error {
				return mcp2221Report(c, (*adapter.MCP2221).Status)
			},
		},
		{
			Name:  "release",
			Usage: "cancel a stuck transfer and print the resulting state",
			Action: func(c *cli.Context) error {
				return mcp2221Report(c, (*adapter.MCP2221).ReleaseBus)
			},
		},
	},
}

func mcp2221Report(c *cli.Context, call func(*adapter.MCP2221, context.Context) (*adapter.MCP2221Status, error)) error {
	var bridge *adapter.MCP2221
	if id := c.Int("id"); id >= 0 {
		bridge = adapter.NewMCP2221(id)
	} else {
		bridge = adapter.NewMCP2221()
	}
	ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
	status, err := call(bridge, ctx)
	if err != nil {
		return console.Exit(1, "adapter communication error: %s", console.Red(err))
	}
	enc := yaml.NewEncoder(console.Writer())
	defer func() { _ = enc.Close() }()
	if err := enc.Encode(status); err != nil {
		return console.Exit(1, "encoding error: %s", console.Red(err))
	}
	return nil
}
