// Command redpile runs the voxel-logic simulator: it loads a behavior
// script, then drives commands against the resulting world over stdin,
// an interactive line editor, or a TCP socket.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"

	"github.com/tebeka/atexit"
	"github.com/urfave/cli/v2"

	"github.com/sarchlab/redpile/config"
	"github.com/sarchlab/redpile/engine"
	"github.com/sarchlab/redpile/host"
	"github.com/sarchlab/redpile/registry"
	"github.com/sarchlab/redpile/server"
)

func main() {
	app := &cli.App{
		Name:      "redpile",
		Usage:     "a sparse, unbounded 3-D voxel logic simulator",
		Version:   "0.1.0",
		ArgsUsage: "<config-file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "interactive", Aliases: []string{"i"}, Usage: "read commands from a history-backed line editor"},
			&cli.BoolFlag{Name: "silent", Aliases: []string{"s"}, Usage: "suppress the startup banner"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "serve commands over TCP instead of stdin"},
			&cli.IntFlag{Name: "size", Usage: "benchmark: initial world size (reserved)"},
			&cli.IntFlag{Name: "benchmark", Usage: "benchmark: number of ticks to run then exit (reserved)"},
			&cli.StringFlag{Name: "engine-config", Usage: "optional YAML engine-tuning file"},
			&cli.IntFlag{Name: "leaf-width", Usage: "overrides the engine config's octree leaf width"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func run(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("redpile: missing <config-file>", 1)
	}
	scriptPath := c.Args().Get(0)

	cfg, err := buildEngineConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	log := slog.Default()

	reg := registry.New()
	scriptHost := host.NewScriptHost(reg)

	src, err := os.ReadFile(scriptPath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("redpile: reading %s: %s", scriptPath, err), 1)
	}
	if err := scriptHost.Load(scriptPath, string(src)); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if len(reg.Types()) == 0 {
		return cli.Exit("redpile: behavior script registered no types", 1)
	}

	w := engine.New(reg, scriptHost, cfg.LeafWidth, log)

	if !c.Bool("silent") {
		fmt.Printf("redpile: %d type(s) loaded from %s\n", len(reg.Types()), scriptPath)
	}

	if port := c.Int("port"); port > 0 {
		return server.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), w, reg, log)
	}
	if c.Bool("interactive") {
		server.RunInteractive(os.Stdout, os.Stderr, w, reg)
		return nil
	}

	server.RunSession(bufio.NewReader(os.Stdin), os.Stdout, os.Stderr, w, reg)
	return nil
}

func buildEngineConfig(c *cli.Context) (config.Engine, error) {
	b := config.NewEngineBuilder()
	if path := c.String("engine-config"); path != "" {
		var err error
		b, err = b.WithFile(path)
		if err != nil {
			return config.Engine{}, err
		}
	}
	b = b.WithLeafWidth(c.Int("leaf-width"))
	return b.Build()
}
