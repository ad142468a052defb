package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"framecheck/internal/checker"
	"framecheck/internal/config"
	"framecheck/internal/logger"
	"framecheck/pkg/color"

	"github.com/charmbracelet/log"
	cli "github.com/urfave/cli/v2"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "TOML run configuration and extra classes",
	}
	domainFlag = &cli.StringFlag{
		Name:  "domain",
		Usage: "value domain: basic or verify",
	}
	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "report format: text, yaml or cbor",
	}
	framesFlag = &cli.BoolFlag{
		Name:  "frames",
		Usage: "include the computed frames in the report",
	}
	workersFlag = &cli.IntFlag{
		Name:  "workers",
		Usage: "number of methods validated concurrently",
	}
	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Verbose mode",
	}
	noColorFlag = &cli.BoolFlag{
		Name:    "no-color",
		Aliases: []string{"n"},
		Usage:   "No color",
	}
)

var verifyCommand = &cli.Command{
	Name:      "verify",
	Usage:     "Validate the stack map frames of every method",
	ArgsUsage: "<file> [<file>...]",
	Flags:     []cli.Flag{configFlag, domainFlag, formatFlag, framesFlag, workersFlag},
	Action:    verify,
}

var dumpCommand = &cli.Command{
	Name:      "dump",
	Usage:     "Print the parsed instructions with their indices",
	ArgsUsage: "<file>",
	Action:    dump,
}

// Main entry point for the framecheck verifier.
func main() {
	app := &cli.App{
		Name:  "framecheck",
		Usage: "stack map frame verifier for JVM bytecode listings",
		Flags: []cli.Flag{verboseFlag, noColorFlag},
		Before: func(ctx *cli.Context) error {
			noColor := ctx.Bool(noColorFlag.Name)
			logger.Init(ctx.Bool(verboseFlag.Name), noColor)
			if noColor {
				color.EnableColor(false)
			}
			return nil
		},
		Commands: []*cli.Command{verifyCommand, dumpCommand},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Error("framecheck failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func verify(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return fmt.Errorf("no input file provided, see %s verify --help", ctx.App.Name)
	}

	cfg := config.Default()
	if path := ctx.String(configFlag.Name); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return err
		}
	}

	// flags override the config file
	if ctx.IsSet(domainFlag.Name) {
		cfg.Run.Domain = ctx.String(domainFlag.Name)
	}
	if ctx.IsSet(formatFlag.Name) {
		cfg.Run.Format = ctx.String(formatFlag.Name)
	}
	if ctx.IsSet(framesFlag.Name) {
		cfg.Run.Frames = ctx.Bool(framesFlag.Name)
	}
	if ctx.IsSet(workersFlag.Name) {
		cfg.Run.Workers = ctx.Int(workersFlag.Name)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	options := checker.FromConfig(cfg)
	options.Files = ctx.Args().Slice()

	rep, err := options.Verify(ctx.Context)
	if err != nil {
		return err
	}
	if rep.Failed() {
		s := rep.Summary()
		return cli.Exit("", failureCode(s.Failed, s.BrokenFiles))
	}

	return nil
}

// failureCode is 1 when methods fail validation and 2 when only inputs could
// not be loaded.
func failureCode(failed, broken int) int {
	if failed == 0 && broken > 0 {
		return 2
	}

	return 1
}

func dump(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("dump expects exactly one file")
	}

	return checker.Dump(ctx.Args().First(), os.Stdout)
}
