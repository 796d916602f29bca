//go:build !tinygo

package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"ledcode-go/internal/logging"
	"ledcode-go/platform"
	"ledcode-go/services/config"
	"ledcode-go/services/ledsvc"
)

type app struct {
	opts config.Options
	out  io.Writer
	log  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "ledctl",
		Short:        "Drive GPIO LEDs through the LED service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&a.opts.Config, "config", "c", "ledcode.toml", "Path to configuration file")
	f.StringVar(&a.opts.Board, "board", "", "Embedded board ("+strings.Join(config.Boards(), ", ")+")")
	f.StringVar(&a.opts.Backend, "backend", "", "Pin backend ("+strings.Join(platform.Backends(), ", ")+")")
	f.IntVar(&a.opts.BlinkPeriodMs, "blink-period-ms", 0, "Default blink period in milliseconds")
	f.StringVar(&a.opts.LoggingLevel, "logging-level", "", "Logging level (debug, info, warn, error)")
	f.StringVar(&a.opts.LoggingFormat, "logging-format", "", "Logging format (text, json)")
	f.StringVar(&a.opts.I2cBus, "i2c-bus", "", "I2C bus for the mcp23017 backend")

	root.AddCommand(
		newVerbCmd(a, ledsvc.VerbInit, "Re-run pin initialisation"),
		newVerbCmd(a, ledsvc.VerbOn, "Switch an LED on"),
		newVerbCmd(a, ledsvc.VerbOff, "Switch an LED off"),
		newVerbCmd(a, ledsvc.VerbToggle, "Invert an LED"),
		newBlinkCmd(a),
		newBoardsCmd(a),
		newServeCmd(a),
		newLayoutCmd(a),
	)
	return root
}

// setup applies file and env settings under the flags, then brings up logging.
func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadOptions(&a.opts, cmd); err != nil {
		return err
	}
	lc := config.LoadLoggingConfig(a.opts.Config)
	if a.opts.LoggingLevel != "" {
		lc.Level = a.opts.LoggingLevel
	}
	if a.opts.LoggingFormat != "" {
		lc.Format = a.opts.LoggingFormat
	}
	logging.Initialize(lc)
	a.log = logging.GetLogger("ledctl")
	a.out = cmd.OutOrStdout()
	return nil
}
