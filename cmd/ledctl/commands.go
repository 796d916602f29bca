//go:build !tinygo

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ledcode-go/drivers/led"
	"ledcode-go/platform"
	"ledcode-go/services/config"
	"ledcode-go/services/ledsvc"
	"ledcode-go/types"
	"ledcode-go/x/timex"
)

const commandTimeout = 5 * time.Second

func newVerbCmd(a *app, verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " [led]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.start(cmd.Context(), ledsvc.WithHoldOnStop())
			if err != nil {
				return err
			}
			defer rt.stop()

			id := rt.ledID(args)
			r, err := rt.command(cmd.Context(), id, verb, nil, commandTimeout)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s: %s\n", id, r.State)
			return nil
		},
	}
}

func newBlinkCmd(a *app) *cobra.Command {
	var count uint8
	var delay uint32
	cmd := &cobra.Command{
		Use:   "blink [led]",
		Short: "Toggle an LED count times, then leave it off",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.start(cmd.Context(), ledsvc.WithHoldOnStop())
			if err != nil {
				return err
			}
			defer rt.stop()

			wait := blinkWait(count, delay, rt.board.BlinkPeriodMs)
			id := rt.ledID(args)
			r, err := rt.command(cmd.Context(), id, ledsvc.VerbBlink, types.LEDBlink{Count: count, DelayMs: delay}, wait)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s: %s\n", id, r.State)
			return nil
		},
	}
	cmd.Flags().Uint8Var(&count, "count", 5, "Number of toggles")
	cmd.Flags().Uint32Var(&delay, "delay", 0, "Delay after each toggle in ms (0 = board period)")
	return cmd
}

// blinkWait bounds the reply wait for a blink. The period falls back the same
// way the service resolves it: flag, board, then led.DefaultBlinkPeriodMs.
func blinkWait(count uint8, delay, boardPeriod uint32) time.Duration {
	period := delay
	if period == 0 {
		period = boardPeriod
	}
	if period == 0 {
		period = led.DefaultBlinkPeriodMs
	}
	return commandTimeout + time.Duration(count)*timex.Ms(period)
}

func newBoardsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "boards",
		Short: "List embedded boards and pin backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range config.Boards() {
				cfg, err := config.Embedded(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "board %s\n", name)
				for _, l := range cfg.LEDs {
					fmt.Fprintf(a.out, "  %-8s P%s%d\n", l.ID, l.Port, l.Pin)
				}
			}
			for _, b := range platform.Backends() {
				fmt.Fprintf(a.out, "backend %s\n", b)
			}
			return nil
		},
	}
}
