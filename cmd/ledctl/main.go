//go:build !tinygo

// Command ledctl drives board LEDs from a Linux host or the simulator, either
// one command at a time or as an HTTP service.
package main

import (
	"os"

	_ "ledcode-go/platform/rpiogpio"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
