//go:build ledboard_nucleof401re

package main

import "time"

const (
	board     = "nucleo-f401re"
	bootDelay = 2 * time.Second
)
