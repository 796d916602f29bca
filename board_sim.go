//go:build !ledboard_nucleof401re && !ledboard_blackpillf411

package main

import "time"

const (
	board                   = "sim"
	bootDelay time.Duration = 0
)
