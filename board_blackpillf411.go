//go:build ledboard_blackpillf411

package main

import "time"

const (
	board     = "blackpill-f411"
	bootDelay = 2 * time.Second
)
