// Package platform supplies the clock and pin collaborators for drivers/led.
// The concrete backend is chosen at build time: TinyGo STM32F4 builds talk to
// RCC and GPIO registers, everything else gets the in-memory simulator.
package platform

import (
	"ledcode-go/drivers/led"
)

// Backend is one pin-output provider. Err reports the last hardware failure
// since the previous call (nil for backends that cannot fail).
type Backend interface {
	led.ClockEnabler
	led.PinOutput
	Name() string
	Err() error
	Close() error
}
