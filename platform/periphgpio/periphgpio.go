//go:build !tinygo

// Package periphgpio drives LEDs on Linux boards through periph.io. It lets the
// same driver logic run against a bench board's header pins.
package periphgpio

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"ledcode-go/platform"
	"ledcode-go/types"
)

const backendName = "periph"

func init() {
	platform.Register(backendName, func(cfg types.BoardConfig) (platform.Backend, error) {
		return Open(platform.LineNames(cfg))
	})
}

// Backend resolves each port/pin to a periph pin by name.
type Backend struct {
	mu     sync.Mutex
	lines  map[string]string
	pins   map[string]gpio.PinIO
	lookup func(name string) gpio.PinIO
	err    error
}

// Open initialises the periph host drivers. lines maps "PA5" style names to
// periph pin names; unmapped pins fall back to "GPIO<port*16+pin>".
func Open(lines map[string]string) (*Backend, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "periph host init")
	}
	return newBackend(lines, gpioreg.ByName), nil
}

// OpenI2C opens a Linux I²C bus by periph name; "" picks the first one. The
// returned bus satisfies tinygo.org/x/drivers.I2C, so expander drivers can use it.
func OpenI2C(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "periph host init")
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open i2c bus %q", name)
	}
	return bus, nil
}

func newBackend(lines map[string]string, lookup func(string) gpio.PinIO) *Backend {
	if lines == nil {
		lines = map[string]string{}
	}
	return &Backend{lines: lines, pins: map[string]gpio.PinIO{}, lookup: lookup}
}

func (b *Backend) Name() string { return backendName }

func (b *Backend) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.err
	b.err = nil
	return err
}

// Close drives every opened pin low.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var first error
	for name, p := range b.pins {
		if err := p.Out(gpio.Low); err != nil && first == nil {
			first = errors.Wrapf(err, "close %s", name)
		}
	}
	return first
}

// EnableClock is a no-op: the kernel gates GPIO clocks on Linux.
func (b *Backend) EnableClock(types.Port) {}

func (b *Backend) Configure(cfg types.PinConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	name := b.lineName(cfg.Port, cfg.Pin)
	p := b.lookup(name)
	if p == nil {
		b.err = errors.Errorf("periph: no pin named %q", name)
		return
	}
	if err := p.Out(gpio.Low); err != nil {
		b.err = errors.Wrapf(err, "periph: configure %s", name)
		return
	}
	b.pins[platform.PinName(cfg.Port, cfg.Pin)] = p
}

func (b *Backend) Write(port types.Port, pin uint8, level types.Level) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pinLocked(port, pin)
	if !ok {
		return
	}
	if err := p.Out(gpio.Level(level)); err != nil {
		b.err = errors.Wrapf(err, "periph: write %s", p.Name())
	}
}

func (b *Backend) Toggle(port types.Port, pin uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pinLocked(port, pin)
	if !ok {
		return
	}
	if err := p.Out(!p.Read()); err != nil {
		b.err = errors.Wrapf(err, "periph: toggle %s", p.Name())
	}
}

func (b *Backend) pinLocked(port types.Port, pin uint8) (gpio.PinIO, bool) {
	p, ok := b.pins[platform.PinName(port, pin)]
	if !ok {
		b.err = errors.Errorf("periph: %s not configured", platform.PinName(port, pin))
	}
	return p, ok
}

func (b *Backend) lineName(port types.Port, pin uint8) string {
	if n, ok := b.lines[platform.PinName(port, pin)]; ok {
		return n
	}
	return fmt.Sprintf("GPIO%d", platform.LinearNumber(port, pin))
}
