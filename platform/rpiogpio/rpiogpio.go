//go:build !tinygo

// Package rpiogpio drives LEDs on a Raspberry Pi through /dev/gpiomem using
// go-rpio. Port/pin are flattened to a BCM number unless the config names one.
package rpiogpio

import (
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio/v4"

	"ledcode-go/platform"
	"ledcode-go/types"
)

const backendName = "rpio"

func init() {
	platform.Register(backendName, func(cfg types.BoardConfig) (platform.Backend, error) {
		return Open(platform.LineNames(cfg))
	})
}

// pinIO is the part of rpio.Pin the backend uses.
type pinIO interface {
	Output()
	PullOff()
	High()
	Low()
	Toggle()
}

type rpioPin struct{ p rpio.Pin }

func (r rpioPin) Output()  { r.p.Output() }
func (r rpioPin) PullOff() { r.p.PullOff() }
func (r rpioPin) High()    { r.p.High() }
func (r rpioPin) Low()     { r.p.Low() }
func (r rpioPin) Toggle()  { r.p.Toggle() }

type Backend struct {
	mu     sync.Mutex
	lines  map[string]string
	pins   map[string]pinIO
	pinFor func(bcm uint8) pinIO
	closer func() error
	err    error
}

// Open maps /dev/gpiomem. lines maps "PA5" style names to BCM numbers
// written as "17" or "GPIO17".
func Open(lines map[string]string) (*Backend, error) {
	if err := rpio.Open(); err != nil {
		return nil, errors.Wrap(err, "failed to open rpio")
	}
	b := newBackend(lines, func(n uint8) pinIO { return rpioPin{rpio.Pin(n)} })
	b.closer = rpio.Close
	return b, nil
}

func newBackend(lines map[string]string, pinFor func(uint8) pinIO) *Backend {
	if lines == nil {
		lines = map[string]string{}
	}
	return &Backend{lines: lines, pins: map[string]pinIO{}, pinFor: pinFor}
}

func (b *Backend) Name() string { return backendName }

func (b *Backend) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.err
	b.err = nil
	return err
}

// Close drives every configured pin low and unmaps the registers.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.pins {
		p.Low()
	}
	if b.closer != nil {
		return b.closer()
	}
	return nil
}

// EnableClock is a no-op: the SoC keeps the GPIO block clocked.
func (b *Backend) EnableClock(types.Port) {}

func (b *Backend) Configure(cfg types.PinConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, err := b.bcm(cfg.Port, cfg.Pin)
	if err != nil {
		b.err = err
		return
	}
	p := b.pinFor(n)
	p.Output()
	if cfg.Pull == types.PullNone {
		p.PullOff()
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
	if level {
		p.High()
	} else {
		p.Low()
	}
}

func (b *Backend) Toggle(port types.Port, pin uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.pinLocked(port, pin); ok {
		p.Toggle()
	}
}

func (b *Backend) pinLocked(port types.Port, pin uint8) (pinIO, bool) {
	p, ok := b.pins[platform.PinName(port, pin)]
	if !ok {
		b.err = errors.Errorf("rpio: %s not configured", platform.PinName(port, pin))
	}
	return p, ok
}

func (b *Backend) bcm(port types.Port, pin uint8) (uint8, error) {
	name := platform.PinName(port, pin)
	s, ok := b.lines[name]
	if !ok {
		n := platform.LinearNumber(port, pin)
		if n < 0 || n > 53 {
			return 0, errors.Errorf("rpio: %s has no BCM mapping", name)
		}
		return uint8(n), nil
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "GPIO"), 10, 8)
	if err != nil {
		return 0, errors.Wrapf(err, "rpio: bad line %q for %s", s, name)
	}
	return uint8(n), nil
}
