// Package mcp23017 drives LEDs hanging off an MCP23017 16-bit I²C GPIO
// expander. The expander's two 8-bit banks are exposed as PortA and PortB;
// PortC does not exist on this part.
//
// Output latches are cached so that Write and Toggle cost a single register
// write each. The cache is loaded from OLAT when a bank is first configured.
package mcp23017

import (
	"errors"
	"sync"

	"tinygo.org/x/drivers"

	"ledcode-go/errcode"
	"ledcode-go/platform"
	"ledcode-go/types"
)

// Address is the base I²C address (A2..A0 tied low).
const Address = 0x20

// Registers in the default IOCON.BANK=0 layout.
const (
	regIODIRA = 0x00
	regIODIRB = 0x01
	regGPPUA  = 0x0C
	regGPPUB  = 0x0D
	regOLATA  = 0x14
	regOLATB  = 0x15
)

const backendName = "mcp23017"

// ErrNoBus is returned when Open finds no I²C bus to use.
var ErrNoBus = errors.New("mcp23017: no i2c bus")

// Bus is where the backend registry gets its I²C bus from. Firmware and the
// host CLI set it before opening the backend.
var Bus drivers.I2C

func init() {
	platform.Register(backendName, func(cfg types.BoardConfig) (platform.Backend, error) {
		if Bus == nil {
			return nil, ErrNoBus
		}
		return New(Bus, Address), nil
	})
}

// Device wraps an I2C connection to an MCP23017.
type Device struct {
	bus     drivers.I2C
	Address uint16

	mu     sync.Mutex
	iodir  [2]byte
	gppu   [2]byte
	olat   [2]byte
	loaded [2]bool
	err    error
}

// New creates a Device. It does not touch the bus.
func New(bus drivers.I2C, addr uint16) *Device {
	return &Device{
		bus:     bus,
		Address: addr,
		iodir:   [2]byte{0xFF, 0xFF}, // power-on default: all inputs
	}
}

func (d *Device) Name() string { return backendName }

func (d *Device) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.err
	d.err = nil
	return err
}

// Close drives every output bank low.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for bank := 0; bank < 2; bank++ {
		if !d.loaded[bank] {
			continue
		}
		d.olat[bank] = 0
		if err := d.writeReg(regOLATA+byte(bank), 0); err != nil {
			return err
		}
	}
	return nil
}

// EnableClock is a no-op: the expander has no per-bank clock gating.
func (d *Device) EnableClock(types.Port) {}

// Configure clears the pin's IODIR bit and sets its pull-up per cfg.Pull.
// Open-drain and slew settings have no equivalent on this part.
func (d *Device) Configure(cfg types.PinConfig) {
	d.mu.Lock()
	defer d.mu.Unlock()
	bank, bit, ok := d.locate("Configure", cfg.Port, cfg.Pin)
	if !ok {
		return
	}
	if !d.loaded[bank] {
		var b [1]byte
		if err := d.bus.Tx(d.Address, []byte{regOLATA + byte(bank)}, b[:]); err != nil {
			d.err = errcode.Wrap(errcode.BackendFault, "mcp23017.Configure", err)
			return
		}
		d.olat[bank] = b[0]
		d.loaded[bank] = true
	}

	if cfg.Pull == types.PullUp {
		d.gppu[bank] |= bit
	} else {
		d.gppu[bank] &^= bit
	}
	d.iodir[bank] &^= bit

	if err := d.writeReg(regGPPUA+byte(bank), d.gppu[bank]); err != nil {
		return
	}
	_ = d.writeReg(regIODIRA+byte(bank), d.iodir[bank])
}

func (d *Device) Write(port types.Port, pin uint8, level types.Level) {
	d.mu.Lock()
	defer d.mu.Unlock()
	bank, bit, ok := d.locate("Write", port, pin)
	if !ok {
		return
	}
	if level {
		d.olat[bank] |= bit
	} else {
		d.olat[bank] &^= bit
	}
	_ = d.writeReg(regOLATA+byte(bank), d.olat[bank])
}

func (d *Device) Toggle(port types.Port, pin uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	bank, bit, ok := d.locate("Toggle", port, pin)
	if !ok {
		return
	}
	d.olat[bank] ^= bit
	_ = d.writeReg(regOLATA+byte(bank), d.olat[bank])
}

// Latch returns the cached output latch of a bank.
func (d *Device) Latch(port types.Port) byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if port != types.PortA && port != types.PortB {
		return 0
	}
	return d.olat[port.Index()]
}

// caller holds mu.
func (d *Device) locate(op string, port types.Port, pin uint8) (bank int, bit byte, ok bool) {
	if port != types.PortA && port != types.PortB {
		d.err = &errcode.E{C: errcode.UnsupportedPort, Op: "mcp23017." + op, Msg: port.String()}
		return 0, 0, false
	}
	if pin > 7 {
		d.err = &errcode.E{C: errcode.InvalidPin, Op: "mcp23017." + op}
		return 0, 0, false
	}
	return port.Index(), 1 << pin, true
}

// caller holds mu.
func (d *Device) writeReg(reg, val byte) error {
	if err := d.bus.Tx(d.Address, []byte{reg, val}, nil); err != nil {
		d.err = errcode.Wrap(errcode.BackendFault, "mcp23017.writeReg", err)
		return d.err
	}
	return nil
}
