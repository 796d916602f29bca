// Package led drives a single GPIO LED and keeps a logical mirror of its state.
//
// The driver owns no hardware itself. It calls three collaborators supplied by
// the platform:
//
//	ClockEnabler   powers the GPIO port (RCC on STM32)
//	PinOutput      configures, writes and toggles the pin
//	Delayer        blocks for a number of milliseconds
//
// A Driver is not safe for concurrent use. Give each LED exactly one owner.
package led

import (
	"ledcode-go/errcode"
	"ledcode-go/internal/logging"
	"ledcode-go/types"
)

// DefaultBlinkPeriodMs is the conventional toggle period for callers that have
// no better value. Blink does not apply it on its own.
const DefaultBlinkPeriodMs uint32 = 100

// ClockEnabler powers the peripheral clock of a GPIO port. Idempotent.
type ClockEnabler interface {
	EnableClock(port types.Port)
}

// PinOutput is the pin side of the platform HAL.
type PinOutput interface {
	Configure(cfg types.PinConfig)
	Write(port types.Port, pin uint8, level types.Level)
	Toggle(port types.Port, pin uint8)
}

// Delayer blocks the caller for at least ms milliseconds.
type Delayer interface {
	DelayMs(ms uint32)
}

// Option customises a Driver.
type Option func(*Driver)

// WithLogger attaches a logger; the default is silent.
func WithLogger(l logging.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.log = l
		}
	}
}

// Driver is the handle for one LED.
type Driver struct {
	port  types.Port
	pin   uint8
	clk   ClockEnabler
	out   PinOutput
	delay Delayer
	log   logging.Logger

	state types.State
}

// New binds a driver to port/pin. Only the pin number is checked here: an
// unsupported port is still accepted so that Init can configure the pin the
// way the hardware contract demands and flag the port there.
func New(port types.Port, pin uint8, clk ClockEnabler, out PinOutput, delay Delayer, opts ...Option) (*Driver, error) {
	if pin > types.MaxPin {
		return nil, &errcode.E{C: errcode.InvalidPin, Op: "led.New"}
	}
	d := &Driver{
		port:  port,
		pin:   pin,
		clk:   clk,
		out:   out,
		delay: delay,
		log:   logging.Nop,
		state: types.StateOff,
	}
	for _, o := range opts {
		o(d)
	}
	return d, nil
}

func (d *Driver) Port() types.Port   { return d.port }
func (d *Driver) Pin() uint8         { return d.pin }
func (d *Driver) State() types.State { return d.state }

// Init enables the port clock, configures the pin as a push-pull output with
// no pull and low slew, and resets the mirror to OFF.
//
// For a port outside the supported set the clock step is skipped, the pin is
// still configured and the state is still OFF; errcode.UnsupportedPort is
// returned so the caller can tell.
func (d *Driver) Init() error {
	var err error
	if d.port.Valid() {
		d.clk.EnableClock(d.port)
	} else {
		err = &errcode.E{C: errcode.UnsupportedPort, Op: "led.Init", Msg: d.port.String()}
	}
	d.out.Configure(types.LEDPinConfig(d.port, d.pin))
	d.state = types.StateOff
	d.log.Debug("led init", "port", d.port, "pin", d.pin)
	return err
}

// On drives the pin high.
func (d *Driver) On() {
	d.out.Write(d.port, d.pin, types.High)
	d.state = types.StateOn
}

// Off drives the pin low.
func (d *Driver) Off() {
	d.out.Write(d.port, d.pin, types.Low)
	d.state = types.StateOff
}

// Toggle inverts the pin. Only ON maps to OFF; every other value maps to ON.
func (d *Driver) Toggle() {
	d.out.Toggle(d.port, d.pin)
	if d.state == types.StateOn {
		d.state = types.StateOff
	} else {
		d.state = types.StateOn
	}
}

// Blink toggles count times, waiting delayMs after each toggle, then forces the
// LED off whatever the parity of count. It blocks for about count*delayMs and
// cannot be cancelled.
func (d *Driver) Blink(count uint8, delayMs uint32) {
	d.log.Debug("led blink", "port", d.port, "pin", d.pin, "count", count, "delay_ms", delayMs)
	for i := uint8(0); i < count; i++ {
		d.out.Toggle(d.port, d.pin)
		d.delay.DelayMs(delayMs)
	}
	d.out.Write(d.port, d.pin, types.Low)
	d.state = types.StateOff
}

// TimerIRQHandler is the hook a timer interrupt would call for a
// non-blocking blink mode. It is intentionally empty: it must not touch any
// Driver, whose state is unsynchronised.
func TimerIRQHandler() {}
