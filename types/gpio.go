package types

// ------------------------
// GPIO identifiers
// ------------------------

// Port is a closed enumeration of the GPIO ports an LED may sit on.
// The zero value is invalid so that an unset port is never mistaken for PortA.
type Port uint8

const (
	PortInvalid Port = iota
	PortA
	PortB
	PortC
)

// Valid reports whether p is one of the supported ports.
func (p Port) Valid() bool { return p >= PortA && p <= PortC }

// Index is the zero-based port number (A=0). Only meaningful when Valid.
func (p Port) Index() int { return int(p) - int(PortA) }

func (p Port) String() string {
	switch p {
	case PortA:
		return "A"
	case PortB:
		return "B"
	case PortC:
		return "C"
	default:
		return "?"
	}
}

// ParsePort accepts "A", "a", "GPIOA", "PA" and friends.
func ParsePort(s string) (Port, bool) {
	switch s {
	case "A", "a", "PA", "GPIOA", "gpioa":
		return PortA, true
	case "B", "b", "PB", "GPIOB", "gpiob":
		return PortB, true
	case "C", "c", "PC", "GPIOC", "gpioc":
		return PortC, true
	}
	return PortInvalid, false
}

// MaxPin is the highest pin number on a 16-bit GPIO port.
const MaxPin = 15

// Level is a physical pin level.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// ------------------------
// Output configuration
// ------------------------

type Mode uint8

const (
	ModeOutputPushPull Mode = iota
	ModeOutputOpenDrain
)

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type Speed uint8

const (
	SpeedLow Speed = iota
	SpeedMedium
	SpeedHigh
	SpeedVeryHigh
)

// PinConfig is built fresh for every configure call and not retained.
type PinConfig struct {
	Port  Port
	Pin   uint8
	Mode  Mode
	Pull  Pull
	Speed Speed
}

// LEDPinConfig returns the configuration an LED output always uses:
// push-pull, no pull resistor, low slew speed.
func LEDPinConfig(port Port, pin uint8) PinConfig {
	return PinConfig{
		Port:  port,
		Pin:   pin,
		Mode:  ModeOutputPushPull,
		Pull:  PullNone,
		Speed: SpeedLow,
	}
}
