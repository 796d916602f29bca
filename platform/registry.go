package platform

import (
	"sort"
	"strconv"
	"sync"

	"ledcode-go/errcode"
	"ledcode-go/types"
)

// Opener builds a backend for a board config.
type Opener func(cfg types.BoardConfig) (Backend, error)

var (
	regMu   sync.RWMutex
	openers = map[string]Opener{}
)

// Register makes a backend available to Open. Backend packages call it from init.
func Register(name string, o Opener) {
	regMu.Lock()
	openers[name] = o
	regMu.Unlock()
}

// Open builds the backend named by cfg.Backend. An empty name picks Default.
func Open(cfg types.BoardConfig) (Backend, error) {
	if cfg.Backend == "" {
		return Default(), nil
	}
	regMu.RLock()
	o, ok := openers[cfg.Backend]
	regMu.RUnlock()
	if !ok {
		return nil, &errcode.E{C: errcode.UnknownBackend, Op: "platform.Open", Msg: cfg.Backend}
	}
	return o(cfg)
}

// Backends lists registered backend names.
func Backends() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(openers))
	for n := range openers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func init() {
	Register("sim", func(types.BoardConfig) (Backend, error) { return NewSim(), nil })
}

// PinName is the STM32-style name of port/pin, e.g. "PA5".
func PinName(port types.Port, pin uint8) string {
	return "P" + port.String() + strconv.Itoa(int(pin))
}

// LineNames maps each configured LED's PinName to its Line override, for
// backends that address pins by an OS-level name.
func LineNames(cfg types.BoardConfig) map[string]string {
	m := make(map[string]string, len(cfg.LEDs))
	for _, l := range cfg.LEDs {
		if l.Line == "" {
			continue
		}
		if p, ok := types.ParsePort(l.Port); ok {
			m[PinName(p, l.Pin)] = l.Line
		}
	}
	return m
}

// LinearNumber flattens port/pin into port*16+pin, the numbering TinyGo uses
// for machine.Pin on STM32 and a sane default for other backends.
func LinearNumber(port types.Port, pin uint8) int {
	return port.Index()*16 + int(pin)
}
