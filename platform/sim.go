package platform

import (
	"fmt"
	"io"
	"sync"

	"ledcode-go/types"
)

// SimPin is the simulator's view of one pin.
type SimPin struct {
	Configured bool
	Config     types.PinConfig
	Level      types.Level
	Writes     int
	Toggles    int
}

// Sim is an in-memory GPIO backend for host builds and tests.
type Sim struct {
	mu      sync.Mutex
	clocks  map[types.Port]int
	pins    map[simKey]*SimPin
	monitor io.Writer
}

type simKey struct {
	port types.Port
	pin  uint8
}

func NewSim() *Sim {
	return &Sim{
		clocks: make(map[types.Port]int),
		pins:   make(map[simKey]*SimPin),
	}
}

func (s *Sim) Name() string { return "sim" }
func (s *Sim) Err() error   { return nil }
func (s *Sim) Close() error { return nil }

func (s *Sim) EnableClock(port types.Port) {
	s.mu.Lock()
	s.clocks[port]++
	s.mu.Unlock()
}

func (s *Sim) Configure(cfg types.PinConfig) {
	s.mu.Lock()
	p := s.pinLocked(cfg.Port, cfg.Pin)
	p.Configured = true
	p.Config = cfg
	s.mu.Unlock()
}

func (s *Sim) Write(port types.Port, pin uint8, level types.Level) {
	s.mu.Lock()
	p := s.pinLocked(port, pin)
	old := p.Level
	p.Level = level
	p.Writes++
	s.reportLocked(port, pin, old, level)
	s.mu.Unlock()
}

func (s *Sim) Toggle(port types.Port, pin uint8) {
	s.mu.Lock()
	p := s.pinLocked(port, pin)
	old := p.Level
	p.Level = !p.Level
	p.Toggles++
	s.reportLocked(port, pin, old, p.Level)
	s.mu.Unlock()
}

// Pin returns a snapshot of port/pin.
func (s *Sim) Pin(port types.Port, pin uint8) SimPin {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.pinLocked(port, pin)
}

// ClockEnables counts EnableClock calls for port.
func (s *Sim) ClockEnables(port types.Port) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clocks[port]
}

// Monitor prints every level change to w.
func (s *Sim) Monitor(w io.Writer) {
	s.mu.Lock()
	s.monitor = w
	s.mu.Unlock()
}

func (s *Sim) pinLocked(port types.Port, pin uint8) *SimPin {
	k := simKey{port, pin}
	p, ok := s.pins[k]
	if !ok {
		p = &SimPin{}
		s.pins[k] = p
	}
	return p
}

func (s *Sim) reportLocked(port types.Port, pin uint8, old, now types.Level) {
	if s.monitor == nil || old == now {
		return
	}
	fmt.Fprintf(s.monitor, "[P%v%d] %v\n", port, pin, now)
}
