package platform

import (
	"bytes"
	"strings"
	"testing"

	"ledcode-go/drivers/led"
	"ledcode-go/types"
	"ledcode-go/x/timex"
)

var _ Backend = (*Sim)(nil)

func TestSimTracksLevelsAndCounts(t *testing.T) {
	s := NewSim()
	s.EnableClock(types.PortA)
	s.EnableClock(types.PortA)
	s.Configure(types.LEDPinConfig(types.PortA, 5))
	s.Write(types.PortA, 5, types.High)
	s.Toggle(types.PortA, 5)
	s.Toggle(types.PortA, 5)

	p := s.Pin(types.PortA, 5)
	if !p.Configured || p.Config.Mode != types.ModeOutputPushPull {
		t.Fatalf("pin not configured: %+v", p)
	}
	if p.Level != types.High || p.Writes != 1 || p.Toggles != 2 {
		t.Fatalf("unexpected pin snapshot: %+v", p)
	}
	if n := s.ClockEnables(types.PortA); n != 2 {
		t.Fatalf("clock enables = %d, want 2", n)
	}
	if n := s.ClockEnables(types.PortB); n != 0 {
		t.Fatalf("port B clock enables = %d, want 0", n)
	}
}

func TestSimMonitorReportsChangesOnly(t *testing.T) {
	var buf bytes.Buffer
	s := NewSim()
	s.Monitor(&buf)

	s.Write(types.PortC, 13, types.Low) // no change from zero value
	s.Write(types.PortC, 13, types.High)
	s.Toggle(types.PortC, 13)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || lines[0] != "[PC13] high" || lines[1] != "[PC13] low" {
		t.Fatalf("monitor output = %q", buf.String())
	}
}

func TestDriverOnSim(t *testing.T) {
	s := NewSim()
	var clk timex.VirtualClock
	d, err := led.New(types.PortA, 5, s, s, &clk)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	d.Blink(7, 10)

	p := s.Pin(types.PortA, 5)
	if p.Toggles != 7 || p.Level != types.Low {
		t.Fatalf("after blink: %+v", p)
	}
	if s.ClockEnables(types.PortA) != 1 {
		t.Fatal("expected one clock enable")
	}
}

func TestDefaultIsSimOnHost(t *testing.T) {
	if got := Default().Name(); got != "sim" {
		t.Fatalf("Default().Name() = %q, want sim", got)
	}
}
