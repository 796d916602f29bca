package types

import "testing"

func TestParsePort(t *testing.T) {
	cases := []struct {
		in   string
		want Port
		ok   bool
	}{
		{"A", PortA, true},
		{"gpiob", PortB, true},
		{"PC", PortC, true},
		{"D", PortInvalid, false},
		{"", PortInvalid, false},
	}
	for _, c := range cases {
		got, ok := ParsePort(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("ParsePort(%q) = %v,%v want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestPortValid(t *testing.T) {
	if PortInvalid.Valid() {
		t.Error("zero port must be invalid")
	}
	if Port(9).Valid() {
		t.Error("out-of-range port must be invalid")
	}
	for _, p := range []Port{PortA, PortB, PortC} {
		if !p.Valid() {
			t.Errorf("%v should be valid", p)
		}
	}
	if PortC.Index() != 2 {
		t.Errorf("PortC.Index() = %d", PortC.Index())
	}
}

func TestLEDPinConfig(t *testing.T) {
	cfg := LEDPinConfig(PortA, 5)
	if cfg.Mode != ModeOutputPushPull || cfg.Pull != PullNone || cfg.Speed != SpeedLow {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Port != PortA || cfg.Pin != 5 {
		t.Fatalf("port/pin not carried: %+v", cfg)
	}
}
