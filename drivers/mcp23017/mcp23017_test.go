package mcp23017

import (
	"errors"
	"sync"
	"testing"

	"tinygo.org/x/drivers"

	"ledcode-go/drivers/led"
	"ledcode-go/errcode"
	"ledcode-go/platform"
	"ledcode-go/types"
	"ledcode-go/x/timex"
)

var _ drivers.I2C = (*fakeI2C)(nil)
var _ platform.Backend = (*Device)(nil)

// fakeI2C emulates the MCP23017 register file.
type fakeI2C struct {
	mu   sync.Mutex
	regs [0x16]byte
	txs  int
	fail error
}

func newFakeI2C() *fakeI2C {
	f := &fakeI2C{}
	f.regs[regIODIRA] = 0xFF
	f.regs[regIODIRB] = 0xFF
	return f
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txs++
	if f.fail != nil {
		return f.fail
	}
	if addr != Address || len(w) == 0 {
		return errors.New("nack")
	}
	reg := w[0]
	if len(w) > 1 {
		f.regs[reg] = w[1]
	}
	if len(r) > 0 {
		r[0] = f.regs[reg]
	}
	return nil
}

func TestBlinkOnExpander(t *testing.T) {
	bus := newFakeI2C()
	dev := New(bus, Address)
	d, err := led.New(types.PortB, 3, dev, dev, &timex.VirtualClock{})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	if bus.regs[regIODIRB]&(1<<3) != 0 {
		t.Fatalf("IODIRB = %08b, bit 3 should be output", bus.regs[regIODIRB])
	}
	if bus.regs[regGPPUB]&(1<<3) != 0 {
		t.Fatal("pull-up must stay off for an LED")
	}

	d.On()
	if bus.regs[regOLATB] != 1<<3 {
		t.Fatalf("OLATB = %08b after On", bus.regs[regOLATB])
	}
	d.Blink(3, 5)
	if bus.regs[regOLATB] != 0 {
		t.Fatalf("OLATB = %08b after Blink, want 0", bus.regs[regOLATB])
	}
	if err := dev.Err(); err != nil {
		t.Fatal(err)
	}
}

func TestConfigurePreservesOtherLatchBits(t *testing.T) {
	bus := newFakeI2C()
	bus.regs[regOLATA] = 0x81
	dev := New(bus, Address)
	dev.Configure(types.LEDPinConfig(types.PortA, 2))
	dev.Toggle(types.PortA, 2)
	if got := bus.regs[regOLATA]; got != 0x85 {
		t.Fatalf("OLATA = %#x, want 0x85", got)
	}
	if dev.Latch(types.PortA) != 0x85 {
		t.Fatal("cached latch out of sync")
	}
}

func TestPortCIsUnsupported(t *testing.T) {
	dev := New(newFakeI2C(), Address)
	dev.Configure(types.LEDPinConfig(types.PortC, 1))
	if errcode.Of(dev.Err()) != errcode.UnsupportedPort {
		t.Fatal("port C should be rejected")
	}
	dev.Write(types.PortA, 9, types.High)
	if errcode.Of(dev.Err()) != errcode.InvalidPin {
		t.Fatal("pin 9 should be rejected")
	}
}

func TestBusFailureIsRecorded(t *testing.T) {
	bus := newFakeI2C()
	dev := New(bus, Address)
	dev.Configure(types.LEDPinConfig(types.PortA, 0))

	bus.fail = errors.New("arbitration lost")
	dev.Write(types.PortA, 0, types.High)
	err := dev.Err()
	if errcode.Of(err) != errcode.BackendFault || !errors.Is(err, bus.fail) {
		t.Fatalf("err = %v", err)
	}
}

func TestRegistryNeedsBus(t *testing.T) {
	old := Bus
	t.Cleanup(func() { Bus = old })

	Bus = nil
	if _, err := platform.Open(types.BoardConfig{Backend: backendName}); !errors.Is(err, ErrNoBus) {
		t.Fatalf("err = %v, want ErrNoBus", err)
	}
	Bus = newFakeI2C()
	b, err := platform.Open(types.BoardConfig{Backend: backendName})
	if err != nil || b.Name() != backendName {
		t.Fatalf("Open = %v, %v", b, err)
	}
}
