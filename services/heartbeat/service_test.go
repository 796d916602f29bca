package heartbeat

import (
	"context"
	"testing"
	"time"

	"ledcode-go/bus"
	"ledcode-go/internal/logging"
	"ledcode-go/platform"
	"ledcode-go/services/ledsvc"
	"ledcode-go/types"
	"ledcode-go/x/timex"
)

func startLEDs(t *testing.T, ctx context.Context, b *bus.Bus) *platform.Sim {
	t.Helper()
	sim := platform.NewSim()
	svc := ledsvc.New(b.NewConnection("ledsvc"),
		ledsvc.WithDelayer(&timex.VirtualClock{}),
		ledsvc.WithOpener(func(types.BoardConfig) (platform.Backend, error) { return sim, nil }),
	)
	go svc.Run(ctx)

	conn := b.NewConnection("setup")
	ready := conn.Subscribe(ledsvc.StateTopic("b"))
	conn.Publish(conn.NewMessage(ledsvc.TopicConfig, types.BoardConfig{
		Backend: "sim",
		LEDs: []types.LEDConfig{
			{ID: "a", Port: "A", Pin: 5},
			{ID: "b", Port: "B", Pin: 0},
		},
	}, true))
	select {
	case <-ready.Channel():
	case <-time.After(time.Second):
		t.Fatal("LED service not ready")
	}
	conn.Unsubscribe(ready)
	return sim
}

func waitToggles(t *testing.T, sim *platform.Sim, port types.Port, pin uint8, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sim.Pin(port, pin).Toggles >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("P%v%d toggled %d times, want >= %d", port, pin, sim.Pin(port, pin).Toggles, n)
}

func TestHeartbeatBlinks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := bus.NewBus(8)
	sim := startLEDs(t, ctx, b)

	s := &Service{LED: "a", Interval: 10 * time.Millisecond}
	if err := s.Start(ctx, b.NewConnection("heartbeat")); err != nil {
		t.Fatal(err)
	}
	waitToggles(t, sim, types.PortA, 5, 2*DefaultToggles)
}

func TestHeartbeatConfigSwitchesLED(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := bus.NewBus(8)
	sim := startLEDs(t, ctx, b)

	s := &Service{LED: "a", Interval: 10 * time.Millisecond, Toggles: 2}
	conn := b.NewConnection("heartbeat")
	if err := s.Start(ctx, conn); err != nil {
		t.Fatal(err)
	}
	conn.Publish(conn.NewMessage(TopicConfig, types.HeartbeatConfig{LED: "b"}, true))
	waitToggles(t, sim, types.PortB, 0, 2)
}

func TestHeartbeatConfigFromJSON(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := bus.NewBus(8)
	sim := startLEDs(t, ctx, b)

	s := &Service{LED: "a", Interval: 10 * time.Millisecond, Toggles: 2}
	conn := b.NewConnection("heartbeat")
	if err := s.Start(ctx, conn); err != nil {
		t.Fatal(err)
	}
	conn.Publish(conn.NewMessage(TopicConfig, `{"led":"b"}`, true))
	waitToggles(t, sim, types.PortB, 0, 2)
}

type signalLog struct {
	logging.Logger
	info chan string
}

func (l signalLog) Info(msg string, args ...any) {
	select {
	case l.info <- msg:
	default:
	}
}

func TestLoopExitsWhenConfigClosed(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("heartbeat")
	conn.Publish(conn.NewMessage(TopicConfig, map[string]any{"interval_ms": 3600000}, true))

	log := signalLog{Logger: logging.Nop, info: make(chan string, 4)}
	s := &Service{LED: "a", Interval: time.Hour, Toggles: 2, Log: log}
	done := make(chan struct{})
	go func() {
		s.serviceLoop(context.Background(), conn)
		close(done)
	}()

	select {
	case msg := <-log.info:
		if msg != "heartbeat config" {
			t.Fatalf("log = %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("retained config not applied")
	}

	conn.Disconnect()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop still running after disconnect")
	}
}

func TestStartNeedsLED(t *testing.T) {
	if err := (&Service{}).Start(context.Background(), bus.NewBus(1).NewConnection("x")); err == nil {
		t.Fatal("expected error without led")
	}
}
