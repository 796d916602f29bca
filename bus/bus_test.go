// bus/bus_test.go
package bus

import (
	"context"
	"sort"
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("led", "status", "state"))
	conn.Publish(conn.NewMessage(T("led", "status", "state"), "on", false))

	expectOneOf(t, sub, "on")
}

func TestRetainedDeliveredOnSubscribe(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(T("config", "leds"), "board", true))
	sub := conn.Subscribe(T("config", "leds"))

	expectOneOf(t, sub, "board")
}

func TestRetainedClearedByNilPayload(t *testing.T) {
	b := NewBus(8)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("led", "a", "state"), "on", true))
	c.Publish(b.NewMessage(T("led", "b", "state"), "off", true))
	c.Publish(b.NewMessage(T("led", "a", "state"), nil, true))

	s := c.Subscribe(T("led", "#"))
	got := drainPayloads(t, s, 1)
	if got[0] != "off" {
		t.Fatalf("got %v, want [off]", got)
	}
}

func TestWildcards(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	one := c.Subscribe(T("led", "+", "state"))
	rest := c.Subscribe(T("led", "#"))
	all := c.Subscribe(T("#"))
	miss := c.Subscribe(T("led", "+", "control", "+"))

	c.Publish(b.NewMessage(T("led", "status", "state"), "m1", false))
	expectOneOf(t, one, "m1")
	expectOneOf(t, rest, "m1")
	expectOneOf(t, all, "m1")
	expectNoMessage(t, miss)

	c.Publish(b.NewMessage(T("led"), "m2", false))
	expectOneOf(t, rest, "m2")
	expectOneOf(t, all, "m2")
	expectNoMessage(t, one)
}

func TestWildcardRetained(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("led"), "r0", true))
	c.Publish(b.NewMessage(T("led", "a", "state"), "r1", true))
	c.Publish(b.NewMessage(T("led", "b", "state"), "r2", true))

	got := drainPayloads(t, c.Subscribe(T("led", "+", "state")), 2)
	assertUnorderedEqual(t, got, []string{"r1", "r2"})

	got = drainPayloads(t, c.Subscribe(T("led", "#")), 3)
	assertUnorderedEqual(t, got, []string{"r0", "r1", "r2"})
}

func TestQueueDropsOldest(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	s := c.Subscribe(T("x"))

	for _, p := range []string{"1", "2", "3"} {
		c.Publish(b.NewMessage(T("x"), p, false))
	}
	got := drainPayloads(t, s, 2)
	if got[0] != "2" || got[1] != "3" {
		t.Fatalf("got %v, want [2 3]", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	s := c.Subscribe(T("x"))
	c.Unsubscribe(s)
	c.Unsubscribe(s)

	if _, ok := <-s.Channel(); ok {
		t.Fatal("channel should be closed")
	}
	c.Publish(b.NewMessage(T("x"), "late", false))
}

func TestDisconnect(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	s1 := c.Subscribe(T("a"))
	s2 := c.Subscribe(T("b"))
	c.Disconnect()
	for _, s := range []*Subscription{s1, s2} {
		if _, ok := <-s.Channel(); ok {
			t.Fatal("channel should be closed after Disconnect")
		}
	}
}

func TestRequestWait(t *testing.T) {
	b := NewBus(8)
	reqConn := b.NewConnection("requester")
	respConn := b.NewConnection("responder")

	reqSub := respConn.Subscribe(T("led", "status", "control", "toggle"))
	go func() {
		if msg, ok := <-reqSub.Channel(); ok {
			respConn.Reply(msg, "OK", false)
		}
	}()

	req := b.NewMessage(T("led", "status", "control", "toggle"), nil, false)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	reply, err := reqConn.RequestWait(ctx, req)
	if err != nil {
		t.Fatalf("RequestWait: %v", err)
	}
	if s, _ := reply.Payload.(string); s != "OK" {
		t.Fatalf("reply payload = %#v", reply.Payload)
	}
	if reply.Topic.String() != req.ReplyTo.String() {
		t.Fatalf("reply topic %v != ReplyTo %v", reply.Topic, req.ReplyTo)
	}
}

func TestRequestWaitTimeout(t *testing.T) {
	b := NewBus(8)
	c := b.NewConnection("requester")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := c.RequestWait(ctx, b.NewMessage(T("nobody"), nil, false)); err == nil {
		t.Fatal("expected timeout")
	}
}

func TestReplyWithoutReplyToIsIgnored(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	c.Reply(b.NewMessage(T("x"), nil, false), "ignored", false)
	c.Reply(nil, "ignored", false)
}

func TestTopicInvalidTokenPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for []byte token")
		}
	}()
	_ = T([]byte{1, 2, 3})
}

func TestTopicString(t *testing.T) {
	if got := T("_reply", "cli", 7).String(); got != "_reply/cli/7" {
		t.Fatalf("String() = %q", got)
	}
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func expectOneOf(t *testing.T, sub *Subscription, want string) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		if s, ok := got.Payload.(string); !ok || s != want {
			t.Fatalf("unexpected payload: %v (want %q)", got.Payload, want)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for %q", want)
	}
}

func expectNoMessage(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		t.Fatalf("unexpected message: %#v", got)
	case <-time.After(30 * time.Millisecond):
	}
}

func drainPayloads(t *testing.T, sub *Subscription, n int) []string {
	t.Helper()
	var out []string
	deadline := time.Now().Add(300 * time.Millisecond)
	for len(out) < n && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			s, ok := m.Payload.(string)
			if !ok {
				t.Fatalf("non-string payload: %#v", m.Payload)
			}
			out = append(out, s)
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(out) != n {
		t.Fatalf("expected %d messages, got %d (%v)", n, len(out), out)
	}
	return out
}

func assertUnorderedEqual(t *testing.T, got, want []string) {
	t.Helper()
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
