//go:build !tinygo

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"ledcode-go/errcode"
)

func TestLEDCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLED(reg)

	m.Command("status", "on", errcode.OK)
	m.Command("status", "on", errcode.OK)
	m.Command("nope", "off", errcode.UnknownLED)
	m.Toggles("status", 5)
	m.Toggles("status", 1)

	if got := testutil.ToFloat64(m.commands.WithLabelValues("status", "on", "ok")); got != 2 {
		t.Errorf("commands{status,on,ok} = %v", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("unknown_led")); got != 1 {
		t.Errorf("failures{unknown_led} = %v", got)
	}
	if got := testutil.ToFloat64(m.toggles.WithLabelValues("status")); got != 6 {
		t.Errorf("toggles{status} = %v", got)
	}

	n, err := testutil.GatherAndCount(reg, "ledcode_led_commands_total")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("series = %d, want 2", n)
	}
}
