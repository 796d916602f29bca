//go:build !tinygo

// Package metrics exports LED service counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ledcode-go/errcode"
)

const namespace = "ledcode"

// LED implements ledsvc.Metrics.
type LED struct {
	commands *prometheus.CounterVec
	toggles  *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewLED registers the LED counters on reg. A nil reg uses the default registry.
func NewLED(reg prometheus.Registerer) *LED {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &LED{
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "led",
			Name:      "commands_total",
			Help:      "LED commands handled, by led, verb and result code",
		}, []string{"led", "verb", "code"}),
		toggles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "led",
			Name:      "toggles_total",
			Help:      "Pin toggles issued by toggle and blink",
		}, []string{"led"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "led",
			Name:      "command_failures_total",
			Help:      "LED commands that did not return ok",
		}, []string{"code"}),
	}
}

func (m *LED) Command(id, verb string, code errcode.Code) {
	m.commands.WithLabelValues(id, verb, string(code)).Inc()
	if code != errcode.OK {
		m.failures.WithLabelValues(string(code)).Inc()
	}
}

func (m *LED) Toggles(id string, n int) {
	m.toggles.WithLabelValues(id).Add(float64(n))
}
