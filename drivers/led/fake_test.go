package led

import (
	"fmt"

	"ledcode-go/types"
)

// recorder implements ClockEnabler, PinOutput and Delayer and keeps an ordered
// call log plus a virtual pin level per port/pin.
type recorder struct {
	calls   []string
	configs []types.PinConfig
	clocks  []types.Port
	levels  map[string]types.Level
}

func newRecorder() *recorder {
	return &recorder{levels: map[string]types.Level{}}
}

func key(port types.Port, pin uint8) string { return fmt.Sprintf("%v%d", port, pin) }

func (r *recorder) EnableClock(port types.Port) {
	r.clocks = append(r.clocks, port)
	r.calls = append(r.calls, "clock")
}

func (r *recorder) Configure(cfg types.PinConfig) {
	r.configs = append(r.configs, cfg)
	r.calls = append(r.calls, "configure")
}

func (r *recorder) Write(port types.Port, pin uint8, level types.Level) {
	r.levels[key(port, pin)] = level
	r.calls = append(r.calls, "write:"+level.String())
}

func (r *recorder) Toggle(port types.Port, pin uint8) {
	k := key(port, pin)
	r.levels[k] = !r.levels[k]
	r.calls = append(r.calls, "toggle")
}

func (r *recorder) DelayMs(ms uint32) {
	r.calls = append(r.calls, fmt.Sprintf("wait:%d", ms))
}

func (r *recorder) level(port types.Port, pin uint8) types.Level {
	return r.levels[key(port, pin)]
}

func (r *recorder) count(call string) int {
	n := 0
	for _, c := range r.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (r *recorder) reset() { r.calls = nil }

func newTestDriver(port types.Port, pin uint8) (*Driver, *recorder) {
	r := newRecorder()
	d, err := New(port, pin, r, r, r)
	if err != nil {
		panic(err)
	}
	return d, r
}
