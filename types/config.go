package types

// BoardConfig describes the LEDs of one board and which pin backend drives them.
// It is published retained on config/leds.
type BoardConfig struct {
	Board         string      `json:"board" toml:"board"`
	Backend       string      `json:"backend" toml:"backend"` // "sim", "stm32", "periph", "rpio", "mcp23017"
	BlinkPeriodMs uint32      `json:"blink_period_ms,omitempty" toml:"blink_period_ms"`
	LEDs          []LEDConfig `json:"leds" toml:"leds"`
}

// LEDConfig binds a logical LED id to a port/pin. Port is kept as a string so
// that config files can say "A" or "GPIOA"; it is parsed when the driver is built.
type LEDConfig struct {
	ID   string `json:"id" toml:"id"`
	Port string `json:"port" toml:"port"`
	Pin  uint8  `json:"pin" toml:"pin"`
	// Line overrides the backend pin name where port/pin do not map directly
	// (e.g. a Linux GPIO line name for periph).
	Line string `json:"line,omitempty" toml:"line"`
}

// HeartbeatConfig is published retained on config/heartbeat. Zero fields keep
// the current setting.
type HeartbeatConfig struct {
	LED        string `json:"led,omitempty" toml:"led"`
	IntervalMs uint32 `json:"interval_ms,omitempty" toml:"interval_ms"`
}
