package types

// ------------------------
// LED logical state
// ------------------------

// State mirrors what the driver believes the LED is showing.
type State uint8

const (
	StateOff State = iota
	StateOn
)

func (s State) String() string {
	if s == StateOn {
		return "on"
	}
	return "off"
}

// ------------------------
// LED bus payloads
// ------------------------

// LEDState is published retained on led/<id>/state.
type LEDState struct {
	ID    string `json:"id"`
	State string `json:"state"` // "on" | "off"
	Port  string `json:"port"`
	Pin   uint8  `json:"pin"`
	TS    int64  `json:"ts_ms"`
	Error string `json:"error,omitempty"`
}

// LEDBlink is the payload for led/<id>/control/blink.
// Zero DelayMs means "use the board default period".
type LEDBlink struct {
	Count   uint8  `json:"count"`
	DelayMs uint32 `json:"delay_ms"`
}

// ------------------------
// Replies
// ------------------------

// LEDReply answers every led/<id>/control/<verb> request.
type LEDReply struct {
	OK    bool   `json:"ok"`
	State string `json:"state,omitempty"`
	Error string `json:"error,omitempty"`
}
