// Package ledsvc owns the LED drivers of a board and exposes them on the bus.
//
// Topics:
//
//	config/leds                  retained types.BoardConfig (input)
//	led/<id>/control/<verb>      init | on | off | toggle | blink (request/reply)
//	led/<id>/state               retained types.LEDState (output)
//	ledsvc/state                 retained service status (output)
//
// Every driver is touched only from the service goroutine.
package ledsvc

import (
	"context"
	"encoding/json"

	"ledcode-go/bus"
	"ledcode-go/drivers/led"
	"ledcode-go/errcode"
	"ledcode-go/internal/logging"
	"ledcode-go/platform"
	"ledcode-go/types"
	"ledcode-go/x/timex"
)

const (
	VerbInit   = "init"
	VerbOn     = "on"
	VerbOff    = "off"
	VerbToggle = "toggle"
	VerbBlink  = "blink"
)

var (
	TopicConfig  = bus.T("config", "leds")
	topicControl = bus.T("led", "+", "control", "+")
	TopicStatus  = bus.T("ledsvc", "state")
)

// StateTopic is where the retained types.LEDState of id lives.
func StateTopic(id string) bus.Topic { return bus.T("led", id, "state") }

// ControlTopic addresses a verb on LED id.
func ControlTopic(id, verb string) bus.Topic { return bus.T("led", id, "control", verb) }

// Metrics receives one call per handled command. Implementations must be cheap.
type Metrics interface {
	Command(id, verb string, code errcode.Code)
	Toggles(id string, n int)
}

type Option func(*Service)

func WithLogger(l logging.Logger) Option { return func(s *Service) { s.log = l } }

// WithDelayer replaces the blink delay (default timex.Sleeper).
func WithDelayer(d led.Delayer) Option { return func(s *Service) { s.delay = d } }

// WithOpener replaces platform.Open, mainly for tests.
func WithOpener(o platform.Opener) Option { return func(s *Service) { s.open = o } }

func WithMetrics(m Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithHoldOnStop leaves pins and backend untouched when Run returns, so a
// one-shot command's last level survives process exit.
func WithHoldOnStop() Option { return func(s *Service) { s.hold = true } }

type entry struct {
	cfg types.LEDConfig
	drv *led.Driver
}

type Service struct {
	conn    *bus.Connection
	log     logging.Logger
	delay   led.Delayer
	open    platform.Opener
	metrics Metrics
	hold    bool

	cfg     types.BoardConfig
	backend platform.Backend
	leds    map[string]*entry
}

func New(conn *bus.Connection, opts ...Option) *Service {
	s := &Service{
		conn:  conn,
		log:   logging.Nop,
		delay: timex.Sleeper{},
		open:  platform.Open,
		leds:  map[string]*entry{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start runs the service loop in its own goroutine.
func (s *Service) Start(ctx context.Context) {
	go s.Run(ctx)
}

// Run blocks until ctx is cancelled. On exit all LEDs are switched off and the
// backend is closed unless WithHoldOnStop was given.
func (s *Service) Run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(TopicConfig)
	ctrlSub := s.conn.Subscribe(topicControl)
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(ctrlSub)

	s.publishStatus("idle", "awaiting_config", nil)

	for {
		select {
		case <-ctx.Done():
			if !s.hold {
				s.shutdown()
			}
			s.publishStatus("stopped", "context_cancelled", nil)
			return

		case msg, ok := <-cfgSub.Channel():
			if !ok {
				return
			}
			var cfg types.BoardConfig
			if err := DecodePayload(msg.Payload, &cfg); err != nil {
				s.log.Warn("config decode failed", "err", err)
				s.publishStatus("error", "config_decode_failed", err)
				continue
			}
			if err := s.applyConfig(cfg); err != nil {
				s.log.Error("apply config failed", "board", cfg.Board, "err", err)
				s.publishStatus("error", "apply_config_failed", err)
				continue
			}
			s.publishStatus("ready", "configured", nil)

		case msg, ok := <-ctrlSub.Channel():
			if !ok {
				return
			}
			s.handleControl(msg)
		}
	}
}

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// applyConfig swaps the backend and rebuilds every driver. LEDs that vanished
// from the config get their retained state cleared.
//
// The running backend is closed before the next one is opened: some backends
// (go-rpio) map registers in package globals that Close tears down. If the new
// backend fails to open, the previous config is brought back up.
func (s *Service) applyConfig(cfg types.BoardConfig) error {
	prev, hadPrev := s.cfg, s.backend != nil
	s.shutdown()

	be, err := s.open(cfg)
	if err != nil {
		if !hadPrev {
			return err
		}
		rbe, rerr := s.open(prev)
		if rerr != nil {
			s.log.Error("restore previous backend", "backend", prev.Backend, "err", rerr)
			s.dropAll()
			return err
		}
		s.install(prev, rbe)
		return err
	}
	s.install(cfg, be)
	return nil
}

func (s *Service) install(cfg types.BoardConfig, be platform.Backend) {
	s.cfg = cfg
	s.backend = be
	old := s.leds
	s.leds = make(map[string]*entry, len(cfg.LEDs))

	for _, lc := range cfg.LEDs {
		if lc.ID == "" {
			s.log.Warn("led without id skipped", "port", lc.Port, "pin", lc.Pin)
			continue
		}
		delete(old, lc.ID)
		port, _ := types.ParsePort(lc.Port)
		drv, err := led.New(port, lc.Pin, be, be, s.delay, led.WithLogger(s.log))
		if err != nil {
			s.log.Warn("led rejected", "id", lc.ID, "err", err)
			s.publishLED(lc, types.StateOff, err)
			continue
		}
		e := &entry{cfg: lc, drv: drv}
		s.leds[lc.ID] = e

		err = drv.Init()
		if err == nil {
			err = be.Err()
		}
		if err != nil {
			s.log.Warn("led init", "id", lc.ID, "err", err)
		}
		s.publishLED(lc, drv.State(), err)
	}

	for id := range old {
		s.clearLED(id)
	}
	s.log.Info("board configured", "board", cfg.Board, "backend", be.Name(), "leds", len(s.leds))
}

// dropAll forgets every driver after the backend is gone for good.
func (s *Service) dropAll() {
	for id := range s.leds {
		s.clearLED(id)
	}
	s.leds = map[string]*entry{}
	s.cfg = types.BoardConfig{}
}

func (s *Service) clearLED(id string) {
	s.conn.Publish(s.conn.NewMessage(StateTopic(id), nil, true))
}

func (s *Service) shutdown() {
	if s.backend == nil {
		return
	}
	for _, e := range s.leds {
		e.drv.Off()
	}
	if err := s.backend.Close(); err != nil {
		s.log.Warn("backend close", "backend", s.backend.Name(), "err", err)
	}
	s.backend = nil
}

// -----------------------------------------------------------------------------
// Control
// -----------------------------------------------------------------------------

func (s *Service) handleControl(msg *bus.Message) {
	// led/<id>/control/<verb>
	if msg.Topic.Len() != 4 {
		s.reply(msg, "", "", errcode.InvalidTopic)
		return
	}
	id, _ := msg.Topic.At(1).(string)
	verb, _ := msg.Topic.At(3).(string)

	e, ok := s.leds[id]
	if !ok {
		s.reply(msg, id, verb, errcode.UnknownLED)
		return
	}

	var err error
	switch verb {
	case VerbInit:
		err = e.drv.Init()
	case VerbOn:
		e.drv.On()
	case VerbOff:
		e.drv.Off()
	case VerbToggle:
		e.drv.Toggle()
		s.countToggles(id, 1)
	case VerbBlink:
		var p types.LEDBlink
		if msg.Payload != nil {
			if derr := DecodePayload(msg.Payload, &p); derr != nil {
				s.reply(msg, id, verb, errcode.InvalidPayload)
				return
			}
		}
		if p.DelayMs == 0 {
			p.DelayMs = s.blinkPeriod()
		}
		s.log.Debug("blink", "id", id, "count", p.Count, "delay_ms", p.DelayMs)
		e.drv.Blink(p.Count, p.DelayMs)
		s.countToggles(id, int(p.Count))
	default:
		s.reply(msg, id, verb, errcode.Unsupported)
		return
	}

	if err == nil && s.backend != nil {
		err = s.backend.Err()
	}
	s.publishLED(e.cfg, e.drv.State(), err)
	s.replyState(msg, id, verb, e.drv.State(), err)
}

func (s *Service) blinkPeriod() uint32 {
	if s.cfg.BlinkPeriodMs > 0 {
		return s.cfg.BlinkPeriodMs
	}
	return led.DefaultBlinkPeriodMs
}

func (s *Service) countToggles(id string, n int) {
	if s.metrics != nil && n > 0 {
		s.metrics.Toggles(id, n)
	}
}

// -----------------------------------------------------------------------------
// Publishing helpers
// -----------------------------------------------------------------------------

func (s *Service) reply(req *bus.Message, id, verb string, code errcode.Code) {
	if s.metrics != nil {
		s.metrics.Command(id, verb, code)
	}
	s.conn.Reply(req, types.LEDReply{OK: false, Error: string(code)}, false)
}

func (s *Service) replyState(req *bus.Message, id, verb string, st types.State, err error) {
	code := errcode.MapDriverErr(err)
	if s.metrics != nil {
		s.metrics.Command(id, verb, code)
	}
	r := types.LEDReply{OK: err == nil, State: st.String()}
	if err != nil {
		r.Error = string(code)
	}
	s.conn.Reply(req, r, false)
}

func (s *Service) publishLED(lc types.LEDConfig, st types.State, err error) {
	v := types.LEDState{
		ID:    lc.ID,
		State: st.String(),
		Port:  lc.Port,
		Pin:   lc.Pin,
		TS:    timex.NowMs(),
	}
	if err != nil {
		v.Error = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(StateTopic(lc.ID), v, true))
}

func (s *Service) publishStatus(level, status string, err error) {
	payload := map[string]any{"level": level, "status": status, "ts_ms": timex.NowMs()}
	if err != nil {
		payload["error"] = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(TopicStatus, payload, true))
}

// DecodePayload accepts the typed value, a pointer to it, raw JSON, or any
// JSON-shaped value (maps from other publishers).
func DecodePayload[T any](src any, dst *T) error {
	switch v := src.(type) {
	case T:
		*dst = v
		return nil
	case *T:
		if v == nil {
			return errcode.InvalidPayload
		}
		*dst = *v
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}
