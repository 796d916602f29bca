// Package heartbeat periodically flashes one LED through the LED service so a
// running board is visible at a glance.
package heartbeat

import (
	"context"
	"time"

	"ledcode-go/bus"
	"ledcode-go/errcode"
	"ledcode-go/internal/logging"
	"ledcode-go/services/ledsvc"
	"ledcode-go/types"
)

const (
	DefaultInterval = time.Second
	// Toggles per beat: two on/off flashes.
	DefaultToggles = 4
)

var TopicConfig = bus.T("config", "heartbeat")

type Service struct {
	LED      string
	Interval time.Duration
	Toggles  uint8
	Log      logging.Logger
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(TopicConfig)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(s.Interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Log.Info("heartbeat stopping")
			return
		case <-tick.C:
			if err := s.beat(ctx, conn); err != nil {
				s.Log.Warn("heartbeat", "led", s.LED, "err", err)
			}
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				s.Log.Info("heartbeat config closed")
				return
			}
			var cfg types.HeartbeatConfig
			if err := ledsvc.DecodePayload(msg.Payload, &cfg); err != nil {
				s.Log.Warn("heartbeat config ignored", "err", err)
				continue
			}
			if cfg.LED != "" {
				s.LED = cfg.LED
			}
			if cfg.IntervalMs > 0 {
				s.Interval = time.Duration(cfg.IntervalMs) * time.Millisecond
				tick.Reset(s.Interval)
			}
			s.Log.Info("heartbeat config", "led", s.LED, "interval_ms", uint32(s.Interval/time.Millisecond))
		}
	}
}

// beat sends one blink request. The reply arrives after the blink finishes,
// so the wait is bounded by the interval.
func (s *Service) beat(ctx context.Context, conn *bus.Connection) error {
	rctx, cancel := context.WithTimeout(ctx, s.Interval)
	defer cancel()
	req := conn.NewMessage(ledsvc.ControlTopic(s.LED, ledsvc.VerbBlink), types.LEDBlink{Count: s.Toggles}, false)
	m, err := conn.RequestWait(rctx, req)
	if err != nil {
		return errcode.Wrap(errcode.Timeout, "heartbeat", err)
	}
	if r, ok := m.Payload.(types.LEDReply); ok && !r.OK {
		return errcode.Code(r.Error)
	}
	return nil
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	if s.LED == "" {
		return &errcode.E{C: errcode.InvalidParams, Op: "heartbeat.Start", Msg: "no led"}
	}
	if s.Interval <= 0 {
		s.Interval = DefaultInterval
	}
	if s.Toggles == 0 {
		s.Toggles = DefaultToggles
	}
	if s.Log == nil {
		s.Log = logging.Nop
	}
	go s.serviceLoop(ctx, conn)
	return nil
}
