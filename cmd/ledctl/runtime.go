//go:build !tinygo

package main

import (
	"context"
	"time"

	"ledcode-go/bus"
	"ledcode-go/drivers/mcp23017"
	"ledcode-go/errcode"
	"ledcode-go/internal/logging"
	"ledcode-go/platform"
	"ledcode-go/platform/periphgpio"
	"ledcode-go/services/config"
	"ledcode-go/services/ledsvc"
	"ledcode-go/types"
)

const readyTimeout = 5 * time.Second

// runtime is a bus with the LED service running on it.
type runtime struct {
	conn   *bus.Connection
	board  types.BoardConfig
	cancel context.CancelFunc
	done   chan struct{}
}

func (a *app) start(ctx context.Context, extra ...ledsvc.Option) (*runtime, error) {
	board, err := config.ResolveBoard(a.opts)
	if err != nil {
		return nil, err
	}
	if board.Backend == "mcp23017" && mcp23017.Bus == nil {
		i2c, err := periphgpio.OpenI2C(a.opts.I2cBus)
		if err != nil {
			return nil, err
		}
		mcp23017.Bus = i2c
	}

	b := bus.NewBus(32)
	opts := append([]ledsvc.Option{
		ledsvc.WithLogger(logging.GetLogger("ledsvc")),
		ledsvc.WithOpener(a.openBackend),
	}, extra...)
	svc := ledsvc.New(b.NewConnection("ledsvc"), opts...)

	rctx, cancel := context.WithCancel(ctx)
	rt := &runtime{
		conn:   b.NewConnection("ledctl"),
		board:  board,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		svc.Run(rctx)
		close(rt.done)
	}()

	if err := rt.configure(ctx, board); err != nil {
		rt.stop()
		return nil, err
	}
	a.log.Debug("led service ready", "board", board.Board, "backend", board.Backend, "leds", len(board.LEDs))
	return rt, nil
}

// openBackend echoes simulated level changes so sim runs are visible.
func (a *app) openBackend(cfg types.BoardConfig) (platform.Backend, error) {
	be, err := platform.Open(cfg)
	if err != nil {
		return nil, err
	}
	if sim, ok := be.(*platform.Sim); ok {
		sim.Monitor(a.out)
	}
	return be, nil
}

// configure publishes board and waits for the service to accept or reject it.
func (rt *runtime) configure(ctx context.Context, board types.BoardConfig) error {
	sub := rt.conn.Subscribe(ledsvc.TopicStatus)
	defer rt.conn.Unsubscribe(sub)
	select {
	case <-sub.Channel():
	default:
	}

	config.Publish(rt.conn, board)

	timer := time.NewTimer(readyTimeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return &errcode.E{C: errcode.Timeout, Op: "ledctl.configure", Msg: "led service did not start"}
		case m := <-sub.Channel():
			p, _ := m.Payload.(map[string]any)
			switch p["status"] {
			case "configured":
				return nil
			case "apply_config_failed", "config_decode_failed":
				msg, _ := p["error"].(string)
				return &errcode.E{C: errcode.BackendFault, Op: "ledctl.configure", Msg: msg}
			}
		}
	}
}

// command sends one control request and turns a failed reply into an error.
func (rt *runtime) command(ctx context.Context, id, verb string, payload any, timeout time.Duration) (types.LEDReply, error) {
	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	m, err := rt.conn.RequestWait(rctx, rt.conn.NewMessage(ledsvc.ControlTopic(id, verb), payload, false))
	if err != nil {
		return types.LEDReply{}, errcode.Wrap(errcode.Timeout, verb, err)
	}
	r, ok := m.Payload.(types.LEDReply)
	if !ok {
		return types.LEDReply{}, &errcode.E{C: errcode.InvalidPayload, Op: verb}
	}
	if !r.OK {
		return r, &errcode.E{C: errcode.Code(r.Error), Op: verb, Msg: id}
	}
	return r, nil
}

// ledID is args[0] or, when omitted, the board's first LED.
func (rt *runtime) ledID(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if len(rt.board.LEDs) > 0 {
		return rt.board.LEDs[0].ID
	}
	return ""
}

func (rt *runtime) stop() {
	rt.cancel()
	<-rt.done
}
