//go:build !tinygo

package api

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"ledcode-go/bus"
	"ledcode-go/errcode"
	"ledcode-go/services/ledsvc"
	"ledcode-go/types"
)

// validID rejects ids that would turn into bus wildcards or extra topic levels.
func validID(id string) bool {
	return id != "" && id != "+" && id != "#" && !strings.Contains(id, "/")
}

type LEDListResponse struct {
	Body struct {
		LEDs []types.LEDState `json:"leds"`
	}
}

type LEDGetRequest struct {
	ID string `path:"id" example:"status" doc:"LED id from the board config"`
}

type LEDGetResponse struct {
	Body types.LEDState
}

type BlinkBody struct {
	Count   uint8  `json:"count" example:"5" doc:"Number of toggles"`
	DelayMs uint32 `json:"delay_ms,omitempty" example:"100" doc:"Delay after each toggle; 0 uses the board period"`
}

type LEDCommandRequest struct {
	ID   string     `path:"id" example:"status" doc:"LED id from the board config"`
	Verb string     `path:"verb" enum:"init,on,off,toggle,blink" doc:"Command"`
	Body *BlinkBody `required:"false"`
}

type LEDCommandResponse struct {
	Body types.LEDReply
}

func (s *Server) registerLEDRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-leds",
		Method:      http.MethodGet,
		Path:        "/api/leds",
		Summary:     "List LEDs",
		Description: "Last published state of every configured LED",
		Tags:        []string{"leds"},
	}, func(ctx context.Context, _ *struct{}) (*LEDListResponse, error) {
		out := &LEDListResponse{}
		out.Body.LEDs = s.snapshot(bus.T("led", "+", "state"))
		sort.Slice(out.Body.LEDs, func(i, j int) bool { return out.Body.LEDs[i].ID < out.Body.LEDs[j].ID })
		return out, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-led",
		Method:      http.MethodGet,
		Path:        "/api/leds/{id}",
		Summary:     "Get LED",
		Tags:        []string{"leds"},
		Errors:      []int{400, 404},
	}, func(ctx context.Context, in *LEDGetRequest) (*LEDGetResponse, error) {
		if !validID(in.ID) {
			return nil, huma.Error400BadRequest("invalid LED id " + in.ID)
		}
		st := s.snapshot(ledsvc.StateTopic(in.ID))
		if len(st) == 0 {
			return nil, huma.Error404NotFound("unknown LED " + in.ID)
		}
		return &LEDGetResponse{Body: st[0]}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "control-led",
		Method:      http.MethodPost,
		Path:        "/api/leds/{id}/{verb}",
		Summary:     "Control LED",
		Description: "Run init, on, off, toggle or blink on one LED. Blink answers once the pattern has finished.",
		Tags:        []string{"leds"},
		Errors:      []int{400, 404, 422, 500, 504},
	}, func(ctx context.Context, in *LEDCommandRequest) (*LEDCommandResponse, error) {
		if !validID(in.ID) {
			return nil, huma.Error400BadRequest("invalid LED id " + in.ID)
		}
		var payload any
		if in.Verb == ledsvc.VerbBlink && in.Body != nil {
			payload = types.LEDBlink{Count: in.Body.Count, DelayMs: in.Body.DelayMs}
		}

		rctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		msg, err := s.conn.RequestWait(rctx, s.conn.NewMessage(ledsvc.ControlTopic(in.ID, in.Verb), payload, false))
		if err != nil {
			return nil, huma.Error504GatewayTimeout("LED service did not answer", err)
		}
		reply, ok := msg.Payload.(types.LEDReply)
		if !ok {
			return nil, huma.Error500InternalServerError("unexpected reply from LED service")
		}
		if !reply.OK {
			return nil, replyError(in.ID, reply)
		}
		return &LEDCommandResponse{Body: reply}, nil
	})
}

// snapshot collects the retained LED states matching topic.
func (s *Server) snapshot(topic bus.Topic) []types.LEDState {
	sub := s.conn.Subscribe(topic)
	defer s.conn.Unsubscribe(sub)

	var out []types.LEDState
	for {
		select {
		case m := <-sub.Channel():
			if st, ok := m.Payload.(types.LEDState); ok {
				out = append(out, st)
			}
		default:
			return out
		}
	}
}

func replyError(id string, r types.LEDReply) error {
	msg := id + ": " + r.Error
	switch errcode.Code(r.Error) {
	case errcode.UnknownLED:
		return huma.Error404NotFound(msg)
	case errcode.Unsupported, errcode.InvalidPayload, errcode.InvalidTopic, errcode.InvalidParams:
		return huma.Error400BadRequest(msg)
	case errcode.UnsupportedPort, errcode.InvalidPin:
		return huma.Error422UnprocessableEntity(msg)
	default:
		return huma.Error500InternalServerError(msg)
	}
}
