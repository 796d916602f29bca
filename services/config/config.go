package config

import (
	"context"
	"encoding/json"
	"sort"

	"ledcode-go/bus"
	"ledcode-go/errcode"
	"ledcode-go/internal/logging"
	"ledcode-go/types"
)

// -----------------------------------------------------------------------------
// String constants (live in flash, not RAM)
// -----------------------------------------------------------------------------

const (
	serviceName  = "config"
	DefaultBoard = "sim"
)

// TopicLEDs carries the retained types.BoardConfig.
var TopicLEDs = bus.T("config", "leds")

// EmbeddedConfigLookup allows overriding how board configs are resolved.
var EmbeddedConfigLookup = func(board string) ([]byte, bool) {
	b, ok := embeddedConfigs[board]
	return b, ok
}

// Boards lists the embedded board names.
func Boards() []string {
	out := make([]string, 0, len(embeddedConfigs))
	for k := range embeddedConfigs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Embedded decodes and validates the embedded config for board.
func Embedded(board string) (types.BoardConfig, error) {
	raw, ok := EmbeddedConfigLookup(board)
	if !ok || len(raw) == 0 {
		return types.BoardConfig{}, &errcode.E{C: errcode.InvalidParams, Op: "config.Embedded", Msg: "no embedded config for board " + board}
	}
	var cfg types.BoardConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return types.BoardConfig{}, errcode.Wrap(errcode.InvalidPayload, "config.Embedded", err)
	}
	if cfg.Board == "" {
		cfg.Board = board
	}
	return cfg, Validate(cfg)
}

// Validate checks LED ids are present and unique, pins fit a port and ports
// parse. An unknown port is only rejected when the backend is not "sim", so a
// simulated board can still exercise the unsupported-port path.
func Validate(cfg types.BoardConfig) error {
	seen := make(map[string]struct{}, len(cfg.LEDs))
	for _, l := range cfg.LEDs {
		if l.ID == "" {
			return &errcode.E{C: errcode.InvalidParams, Op: "config.Validate", Msg: "led without id"}
		}
		if _, dup := seen[l.ID]; dup {
			return &errcode.E{C: errcode.InvalidParams, Op: "config.Validate", Msg: "duplicate led id " + l.ID}
		}
		seen[l.ID] = struct{}{}
		if l.Pin > types.MaxPin {
			return &errcode.E{C: errcode.InvalidPin, Op: "config.Validate", Msg: l.ID}
		}
		if _, ok := types.ParsePort(l.Port); !ok && cfg.Backend != "sim" {
			return &errcode.E{C: errcode.UnsupportedPort, Op: "config.Validate", Msg: l.ID + ": " + l.Port}
		}
	}
	return nil
}

// Publish makes cfg the retained board config.
func Publish(conn *bus.Connection, cfg types.BoardConfig) {
	conn.Publish(conn.NewMessage(TopicLEDs, cfg, true))
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name  string
	Board string
	log   logging.Logger
}

func NewConfigService(board string, log logging.Logger) *ConfigService {
	if board == "" {
		board = DefaultBoard
	}
	if log == nil {
		log = logging.Nop
	}
	return &ConfigService{Name: serviceName, Board: board, log: log}
}

// Start publishes the embedded config of s.Board. It does not block.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) error {
	cfg, err := Embedded(s.Board)
	if err != nil {
		s.log.Error("embedded config", "board", s.Board, "err", err)
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	Publish(conn, cfg)
	s.log.Info("config published", "board", cfg.Board, "leds", len(cfg.LEDs))
	return nil
}
