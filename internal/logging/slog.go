//go:build !tinygo

package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config is the [logging] table of the host config file.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

var (
	mu            sync.RWMutex
	globalConfig  Config
	globalLevel   = &slog.LevelVar{}
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevels  = make(map[string]*slog.LevelVar)
)

// Initialize sets the global level/format and re-levels existing module loggers.
func Initialize(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	globalConfig = cfg
	globalLevel.Set(parseLevel(cfg.Level, slog.LevelInfo))

	for module, lv := range moduleLevels {
		lv.Set(moduleLevel(module))
		moduleLoggers[module] = slog.New(newHandler(cfg.Format, lv)).With("module", module)
	}
	slog.SetDefault(slog.New(newHandler(cfg.Format, globalLevel)))
}

// GetLogger returns the logger for module, creating it on first use.
func GetLogger(module string) *slog.Logger {
	mu.RLock()
	l, ok := moduleLoggers[module]
	mu.RUnlock()
	if ok {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if l, ok := moduleLoggers[module]; ok {
		return l
	}
	lv := &slog.LevelVar{}
	lv.Set(moduleLevel(module))
	l = slog.New(newHandler(globalConfig.Format, lv)).With("module", module)
	moduleLoggers[module] = l
	moduleLevels[module] = lv
	return l
}

// caller holds mu.
func moduleLevel(module string) slog.Level {
	if s, ok := globalConfig.Modules[module]; ok {
		return parseLevel(s, globalLevel.Level())
	}
	return globalLevel.Level()
}

func newHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.NewTextHandler(os.Stderr, opts)
}

func parseLevel(s string, def slog.Level) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return def
	}
}
