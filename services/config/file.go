//go:build !tinygo

package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"ledcode-go/internal/logging"
	"ledcode-go/types"
)

// EnvPrefix is prepended to every `env` tag.
const EnvPrefix = "LEDCODE_"

// Options are the host tool settings. Field names map to flags
// (BlinkPeriodMs -> --blink-period-ms), `toml` to a dotted key in the config
// file and `env` to LEDCODE_<env>.
type Options struct {
	Config        string
	Board         string `toml:"board" env:"BOARD"`
	Backend       string `toml:"backend" env:"BACKEND"`
	BlinkPeriodMs int    `toml:"blink_period_ms" env:"BLINK_PERIOD_MS"`
	LoggingLevel  string `toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `toml:"logging.format" env:"LOGGING_FORMAT"`
	Addr          string `toml:"api.addr" env:"ADDR"`
	I2cBus        string `toml:"i2c.bus" env:"I2C_BUS"`
	Watch         bool   `toml:"watch" env:"WATCH"`
}

// LoadOptions fills opts with precedence CLI > env > file. Flags the user set
// on cmd are left untouched; cmd may be nil.
func LoadOptions(opts *Options, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts).Elem()
	t := v.Type()

	changed := map[string]bool{}
	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				changed[f.Name] = true
			}
		})
	}

	if opts.Config != "" {
		data, err := os.ReadFile(opts.Config)
		switch {
		case err == nil:
			var doc map[string]any
			if err := toml.Unmarshal(data, &doc); err != nil {
				return errors.Wrapf(err, "parse %s", opts.Config)
			}
			for i := 0; i < t.NumField(); i++ {
				f := t.Field(i)
				if changed[flagName(f.Name)] {
					continue
				}
				if key := f.Tag.Get("toml"); key != "" {
					if val := lookup(doc, key); val != nil {
						setField(v.Field(i), val)
					}
				}
			}
		case !os.IsNotExist(err):
			return errors.Wrapf(err, "read %s", opts.Config)
		}
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if changed[flagName(f.Name)] {
			continue
		}
		if key := f.Tag.Get("env"); key != "" {
			if s := os.Getenv(EnvPrefix + key); s != "" {
				setFieldString(v.Field(i), s)
			}
		}
	}
	return nil
}

// flagName turns "BlinkPeriodMs" into "blink-period-ms".
func flagName(field string) string {
	var out []rune
	for i, r := range field {
		if i > 0 && unicode.IsUpper(r) {
			out = append(out, '-')
		}
		out = append(out, unicode.ToLower(r))
	}
	return string(out)
}

func lookup(doc map[string]any, path string) any {
	parts := strings.Split(path, ".")
	cur := doc
	for i, p := range parts {
		if i == len(parts)-1 {
			return cur[p]
		}
		next, ok := cur[p].(map[string]any)
		if !ok {
			return nil
		}
		cur = next
	}
	return nil
}

func setField(field reflect.Value, val any) {
	switch field.Kind() {
	case reflect.String:
		if s, ok := val.(string); ok {
			field.SetString(s)
		}
	case reflect.Bool:
		if b, ok := val.(bool); ok {
			field.SetBool(b)
		}
	case reflect.Int:
		switch n := val.(type) {
		case int64:
			field.SetInt(n)
		case int:
			field.SetInt(int64(n))
		}
	}
}

func setFieldString(field reflect.Value, s string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(s)
	case reflect.Bool:
		if b, err := strconv.ParseBool(s); err == nil {
			field.SetBool(b)
		}
	case reflect.Int:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			field.SetInt(n)
		}
	}
}

// LoadBoard builds the board config from path and the embedded defaults.
// A file that lists [[leds]] is used as is; otherwise the embedded board
// (board, or the file's `board` key, or DefaultBoard) is taken and the file's
// backend and blink period are laid over it. A missing file is not an error.
func LoadBoard(path, board string) (types.BoardConfig, error) {
	var file types.BoardConfig
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &file); err != nil {
				return types.BoardConfig{}, errors.Wrapf(err, "parse %s", path)
			}
		case !os.IsNotExist(err):
			return types.BoardConfig{}, errors.Wrapf(err, "read %s", path)
		}
	}
	if board == "" {
		board = file.Board
	}
	if board == "" {
		board = DefaultBoard
	}

	if len(file.LEDs) > 0 {
		if file.Board == "" {
			file.Board = board
		}
		return file, Validate(file)
	}

	cfg, err := Embedded(board)
	if err != nil {
		return types.BoardConfig{}, err
	}
	if file.Backend != "" {
		cfg.Backend = file.Backend
	}
	if file.BlinkPeriodMs > 0 {
		cfg.BlinkPeriodMs = file.BlinkPeriodMs
	}
	return cfg, nil
}

// ResolveBoard is LoadBoard with the CLI/env overrides from opts applied.
func ResolveBoard(opts Options) (types.BoardConfig, error) {
	cfg, err := LoadBoard(opts.Config, opts.Board)
	if err != nil {
		return types.BoardConfig{}, err
	}
	if opts.Backend != "" {
		cfg.Backend = opts.Backend
	}
	if opts.BlinkPeriodMs > 0 {
		cfg.BlinkPeriodMs = uint32(opts.BlinkPeriodMs)
	}
	return cfg, Validate(cfg)
}

// LoadLoggingConfig reads the [logging] table. Keys other than level and
// format are per-module levels. Defaults are returned on any failure.
func LoadLoggingConfig(path string) logging.Config {
	cfg := logging.Config{Level: "info", Format: "text", Modules: map[string]string{}}
	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	var raw struct {
		Logging map[string]string `toml:"logging"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return cfg
	}
	for k, v := range raw.Logging {
		switch k {
		case "level":
			cfg.Level = v
		case "format":
			cfg.Format = v
		default:
			cfg.Modules[k] = v
		}
	}
	return cfg
}
