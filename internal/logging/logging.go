// Package logging provides the small Logger surface shared by firmware and
// host code. Host builds back it with log/slog module loggers; firmware builds
// use the builtin println so that fmt is never linked.
package logging

// Logger is satisfied by *slog.Logger and by the println logger below.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Println returns a Logger writing "[module] LEVEL msg k=v ..." with println.
// Values are printed only for the types println understands.
func Println(module string) Logger { return printlnLogger{module: module} }

type printlnLogger struct{ module string }

func (l printlnLogger) Debug(msg string, args ...any) { l.out("DEBUG", msg, args) }
func (l printlnLogger) Info(msg string, args ...any)  { l.out("INFO", msg, args) }
func (l printlnLogger) Warn(msg string, args ...any)  { l.out("WARN", msg, args) }
func (l printlnLogger) Error(msg string, args ...any) { l.out("ERROR", msg, args) }

func (l printlnLogger) out(level, msg string, args []any) {
	print("[", l.module, "] ", level, " ", msg)
	for i := 0; i+1 < len(args); i += 2 {
		k, _ := args[i].(string)
		print(" ", k, "=")
		switch v := args[i+1].(type) {
		case string:
			print(v)
		case int:
			print(v)
		case uint8:
			print(v)
		case uint32:
			print(v)
		case int64:
			print(v)
		case bool:
			print(v)
		case error:
			print(v.Error())
		case interface{ String() string }:
			print(v.String())
		default:
			print("?")
		}
	}
	println()
}

// Nop discards everything.
var Nop Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
