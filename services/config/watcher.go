//go:build !tinygo

package config

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"ledcode-go/bus"
	"ledcode-go/types"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher reloads a config file through loader whenever it changes and hands
// the fresh value to every registered handler.
type Watcher[T any] struct {
	path     string
	debounce time.Duration
	loader   func(path string) (T, error)
	log      *slog.Logger

	mu       sync.Mutex
	handlers []func(T)
	onError  func(error)

	fw   *fsnotify.Watcher
	done chan struct{}
}

type WatcherOption[T any] func(*Watcher[T])

func WithDebounce[T any](d time.Duration) WatcherOption[T] {
	return func(w *Watcher[T]) { w.debounce = d }
}

// WithErrorHandler is called when a reload fails. Failures are logged regardless.
func WithErrorHandler[T any](fn func(error)) WatcherOption[T] {
	return func(w *Watcher[T]) { w.onError = fn }
}

func NewWatcher[T any](path string, loader func(string) (T, error), log *slog.Logger, opts ...WatcherOption[T]) *Watcher[T] {
	w := &Watcher[T]{
		path:     path,
		debounce: defaultDebounce,
		loader:   loader,
		log:      log,
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// OnReload registers fn and returns a function that removes it again.
func (w *Watcher[T]) OnReload(fn func(T)) func() {
	w.mu.Lock()
	w.handlers = append(w.handlers, fn)
	idx := len(w.handlers) - 1
	w.mu.Unlock()
	return func() {
		w.mu.Lock()
		w.handlers[idx] = nil
		w.mu.Unlock()
	}
}

// Start watches until ctx is done or Stop is called.
func (w *Watcher[T]) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.path); err != nil {
		fw.Close()
		return err
	}
	w.fw = fw
	w.log.Info("config watcher started", "path", w.path, "debounce", w.debounce)
	go w.loop(ctx)
	return nil
}

// Stop closes the underlying fsnotify watcher and waits for the loop to end.
func (w *Watcher[T]) Stop() error {
	if w.fw == nil {
		return nil
	}
	err := w.fw.Close()
	<-w.done
	return err
}

func (w *Watcher[T]) loop(ctx context.Context) {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			// Editors that save by rename show up as Create.
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.log.Debug("config change", "op", ev.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload()

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", "err", err)
		}
	}
}

func (w *Watcher[T]) reload() {
	v, err := w.loader(w.path)
	if err != nil {
		w.log.Warn("config reload failed", "path", w.path, "err", err)
		if w.onError != nil {
			w.onError(err)
		}
		return
	}

	w.mu.Lock()
	hs := make([]func(T), 0, len(w.handlers))
	for _, h := range w.handlers {
		if h != nil {
			hs = append(hs, h)
		}
	}
	w.mu.Unlock()

	w.log.Info("config reloaded", "path", w.path, "handlers", len(hs))
	for _, h := range hs {
		h(v)
	}
}

// WatchBoard republishes the board config on the bus every time the file at
// opts.Config changes. CLI/env overrides in opts keep winning over the file.
func WatchBoard(ctx context.Context, opts Options, conn *bus.Connection, log *slog.Logger, wopts ...WatcherOption[types.BoardConfig]) (*Watcher[types.BoardConfig], error) {
	loader := func(path string) (types.BoardConfig, error) {
		o := opts
		o.Config = path
		return ResolveBoard(o)
	}
	w := NewWatcher(opts.Config, loader, log, wopts...)
	w.OnReload(func(cfg types.BoardConfig) { Publish(conn, cfg) })
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}
