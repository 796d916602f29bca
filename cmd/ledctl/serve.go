//go:build !tinygo

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"ledcode-go/internal/api"
	"ledcode-go/internal/metrics"
	"ledcode-go/services/config"
	"ledcode-go/services/ledsvc"
)

const (
	apiTimeout      = 60 * time.Second
	shutdownTimeout = 5 * time.Second
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the LED service with an HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&a.opts.Addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().BoolVar(&a.opts.Watch, "watch", false, "Reload the board config when the config file changes")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	rt, err := a.start(ctx, ledsvc.WithMetrics(metrics.NewLED(reg)))
	if err != nil {
		return err
	}
	defer rt.stop()

	if a.opts.Watch {
		w, err := config.WatchBoard(ctx, a.opts, rt.conn, a.log)
		if err != nil {
			a.log.Warn("config watch disabled", "path", a.opts.Config, "err", err)
		} else {
			defer w.Stop()
		}
	}

	srv := api.NewServer(&api.Options{
		Conn:              rt.conn,
		Timeout:           apiTimeout,
		PrometheusHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(a.opts.Addr) }()

	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(sctx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
