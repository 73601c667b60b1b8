package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aretw0/dusk"
	"github.com/aretw0/dusk/pkg/core"
	"github.com/aretw0/dusk/pkg/plaza"
)

var (
	metricsAddr  string
	watchTick    time.Duration
	watchRefresh time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the plaza live until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(ctxOf(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		svc, err := openService(cmd, dusk.WithMetrics(reg))
		if err != nil {
			return err
		}
		defer svc.Close()

		if metricsAddr != "" {
			srv := serveMetrics(ctx, metricsAddr, reg)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}

		out := cmd.OutOrStdout()
		session := plaza.NewSession(svc,
			plaza.WithTick(watchTick),
			plaza.WithRefresh(watchRefresh),
			plaza.WithLogger(slog.Default()),
		)
		session.OnStateChange(func(open bool) {
			if open {
				fmt.Fprintln(out, "-- the plaza opens --")
				return
			}
			fmt.Fprintf(out, "-- the plaza closes; back %s --\n", ago(svc.NextOpenTime()))
		})
		session.OnFeed(func(feed []core.BoardMessage) {
			if len(feed) == 0 {
				return
			}
			fmt.Fprintf(out, "\n%s\n", time.Now().Format("15:04:05"))
			for _, m := range feed {
				printMessage(out, m)
			}
		})

		if err := session.Start(ctx); err != nil {
			return err
		}
		if !session.IsOpen() {
			fmt.Fprintf(out, "the plaza is closed; it opens %s\n", ago(svc.NextOpenTime()))
		}

		<-ctx.Done()
		session.Stop()
		return nil
	},
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		slog.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		slog.Error("metrics server panic", "error", err)
	}))
	return srv
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	watchCmd.Flags().DurationVar(&watchTick, "tick", plaza.DefaultTick, "Window recheck interval")
	watchCmd.Flags().DurationVar(&watchRefresh, "refresh", plaza.DefaultRefresh, "Board refresh interval")
}
