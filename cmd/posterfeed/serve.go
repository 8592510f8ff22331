package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline on a cron schedule with metrics and health endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc := a.newService()

			loc, err := time.LoadLocation(a.cfg.Timezone)
			if err != nil {
				// Config validation already falls back on bad timezones;
				// this guards direct struct construction.
				a.logger.Error("invalid timezone, using UTC",
					slog.String("timezone", a.cfg.Timezone),
					slog.Any("error", err))
				loc = time.UTC
			}

			c := cron.New(cron.WithLocation(loc))
			_, err = c.AddFunc(a.cfg.CronSchedule, func() {
				if _, err := svc.Run(ctx); err != nil {
					a.logger.Error("scheduled run failed", slog.Any("error", err))
				}
			})
			if err != nil {
				return fmt.Errorf("add cron job: %w", err)
			}

			server := a.startMetricsServer()
			c.Start()
			a.logger.Info("scheduler started",
				slog.String("schedule", a.cfg.CronSchedule),
				slog.String("timezone", a.cfg.Timezone),
				slog.Int("metrics_port", a.cfg.MetricsPort))

			<-ctx.Done()

			a.logger.Info("shutting down")
			cronCtx := c.Stop()
			<-cronCtx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("metrics server shutdown failed", slog.Any("error", err))
			}
			return nil
		},
	}
}

// startMetricsServer exposes /metrics and /healthz on the configured port.
func (a *app) startMetricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()

	return server
}
