package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elunari/cascade/pkg/availability"
	"github.com/elunari/cascade/pkg/chat"
	"github.com/elunari/cascade/pkg/observability"
	"github.com/elunari/cascade/pkg/proxy"
	"github.com/elunari/cascade/pkg/ratelimit"
	"github.com/elunari/cascade/pkg/upstream"
)

func newServeCmd(configPath *string) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat proxy server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if listen != "" {
				cfg.Listen = listen
			}
			if !cfg.Configured() {
				logger.Warn("no upstream API key set; chat requests will be answered as not configured")
			}

			var metrics *observability.Metrics
			if cfg.Metrics.Enabled {
				metrics = observability.NewMetrics()
			}

			opts := chat.Options{
				Configured: cfg.Configured(),
				Invoker:    upstream.New(cfg.Upstream, nil),
				Source:     newSource(cfg, logger),
				Ledger:     availability.New(cfg.Limits.Cooldown),
				Window:     ratelimit.New(cfg.Limits.RequestsPerMinute, cfg.Limits.Window),
				RetryDelay: cfg.Limits.RetryDelay,
				Deadline:   cfg.Limits.RequestDeadline,
				Metrics:    metrics,
				Logger:     logger.Named("chat"),
			}

			if cfg.Stats.Enabled {
				tr, err := openTracker(cfg)
				if err != nil {
					return err
				}
				defer func() { _ = tr.Close() }()
				opts.Recorder = tr
				logger.Info("attempt statistics enabled", zap.String("db", cfg.Stats.DBPath))
			}

			srv := proxy.New(chat.New(opts), proxy.Options{
				Listen:      cfg.Listen,
				MetricsPath: cfg.Metrics.Path,
				Metrics:     metrics,
				Logger:      logger.Named("http"),
			})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("starting cascade proxy",
				zap.String("config", *configPath),
				zap.String("upstream", cfg.Upstream.URL),
				zap.String("format", cfg.Upstream.Format))
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides config)")
	return cmd
}
