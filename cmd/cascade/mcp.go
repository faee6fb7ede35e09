package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/elunari/cascade/pkg/mcp"
	"github.com/elunari/cascade/pkg/tracker"
)

func newMCPCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve attempt statistics as an MCP server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			var tr tracker.Tracker
			if cfg.Stats.Enabled {
				st, err := openTracker(cfg)
				if err != nil {
					return err
				}
				defer st.Close()
				tr = st
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := mcp.New(tr, newSource(cfg, logger), version, logger.Named("mcp"))
			return srv.Run(ctx, os.Stdin, os.Stdout)
		},
	}
}
