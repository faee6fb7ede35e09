package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newModelsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Print the effective model cascade and where it came from",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			list, origin := newSource(cfg, logger).Lookup(ctx)
			fmt.Printf("Cascade origin: %s\n\n", origin)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tMODEL")
			for i, m := range list {
				fmt.Fprintf(w, "%d\t%s\n", i+1, m)
			}
			return w.Flush()
		},
	}
}
