package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newStatsCmd(configPath *string) *cobra.Command {
	var (
		since  time.Duration
		recent int
		prune  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-model attempt statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			out := cmd.OutOrStdout()
			if !cfg.Stats.Enabled {
				fmt.Fprintln(out, "Attempt statistics are not enabled (set stats.enabled or CASCADE_STATS_ENABLED).")
				return nil
			}

			tr, err := openTracker(cfg)
			if err != nil {
				return err
			}
			defer tr.Close()

			ctx := cmd.Context()

			if prune > 0 {
				n, err := tr.Prune(ctx, time.Now().UTC().Add(-prune))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Pruned %d attempts older than %s.\n", n, prune)
				return nil
			}

			if recent > 0 {
				recs, err := tr.Recent(ctx, recent)
				if err != nil {
					return err
				}
				if len(recs) == 0 {
					fmt.Fprintln(out, "No attempts recorded.")
					return nil
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tREQUEST\tMODEL\tOUTCOME\tSTATUS\tLATENCY")
				for _, r := range recs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%dms\n",
						r.CreatedAt.Format("2006-01-02T15:04:05"), r.RequestID, r.Model, r.Outcome, r.StatusCode, r.LatencyMs)
				}
				return w.Flush()
			}

			summaries, err := tr.Summary(ctx, time.Now().UTC().Add(-since))
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No attempts recorded.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tATTEMPTS\tSUCCESS\tRETRYABLE\tFATAL\tAVG LATENCY")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%.0fms\n",
					s.Model, s.Attempts, s.Successes, s.Retryable, s.Fatal, s.AvgLatencyMs)
			}
			return w.Flush()
		},
	}

	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "summarize attempts newer than this")
	cmd.Flags().IntVar(&recent, "recent", 0, "list the N most recent attempts instead of a summary")
	cmd.Flags().DurationVar(&prune, "prune", 0, "delete attempts older than this duration")
	return cmd
}
