package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/memory-bench/internal/config"
	"github.com/stellarlinkco/memory-bench/internal/leaderboard"
)

type leaderboardOptions struct {
	dataset string
	model   string
	top     int
	format  string
}

func newLeaderboardCmd(st *cliState) *cobra.Command {
	var opts leaderboardOptions

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show saved evaluation runs",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeaderboard(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.dataset, "dataset", datasetName, "dataset name")
	cmd.Flags().StringVar(&opts.model, "model", "", "show history for one model instead of the ranking")
	cmd.Flags().IntVar(&opts.top, "top", 20, "top N entries")
	cmd.Flags().StringVar(&opts.format, "format", "table", "output format: table|json")

	return cmd
}

func runLeaderboard(cmd *cobra.Command, st *cliState, opts *leaderboardOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("leaderboard: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("leaderboard: nil options")
	}

	lb, err := openLeaderboardStore(st.cfg)
	if err != nil {
		return err
	}
	defer lb.Close()

	var entries []leaderboard.Entry
	if model := strings.TrimSpace(opts.model); model != "" {
		entries, err = lb.GetModelHistory(cmd.Context(), model, opts.dataset)
	} else {
		entries, err = lb.GetLeaderboard(cmd.Context(), opts.dataset, opts.top)
	}
	if err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(opts.format)) {
	case "", "table":
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tPROVIDER\tMODEL\tACCURACY\tITEMS\tSTORE(ms)\tRECALL(ms)\tDATE")
		for i, e := range entries {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f%%\t%d\t%.1f\t%.1f\t%s\n",
				i+1,
				e.Provider,
				e.Model,
				e.Accuracy,
				e.TotalItems,
				e.LatencyStoreMsAvg,
				e.LatencyRecallMsAvg,
				e.EvalDate.UTC().Format("2006-01-02 15:04:05Z"),
			)
		}
		return tw.Flush()
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	default:
		return fmt.Errorf("leaderboard: invalid --format %q (expected table|json)", opts.format)
	}
}

func openLeaderboardStore(cfg *config.Config) (*leaderboard.Store, error) {
	if cfg == nil {
		return nil, errors.New("leaderboard: nil config")
	}
	path := strings.TrimSpace(cfg.Storage.Path)
	if path == "" {
		return nil, errors.New("leaderboard: storage path not configured (set storage.path)")
	}
	return leaderboard.NewStore(path)
}
