package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/sandbench/internal/leaderboard"
	"github.com/stellarlinkco/sandbench/internal/runner"
	"github.com/stellarlinkco/sandbench/internal/sandbox"
	"github.com/stellarlinkco/sandbench/internal/store"
)

type leaderboardOptions struct {
	domain  string
	variant string
	top     int
	format  string
}

func newLeaderboardCmd(st *cliState) *cobra.Command {
	var opts leaderboardOptions

	cmd := &cobra.Command{
		Use:     "leaderboard",
		Short:   "Rank models on a domain from stored runs",
		Args:    cobra.NoArgs,
		PreRunE: loadConfig(st),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeaderboardCmd(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.domain, "domain", "", "task domain (required)")
	cmd.Flags().StringVar(&opts.variant, "variant", string(runner.VariantRestricted), "tool catalog variant")
	cmd.Flags().IntVar(&opts.top, "top", 20, "top N entries")
	cmd.Flags().StringVar(&opts.format, "format", "table", "output format: table|json")

	return cmd
}

func runLeaderboardCmd(cmd *cobra.Command, st *cliState, opts *leaderboardOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("leaderboard: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("leaderboard: nil options")
	}

	domain, err := sandbox.ParseDomain(opts.domain)
	if err != nil {
		return err
	}
	variant, err := runner.ParseVariant(opts.variant)
	if err != nil {
		return err
	}

	stor, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer stor.Close()

	board, err := leaderboard.Load(cmd.Context(), stor, string(domain), string(variant), opts.top)
	if err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(opts.format)) {
	case "", "table":
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tMODEL\tPASS_RATE\tEXACT\tRUNS\tSENTINEL\tLAT(ms)\tDATE")
		for _, e := range board {
			fmt.Fprintf(tw, "%d\t%s\t%.4f\t%.4f\t%d\t%d\t%d\t%s\n",
				e.Rank,
				e.Model,
				e.PassRate,
				e.ExactRate,
				e.Runs,
				e.SentinelFailures,
				e.LatencyMs,
				e.LastEval.UTC().Format("2006-01-02 15:04:05Z"),
			)
		}
		return tw.Flush()
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(board)
	default:
		return fmt.Errorf("leaderboard: invalid --format %q (expected table|json)", opts.format)
	}
}
