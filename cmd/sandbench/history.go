package main

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/sandbench/internal/store"
)

type historyOptions struct {
	domain  string
	model   string
	variant string
	limit   int
	since   string
}

func newHistoryCmd(st *cliState) *cobra.Command {
	var opts historyOptions

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show scored run history",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.domain, "domain", "", "domain to filter")
	cmd.Flags().StringVar(&opts.model, "model", "", "model to filter")
	cmd.Flags().StringVar(&opts.variant, "variant", "", "variant to filter (restricted|all_tools)")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "max runs to list")
	cmd.Flags().StringVar(&opts.since, "since", "", "only runs since date (YYYY-MM-DD or RFC3339)")

	cmd.AddCommand(newHistoryShowCmd(st))
	return cmd
}

func newHistoryShowCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show details for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd, st, args[0])
		},
	}
}

func runHistoryList(cmd *cobra.Command, st *cliState, opts *historyOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("history: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("history: nil options")
	}

	since, err := parseSince(opts.since)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	stor, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer stor.Close()

	records, err := stor.ListRecords(cmd.Context(), store.Filter{
		Domain:  strings.TrimSpace(opts.domain),
		Model:   strings.TrimSpace(opts.model),
		Variant: strings.TrimSpace(opts.variant),
		Since:   since,
		Limit:   opts.limit,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		_, _ = fmt.Fprintln(out, "No runs found.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN_ID\tDOMAIN\tMODEL\tVARIANT\tPASS_RATE\tEVAL\tSENTINEL\tDATE")
	for _, rec := range records {
		passRate := "undefined"
		if rec.Defined {
			passRate = fmt.Sprintf("%.4f", rec.PassRate)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			rec.RunID,
			rec.Domain,
			rec.Model,
			rec.Variant,
			passRate,
			rec.Evaluated,
			rec.SentinelFailures,
			formatTime(rec.CreatedAt),
		)
	}
	return tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, st *cliState, runID string) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("history: missing config (internal error)")
	}

	runID = strings.TrimSpace(runID)
	if runID == "" {
		return fmt.Errorf("history: missing run id")
	}

	stor, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer stor.Close()

	rec, err := stor.GetRecord(cmd.Context(), runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("history: run %q not found", runID)
		}
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Run: %s\n", rec.RunID)
	_, _ = fmt.Fprintf(out, "Domain: %s  Model: %s  Variant: %s\n", rec.Domain, rec.Model, rec.Variant)
	_, _ = fmt.Fprintf(out, "Date: %s\n", formatTime(rec.CreatedAt))
	if rec.Defined {
		_, _ = fmt.Fprintf(out, "Tasks: %d evaluated=%d correct=%d exact=%d sentinel_failures=%d pass_rate=%.4f\n",
			rec.TotalTasks, rec.Evaluated, rec.Correct, rec.ExactMatches, rec.SentinelFailures, rec.PassRate)
	} else {
		_, _ = fmt.Fprintf(out, "Tasks: %d evaluated=0 pass_rate=undefined\n", rec.TotalTasks)
	}
	_, _ = fmt.Fprintf(out, "Lookup: %d/%d  Action: %d/%d\n",
		rec.LookupCorrect, rec.LookupTotal, rec.ActionCorrect, rec.ActionTotal)
	_, _ = fmt.Fprintf(out, "Tokens: in=%d out=%d  Latency: %dms\n",
		rec.InputTokens, rec.OutputTokens, rec.LatencyMs)

	if len(rec.Outcomes) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tKIND\tRESULT\tEXACT\tFAILURE")
	for _, o := range rec.Outcomes {
		exact := ""
		if o.ExactMatch {
			exact = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			o.TaskID, o.Kind, coloredStatus(o.Correct), exact, o.Failure)
	}
	return tw.Flush()
}
