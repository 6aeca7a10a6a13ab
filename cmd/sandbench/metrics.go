package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/sandbench/internal/ci"
	"github.com/stellarlinkco/sandbench/internal/metrics"
	"github.com/stellarlinkco/sandbench/internal/runner"
	"github.com/stellarlinkco/sandbench/internal/sandbox"
	"github.com/stellarlinkco/sandbench/internal/store"
	"github.com/stellarlinkco/sandbench/internal/taskgen"
)

// errBelowThreshold makes the process exit non-zero when the pass rate is
// under the configured threshold, without printing a redundant error.
var errBelowThreshold = errors.New("sandbench: pass rate below threshold")

type metricsOptions struct {
	domain    string
	model     string
	allTools  bool
	output    string
	threshold float64
	dataDir   string
	noStore   bool
}

func newMetricsCmd(st *cliState) *cobra.Command {
	var opts metricsOptions

	cmd := &cobra.Command{
		Use:     "metrics",
		Short:   "Score a recorded run against the expected outcomes",
		Args:    cobra.NoArgs,
		PreRunE: loadConfig(st),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetrics(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.domain, "domain", "", "task domain to score (required)")
	cmd.Flags().StringVar(&opts.model, "model", "", "model whose results to score (required)")
	cmd.Flags().BoolVar(&opts.allTools, "all-tools", false, "score the all-tools variant")
	cmd.Flags().StringVar(&opts.output, "output", "table", "output format: table|json")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", -1, "pass-rate threshold between 0 and 1 (overrides config)")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "data directory (overrides config)")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "skip recording the run in the history store")

	return cmd
}

func runMetrics(cmd *cobra.Command, st *cliState, opts *metricsOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("metrics: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("metrics: nil options")
	}

	domain, err := sandbox.ParseDomain(opts.domain)
	if err != nil {
		return err
	}
	model := strings.TrimSpace(opts.model)
	if model == "" {
		return fmt.Errorf("metrics: missing --model")
	}
	output, err := parseOutputFormat(opts.output)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	threshold := st.cfg.Evaluation.PassThreshold
	if opts.threshold >= 0 {
		threshold = opts.threshold
	}
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("metrics: threshold must be between 0 and 1 (got %v)", threshold)
	}

	dataDir := strings.TrimSpace(opts.dataDir)
	if dataDir == "" {
		dataDir = st.cfg.Data.Dir
	}

	variant := runner.VariantRestricted
	if opts.allTools {
		variant = runner.VariantAllTools
	}

	snap, err := sandbox.LoadSnapshot(dataDir)
	if err != nil {
		return err
	}
	set, err := taskgen.Load(tasksDirFor(dataDir), domain)
	if err != nil {
		return err
	}
	results, err := runner.LoadResults(runner.ResultsPath(resultsDirFor(dataDir), domain, model, variant))
	if err != nil {
		return err
	}

	rep, err := metrics.Calculate(set, results, snap, variant)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch output {
	case FormatTable:
		_, _ = fmt.Fprint(out, formatReportTable(rep, threshold))
	case FormatJSON:
		s, err := formatReportJSON(rep)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		_, _ = fmt.Fprint(out, s)
	default:
		return fmt.Errorf("metrics: internal error: unknown output format %q", output)
	}

	summaryPath := metrics.SummaryPath(metricsDirFor(dataDir), domain, model, variant)
	if err := metrics.WriteReport(rep, summaryPath); err != nil {
		return err
	}
	if output == FormatTable {
		fmt.Fprintf(out, "Summary -> %s\n", summaryPath)
	}

	if !opts.noStore {
		if err := saveReportToStore(cmd, st, rep, results); err != nil {
			return err
		}
	}

	if ci.DetectCI() {
		if err := ci.PublishReport(rep, threshold); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	if rep.Defined && rep.PassRate < threshold {
		return errBelowThreshold
	}
	return nil
}

func saveReportToStore(cmd *cobra.Command, st *cliState, rep *metrics.Report, results *runner.ResultSet) error {
	rec, err := store.FromReport(rep, results)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	stor, err := store.Open(st.cfg)
	if err != nil {
		return fmt.Errorf("metrics: open store: %w", err)
	}
	defer stor.Close()

	if err := stor.SaveRecord(cmd.Context(), rec); err != nil {
		return fmt.Errorf("metrics: save record: %w", err)
	}
	return nil
}
