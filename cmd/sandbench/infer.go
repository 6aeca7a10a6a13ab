package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/sandbench/internal/config"
	"github.com/stellarlinkco/sandbench/internal/llm"
	"github.com/stellarlinkco/sandbench/internal/runner"
	"github.com/stellarlinkco/sandbench/internal/sandbox"
	"github.com/stellarlinkco/sandbench/internal/taskgen"
)

type inferOptions struct {
	domain      string
	provider    string
	model       string
	allTools    bool
	concurrency int
	dataDir     string
}

func newInferCmd(st *cliState) *cobra.Command {
	var opts inferOptions

	cmd := &cobra.Command{
		Use:     "infer",
		Short:   "Run a model against the benchmark tasks",
		Args:    cobra.NoArgs,
		PreRunE: loadConfig(st),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfer(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.domain, "domain", "", "task domain to run (required)")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "llm provider (overrides config default)")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name (overrides provider config)")
	cmd.Flags().BoolVar(&opts.allTools, "all-tools", false, "expose every domain's tools, not just the task's")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "parallel tasks (overrides config)")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "data directory (overrides config)")

	return cmd
}

func runInfer(cmd *cobra.Command, st *cliState, opts *inferOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("infer: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("infer: nil options")
	}

	domain, err := sandbox.ParseDomain(opts.domain)
	if err != nil {
		return err
	}

	dataDir := strings.TrimSpace(opts.dataDir)
	if dataDir == "" {
		dataDir = st.cfg.Data.Dir
	}

	snap, err := sandbox.LoadSnapshot(dataDir)
	if err != nil {
		return err
	}
	set, err := taskgen.Load(tasksDirFor(dataDir), domain)
	if err != nil {
		return err
	}

	provider, err := resolveProvider(st.cfg, opts.provider, opts.model)
	if err != nil {
		return fmt.Errorf("infer: %w", err)
	}

	concurrency := st.cfg.Evaluation.Concurrency
	if opts.concurrency > 0 {
		concurrency = opts.concurrency
	}

	variant := runner.VariantRestricted
	if opts.allTools {
		variant = runner.VariantAllTools
	}

	r := runner.NewRunner(provider, runner.Config{
		Concurrency: concurrency,
		Timeout:     st.cfg.Evaluation.Timeout,
		MaxSteps:    st.cfg.Evaluation.MaxSteps,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := r.Run(ctx, snap, set, variant)
	if err != nil {
		return err
	}

	path := runner.ResultsPath(resultsDirFor(dataDir), domain, results.Model, variant)
	if err := runner.WriteResults(results, path); err != nil {
		return err
	}

	failures := 0
	for _, tr := range results.Results {
		if tr.Failure != "" {
			failures++
		}
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Run %s: %d tasks, %d sentinel failures\n", results.RunID, len(results.Results), failures)
	_, _ = fmt.Fprintf(out, "Results -> %s\n", path)
	return nil
}

// resolveProvider builds the provider named by the flag (or the config
// default), with an optional model override applied before construction.
func resolveProvider(cfg *config.Config, providerFlag, modelFlag string) (llm.Provider, error) {
	name := strings.ToLower(strings.TrimSpace(providerFlag))
	model := strings.TrimSpace(modelFlag)

	if name == "" && model == "" {
		return defaultProviderFromConfig(cfg)
	}

	tmp := *cfg
	tmp.LLM.Providers = make(map[string]config.ProviderConfig, len(cfg.LLM.Providers))
	for k, v := range cfg.LLM.Providers {
		tmp.LLM.Providers[k] = v
	}

	if name == "" {
		name = strings.ToLower(strings.TrimSpace(cfg.LLM.DefaultProvider))
	}
	if _, ok := tmp.LLM.Providers[name]; !ok {
		// Allow running a provider that only needs env credentials.
		tmp.LLM.Providers[name] = config.ProviderConfig{}
	}
	if model != "" {
		p := tmp.LLM.Providers[name]
		p.Model = model
		tmp.LLM.Providers[name] = p
	}
	tmp.LLM.DefaultProvider = name

	return defaultProviderFromConfig(&tmp)
}
