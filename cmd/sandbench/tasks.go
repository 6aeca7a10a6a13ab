package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/sandbench/internal/sandbox"
	"github.com/stellarlinkco/sandbench/internal/taskgen"
)

type tasksOptions struct {
	domain         string
	seed           int64
	maxPerTemplate int
	dataDir        string
}

func newTasksCmd(st *cliState) *cobra.Command {
	var opts tasksOptions

	cmd := &cobra.Command{
		Use:     "tasks",
		Short:   "Generate benchmark tasks from the databases",
		Args:    cobra.NoArgs,
		PreRunE: loadConfig(st),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTasks(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.domain, "domain", "", "only generate this domain's tasks (default: all)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "generation seed (overrides config)")
	cmd.Flags().IntVar(&opts.maxPerTemplate, "max-per-template", 0, "max tasks per template (default from generator)")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "data directory (overrides config)")

	return cmd
}

func runTasks(cmd *cobra.Command, st *cliState, opts *tasksOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("tasks: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("tasks: nil options")
	}

	seed := st.cfg.Data.Seed
	if opts.seed != 0 {
		seed = opts.seed
	}
	dataDir := strings.TrimSpace(opts.dataDir)
	if dataDir == "" {
		dataDir = st.cfg.Data.Dir
	}

	snap, err := sandbox.LoadSnapshot(dataDir)
	if err != nil {
		return err
	}

	domains := sandbox.TaskDomains()
	if d := strings.TrimSpace(opts.domain); d != "" {
		domain, err := sandbox.ParseDomain(d)
		if err != nil {
			return err
		}
		domains = []sandbox.Domain{domain}
	}

	tasksDir := tasksDirFor(dataDir)
	out := cmd.OutOrStdout()
	for _, d := range domains {
		set, err := taskgen.Generate(d, snap, taskgen.Options{
			Seed:           seed,
			MaxPerTemplate: opts.maxPerTemplate,
		})
		if err != nil {
			return err
		}
		if err := taskgen.Save(set, tasksDir); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "%s: %d tasks -> %s\n", d, len(set.Tasks), taskgen.TaskFile(tasksDir, d))
	}
	return nil
}

func tasksDirFor(dataDir string) string {
	return filepath.Join(dataDir, "tasks")
}

func resultsDirFor(dataDir string) string {
	return filepath.Join(dataDir, "results")
}

func metricsDirFor(dataDir string) string {
	return filepath.Join(dataDir, "metrics")
}
