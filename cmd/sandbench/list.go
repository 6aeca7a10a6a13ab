package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/sandbench/internal/sandbox"
	"github.com/stellarlinkco/sandbench/internal/taskgen"
)

func newListCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List generated databases, tasks, and result files",
		Args:    cobra.NoArgs,
		PreRunE: loadConfig(st),
	}

	cmd.AddCommand(newListTasksCmd(st))
	cmd.AddCommand(newListResultsCmd(st))
	return cmd
}

func newListTasksCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:     "tasks",
		Short:   "List generated task sets",
		Args:    cobra.NoArgs,
		PreRunE: loadConfig(st),
		RunE: func(cmd *cobra.Command, args []string) error {
			if st == nil || st.cfg == nil {
				return fmt.Errorf("list: missing config (internal error)")
			}
			tasksDir := tasksDirFor(st.cfg.Data.Dir)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DOMAIN\tTASKS\tLOOKUP\tACTION\tSEED")
			for _, d := range sandbox.TaskDomains() {
				set, err := taskgen.Load(tasksDir, d)
				if err != nil {
					if errors.Is(err, os.ErrNotExist) {
						continue
					}
					return err
				}
				lookup := 0
				for _, task := range set.Tasks {
					if task.Kind == taskgen.KindLookup {
						lookup++
					}
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n",
					d, len(set.Tasks), lookup, len(set.Tasks)-lookup, set.Seed)
			}
			return tw.Flush()
		},
	}
}

func newListResultsCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:     "results",
		Short:   "List recorded result files",
		Args:    cobra.NoArgs,
		PreRunE: loadConfig(st),
		RunE: func(cmd *cobra.Command, args []string) error {
			if st == nil || st.cfg == nil {
				return fmt.Errorf("list: missing config (internal error)")
			}
			resultsDir := resultsDirFor(st.cfg.Data.Dir)

			entries, err := os.ReadDir(resultsDir)
			if err != nil {
				if os.IsNotExist(err) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No results found.")
					return nil
				}
				return fmt.Errorf("list: read %s: %w", resultsDir, err)
			}

			var names []string
			for _, e := range entries {
				if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
					continue
				}
				names = append(names, e.Name())
			}
			if len(names) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No results found.")
				return nil
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			for _, name := range names {
				_, _ = fmt.Fprintln(out, filepath.Join(resultsDir, name))
			}
			return nil
		},
	}
}
