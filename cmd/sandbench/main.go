package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/sandbench/internal/config"
)

type cliState struct {
	configPath string
	cfg        *config.Config
}

var (
	osExit                 = os.Exit
	stderrWriter io.Writer = os.Stderr
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, errBelowThreshold) {
			osExit(1)
			return
		}
		fmt.Fprintln(stderrWriter, err)
		osExit(1)
	}
}

func newRootCmd() *cobra.Command {
	st := &cliState{configPath: config.DefaultPath}

	root := &cobra.Command{
		Use:           "sandbench",
		Short:         "Benchmark tool-using agents against simulated workplace software",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&st.configPath, "config", st.configPath, "path to config file")

	root.AddCommand(newGenerateCmd(st))
	root.AddCommand(newTasksCmd(st))
	root.AddCommand(newInferCmd(st))
	root.AddCommand(newMetricsCmd(st))
	root.AddCommand(newListCmd(st))
	root.AddCommand(newHistoryCmd(st))
	root.AddCommand(newLeaderboardCmd(st))
	return root
}

// loadConfig is shared PreRunE wiring: every subcommand resolves the config
// file before running. A missing file falls back to defaults so generate and
// tasks work out of the box.
func loadConfig(st *cliState) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(st.configPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && st.configPath == config.DefaultPath {
				st.cfg = config.Default()
				return nil
			}
			return err
		}
		st.cfg = cfg
		return nil
	}
}
