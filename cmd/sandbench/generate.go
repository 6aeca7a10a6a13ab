package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/sandbench/internal/sandbox"
)

type generateOptions struct {
	domain  string
	seed    int64
	dataDir string
}

func newGenerateCmd(st *cliState) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:     "generate",
		Short:   "Generate the simulated workplace databases",
		Args:    cobra.NoArgs,
		PreRunE: loadConfig(st),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.domain, "domain", "", "only write this domain's database (default: all)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "generation seed (overrides config)")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "data directory (overrides config)")

	return cmd
}

func runGenerate(cmd *cobra.Command, st *cliState, opts *generateOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("generate: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("generate: nil options")
	}

	seed := st.cfg.Data.Seed
	if opts.seed != 0 {
		seed = opts.seed
	}
	dataDir := strings.TrimSpace(opts.dataDir)
	if dataDir == "" {
		dataDir = st.cfg.Data.Dir
	}

	snap := sandbox.Generate(sandbox.DefaultGenConfig(seed))

	out := cmd.OutOrStdout()
	if d := strings.TrimSpace(opts.domain); d != "" {
		domain, err := sandbox.ParseDomain(d)
		if err != nil {
			return err
		}
		if err := writeSingleDomain(snap, domain, dataDir); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Wrote %s (seed %d)\n", sandbox.DatabaseFile(dataDir, domain), seed)
		return nil
	}

	if err := sandbox.WriteSnapshot(snap, dataDir); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Wrote %d databases under %s (seed %d)\n", len(sandbox.Domains()), dataDir, seed)
	return nil
}

func writeSingleDomain(snap *sandbox.Snapshot, d sandbox.Domain, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("generate: create dir: %w", err)
	}
	path := sandbox.DatabaseFile(dir, d)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("generate: create %s: %w", path, err)
	}
	if err := sandbox.WriteDomainCSV(snap, d, f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("generate: close %s: %w", filepath.Base(path), err)
	}
	return nil
}
