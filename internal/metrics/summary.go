package metrics

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stellarlinkco/sandbench/internal/runner"
	"github.com/stellarlinkco/sandbench/internal/sandbox"
)

// SummaryPath names the JSON summary file for one (domain, model, variant)
// run, using the same naming scheme as the result files.
func SummaryPath(dir string, d sandbox.Domain, model string, variant runner.Variant) string {
	name := fmt.Sprintf("%s__%s__%s.json", d, runner.SanitizeModel(model), variant)
	return filepath.Join(dir, name)
}

// WriteReport writes a scored report as indented JSON, creating the directory
// if needed.
func WriteReport(rep *Report, path string) error {
	if rep == nil {
		return errors.New("metrics: nil report")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("metrics: create dir: %w", err)
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("metrics: encode report: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}

// LoadReport reads a summary file written by WriteReport.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("metrics: open %s: %w", path, err)
	}

	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("metrics: parse %s: %w", path, err)
	}
	if rep.RunID == "" || rep.Domain == "" {
		return nil, fmt.Errorf("metrics: %s: missing report header", path)
	}
	return &rep, nil
}
