package runner

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stellarlinkco/sandbench/internal/sandbox"
)

// ResultsPath names the JSONL file for one (domain, model, variant) run.
func ResultsPath(dir string, d sandbox.Domain, model string, variant Variant) string {
	name := fmt.Sprintf("%s__%s__%s.jsonl", d, SanitizeModel(model), variant)
	return filepath.Join(dir, name)
}

// SanitizeModel makes a model name safe for use in file names.
func SanitizeModel(model string) string {
	model = strings.TrimSpace(model)
	if model == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', ':', ' ':
			return '-'
		default:
			return r
		}
	}, model)
}

// WriteResults writes a result set as JSONL: a header line with the run
// metadata, then one line per task result.
func WriteResults(set *ResultSet, path string) error {
	if set == nil {
		return fmt.Errorf("runner: nil result set")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("runner: create dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("runner: create %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	if err := enc.Encode(set); err != nil {
		f.Close()
		return fmt.Errorf("runner: write header: %w", err)
	}
	for i := range set.Results {
		if err := enc.Encode(&set.Results[i]); err != nil {
			f.Close()
			return fmt.Errorf("runner: write result %s: %w", set.Results[i].TaskID, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("runner: flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("runner: close %s: %w", path, err)
	}
	return nil
}

// LoadResults reads a JSONL result file written by WriteResults.
func LoadResults(path string) (*ResultSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("runner: open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("runner: read %s: %w", path, err)
		}
		return nil, fmt.Errorf("runner: %s: empty result file", path)
	}

	var set ResultSet
	if err := json.Unmarshal(sc.Bytes(), &set); err != nil {
		return nil, fmt.Errorf("runner: parse header in %s: %w", path, err)
	}
	if set.RunID == "" || set.Domain == "" {
		return nil, fmt.Errorf("runner: %s: missing run header", path)
	}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var tr TaskResult
		if err := json.Unmarshal([]byte(line), &tr); err != nil {
			return nil, fmt.Errorf("runner: parse result line in %s: %w", path, err)
		}
		set.Results = append(set.Results, tr)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("runner: read %s: %w", path, err)
	}

	return &set, nil
}
