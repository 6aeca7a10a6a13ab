package taskgen

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/stellarlinkco/sandbench/internal/sandbox"
)

// TaskFile returns the task file path for a domain.
func TaskFile(dir string, d sandbox.Domain) string {
	return filepath.Join(dir, string(d)+".yaml")
}

// Save writes a task set as YAML under dir.
func Save(set *TaskSet, dir string) error {
	if set == nil {
		return fmt.Errorf("taskgen: nil task set")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("taskgen: create dir: %w", err)
	}
	data, err := yaml.Marshal(set)
	if err != nil {
		return fmt.Errorf("taskgen: marshal %s tasks: %w", set.Domain, err)
	}
	path := TaskFile(dir, set.Domain)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("taskgen: write %s: %w", path, err)
	}
	return nil
}

// Load reads one domain's task set from dir.
func Load(dir string, d sandbox.Domain) (*TaskSet, error) {
	path := TaskFile(dir, d)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("taskgen: read %s: %w", path, err)
	}
	var set TaskSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("taskgen: parse %s: %w", path, err)
	}
	if set.Domain != d {
		return nil, fmt.Errorf("taskgen: %s holds tasks for domain %q, want %q", path, set.Domain, d)
	}
	for _, task := range set.Tasks {
		if task.ID == "" || task.Query == "" {
			return nil, fmt.Errorf("taskgen: %s: task with empty id or query", path)
		}
		if task.Kind != KindAction && task.Kind != KindLookup {
			return nil, fmt.Errorf("taskgen: %s: task %s has unknown kind %q", path, task.ID, task.Kind)
		}
	}
	return &set, nil
}
