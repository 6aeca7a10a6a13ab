// Package ci publishes scored runs to GitHub Actions: job summaries, step
// outputs, and failure annotations.
package ci

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stellarlinkco/sandbench/internal/metrics"
)

// DetectCI returns true if running in GitHub Actions.
func DetectCI() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GITHUB_ACTIONS")), "true")
}

// PublishReport emits a scored run to the surrounding workflow: pass_rate and
// run_id step outputs, a markdown job summary, and an error annotation when
// the pass rate lands under the threshold.
func PublishReport(rep *metrics.Report, threshold float64) error {
	if rep == nil {
		return fmt.Errorf("ci: nil report")
	}

	SetOutput("run_id", rep.RunID)
	if rep.Defined {
		SetOutput("pass_rate", fmt.Sprintf("%.4f", rep.PassRate))
	} else {
		SetOutput("pass_rate", "undefined")
	}

	if rep.Defined && rep.PassRate < threshold {
		AddAnnotation("error", "", 0, fmt.Sprintf(
			"%s/%s/%s: pass rate %.4f below threshold %.2f",
			rep.Domain, rep.Model, rep.Variant, rep.PassRate, threshold))
	}

	return SetJobSummary(ReportSummary(rep, threshold))
}

// ReportSummary renders a run as job-summary markdown.
func ReportSummary(rep *metrics.Report, threshold float64) string {
	if rep == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## sandbench: %s / %s / %s\n\n", rep.Domain, rep.Model, rep.Variant)

	fmt.Fprintln(&b, "| Metric | Value |")
	fmt.Fprintln(&b, "| --- | --- |")
	if rep.Defined {
		fmt.Fprintf(&b, "| Pass rate | %.4f (threshold %.2f) |\n", rep.PassRate, threshold)
	} else {
		fmt.Fprintln(&b, "| Pass rate | undefined (0 evaluated) |")
	}
	fmt.Fprintf(&b, "| Evaluated | %d/%d |\n", rep.Evaluated, rep.TotalTasks)
	fmt.Fprintf(&b, "| Lookup | %d/%d |\n", rep.LookupCorrect, rep.LookupTotal)
	fmt.Fprintf(&b, "| Action | %d/%d |\n", rep.ActionCorrect, rep.ActionTotal)
	fmt.Fprintf(&b, "| Exact matches | %d |\n", rep.ExactMatches)
	fmt.Fprintf(&b, "| Sentinel failures | %d |\n", rep.SentinelFailures)

	if len(rep.Missing) > 0 {
		fmt.Fprintf(&b, "\nMissing from results: %s\n", strings.Join(rep.Missing, ", "))
	}

	var failed []string
	for _, o := range rep.Outcomes {
		if !o.Correct {
			failed = append(failed, o.TaskID)
		}
	}
	if len(failed) > 0 {
		fmt.Fprintf(&b, "\nFailed tasks: %s\n", strings.Join(failed, ", "))
	}

	return b.String()
}

// SetOutput sets a GitHub Actions output variable.
func SetOutput(name, value string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if path := strings.TrimSpace(os.Getenv("GITHUB_OUTPUT")); path != "" {
		_ = appendGitHubCommandFile(path, fmt.Sprintf("%s<<EOF\n%s\nEOF\n", name, value))
		return
	}
	fmt.Printf("::set-output name=%s::%s\n", name, escapeCommandValue(value))
}

// AddAnnotation adds a GitHub Actions annotation (error, warning, notice).
func AddAnnotation(level, file string, line int, message string) {
	lvl := strings.ToLower(strings.TrimSpace(level))
	switch lvl {
	case "error", "warning", "notice":
	default:
		lvl = "notice"
	}

	msg := escapeCommandValue(message)
	file = strings.TrimSpace(file)

	if file == "" {
		fmt.Printf("::%s::%s\n", lvl, msg)
		return
	}
	if line > 0 {
		fmt.Printf("::%s file=%s,line=%d::%s\n", lvl, file, line, msg)
		return
	}
	fmt.Printf("::%s file=%s::%s\n", lvl, file, msg)
}

// SetJobSummary writes markdown to the job summary.
func SetJobSummary(markdown string) error {
	path := strings.TrimSpace(os.Getenv("GITHUB_STEP_SUMMARY"))
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if !strings.HasSuffix(markdown, "\n") {
		markdown += "\n"
	}
	return appendGitHubCommandFile(path, markdown)
}

func appendGitHubCommandFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}

func escapeCommandValue(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	s = strings.ReplaceAll(s, "\n", "%0A")
	return s
}
