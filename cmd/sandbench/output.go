package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/stellarlinkco/sandbench/internal/metrics"
)

type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
)

func parseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json", "jsonl":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid --output %q (expected table|json)", s)
	}
}

func coloredStatus(passed bool) string {
	if passed {
		return colorGreen + "PASS" + colorReset
	}
	return colorRed + "FAIL" + colorReset
}

func formatReportTable(rep *metrics.Report, threshold float64) string {
	if rep == nil {
		return "Report: <nil>\n"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Domain: %s  Model: %s  Variant: %s\n", rep.Domain, rep.Model, rep.Variant)
	fmt.Fprintf(&buf, "Run: %s\n", rep.RunID)

	if !rep.Defined {
		fmt.Fprintf(&buf, "Tasks: %d evaluated=0 pass_rate=undefined\n", rep.TotalTasks)
		return buf.String()
	}

	fmt.Fprintf(&buf, "Tasks: %d evaluated=%d correct=%d exact=%d sentinel_failures=%d\n",
		rep.TotalTasks, rep.Evaluated, rep.Correct, rep.ExactMatches, rep.SentinelFailures)
	fmt.Fprintf(&buf, "Lookup: %d/%d  Action: %d/%d\n",
		rep.LookupCorrect, rep.LookupTotal, rep.ActionCorrect, rep.ActionTotal)
	if len(rep.Missing) > 0 {
		fmt.Fprintf(&buf, "Warning: %d task(s) missing from results: %s\n",
			len(rep.Missing), strings.Join(rep.Missing, ", "))
	}

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tKIND\tRESULT\tEXACT\tFAILURE")
	for _, o := range rep.Outcomes {
		exact := ""
		if o.ExactMatch {
			exact = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			o.TaskID, o.Kind, coloredStatus(o.Correct), exact, o.Failure)
	}
	_ = tw.Flush()

	fmt.Fprintf(&buf, "Pass rate: %.4f (threshold %.2f) %s\n",
		rep.PassRate, threshold, coloredStatus(rep.PassRate >= threshold))
	return buf.String()
}

func formatReportJSON(rep *metrics.Report) (string, error) {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	return string(b) + "\n", nil
}

func parseSince(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	layouts := []string{time.RFC3339, "2006-01-02"}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --since %q (expected YYYY-MM-DD or RFC3339)", s)
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.UTC().Format(time.RFC3339)
}
