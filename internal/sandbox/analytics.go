package sandbox

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

var plotValues = []string{
	"total_visits",
	"session_duration_seconds",
	"user_engaged",
	"visits_direct",
	"visits_referral",
	"visits_search_engine",
	"visits_social_media",
}

var plotTypes = []string{"bar", "line", "scatter", "histogram"}

func analyticsTools() []ToolSpec {
	rangeProps := func(extra map[string]any) map[string]any {
		props := map[string]any{
			"time_min": stringProp("start date, YYYY-MM-DD (optional)"),
			"time_max": stringProp("end date, YYYY-MM-DD (optional)"),
		}
		for k, v := range extra {
			props[k] = v
		}
		return props
	}
	return []ToolSpec{
		{
			Name:        "analytics.get_visitor_information_by_id",
			Description: "Retrieve all visit records for a visitor ID.",
			InputSchema: objectSchema(map[string]any{
				"visitor_id": stringProp("visitor identifier"),
			}, "visitor_id"),
		},
		{
			Name:        "analytics.create_plot",
			Description: "Create a plot of an analytics metric over a date range and return its file path. Values: total_visits, session_duration_seconds, user_engaged, visits_direct, visits_referral, visits_search_engine, visits_social_media. Types: bar, line, scatter, histogram.",
			InputSchema: objectSchema(rangeProps(map[string]any{
				"value_to_plot": stringProp("metric to plot"),
				"plot_type":     stringProp("chart type"),
			}), "time_min", "time_max", "value_to_plot", "plot_type"),
		},
		{
			Name:        "analytics.total_visits_count",
			Description: "Count visits per day within an optional date range.",
			InputSchema: objectSchema(rangeProps(nil)),
		},
		{
			Name:        "analytics.engaged_users_count",
			Description: "Count engaged visitors per day within an optional date range.",
			InputSchema: objectSchema(rangeProps(nil)),
		},
		{
			Name:        "analytics.traffic_source_count",
			Description: "Count visits per day from one traffic source within an optional date range.",
			InputSchema: objectSchema(rangeProps(map[string]any{
				"traffic_source": stringProp("traffic source to filter by (optional)"),
			})),
		},
		{
			Name:        "analytics.get_average_session_duration",
			Description: "Average session duration in seconds per day within an optional date range.",
			InputSchema: objectSchema(rangeProps(nil)),
		},
	}
}

func visitRecord(v Visit) map[string]string {
	return map[string]string{
		"visitor_id":     v.VisitorID,
		"date_of_visit":  v.DateOfVisit,
		"visit_duration": v.Duration,
		"user_engaged":   v.UserEngaged,
		"traffic_source": v.TrafficSource,
	}
}

// visitsInRange filters by date, lexical compare on YYYY-MM-DD.
func (s *Snapshot) visitsInRange(timeMin, timeMax string) []Visit {
	var out []Visit
	for _, v := range s.Visits {
		if timeMin != "" && v.DateOfVisit < timeMin {
			continue
		}
		if timeMax != "" && v.DateOfVisit > timeMax {
			continue
		}
		out = append(out, v)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func (s *Snapshot) executeAnalytics(name string, args map[string]string) (string, error) {
	timeMin := arg(args, "time_min")
	timeMax := arg(args, "time_max")

	switch name {
	case "analytics.get_visitor_information_by_id":
		id := arg(args, "visitor_id")
		if id == "" {
			return "Visitor ID not provided.", nil
		}
		var records []map[string]string
		for _, v := range s.Visits {
			if v.VisitorID == id {
				records = append(records, visitRecord(v))
			}
		}
		if len(records) == 0 {
			return "Visitor not found.", nil
		}
		return marshalRecords(records), nil

	case "analytics.create_plot":
		value := arg(args, "value_to_plot")
		plotType := arg(args, "plot_type")
		if timeMin == "" {
			return "Start date not provided.", nil
		}
		if timeMax == "" {
			return "End date not provided.", nil
		}
		if !contains(plotValues, value) {
			return "Value to plot must be one of '" + strings.Join(plotValues, "', '") + "'", nil
		}
		if !contains(plotTypes, plotType) {
			return "Plot type must be one of 'bar', 'line', 'scatter', or 'histogram'", nil
		}
		path := fmt.Sprintf("plots/%s_%s_%s_%s.png", timeMin, timeMax, value, plotType)
		s.Plots = append(s.Plots, Plot{FilePath: path})
		return path, nil

	case "analytics.total_visits_count":
		counts := make(map[string]int)
		for _, v := range s.visitsInRange(timeMin, timeMax) {
			counts[v.DateOfVisit]++
		}
		return marshalCounts(counts), nil

	case "analytics.engaged_users_count":
		counts := make(map[string]int)
		for _, v := range s.visitsInRange(timeMin, timeMax) {
			if _, ok := counts[v.DateOfVisit]; !ok {
				counts[v.DateOfVisit] = 0
			}
			if v.UserEngaged == "True" {
				counts[v.DateOfVisit]++
			}
		}
		return marshalCounts(counts), nil

	case "analytics.traffic_source_count":
		source := arg(args, "traffic_source")
		counts := make(map[string]int)
		for _, v := range s.visitsInRange(timeMin, timeMax) {
			if _, ok := counts[v.DateOfVisit]; !ok {
				counts[v.DateOfVisit] = 0
			}
			if source == "" || v.TrafficSource == source {
				counts[v.DateOfVisit]++
			}
		}
		return marshalCounts(counts), nil

	case "analytics.get_average_session_duration":
		totals := make(map[string]float64)
		sizes := make(map[string]int)
		for _, v := range s.visitsInRange(timeMin, timeMax) {
			totals[v.DateOfVisit] += parseFloat(v.Duration)
			sizes[v.DateOfVisit]++
		}
		means := make(map[string]float64, len(totals))
		for date, total := range totals {
			means[date] = total / float64(sizes[date])
		}
		return marshalMeans(means), nil

	default:
		return "", fmt.Errorf("sandbox: unknown tool %q", name)
	}
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// JSON object keys come out sorted, so daily breakdowns render in date order.
func marshalCounts(m map[string]int) string {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Sprintf("marshal error: %v", err)
	}
	return string(b)
}

func marshalMeans(m map[string]float64) string {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Sprintf("marshal error: %v", err)
	}
	return string(b)
}
