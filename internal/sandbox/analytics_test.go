package sandbox

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAnalyticsVisitorLookup(t *testing.T) {
	s := testSnapshot()

	out := mustExecute(t, s, "analytics.get_visitor_information_by_id", map[string]string{"visitor_id": "00000002"})
	var records []map[string]string
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("unmarshal %q: %v", out, err)
	}
	if len(records) != 1 || records[0]["traffic_source"] != "direct" {
		t.Errorf("lookup = %v", records)
	}

	if out := mustExecute(t, s, "analytics.get_visitor_information_by_id", map[string]string{"visitor_id": "99999999"}); out != "Visitor not found." {
		t.Errorf("missing visitor = %q", out)
	}
	if out := mustExecute(t, s, "analytics.get_visitor_information_by_id", nil); out != "Visitor ID not provided." {
		t.Errorf("no id = %q", out)
	}
}

func TestAnalyticsCounts(t *testing.T) {
	s := testSnapshot()

	out := mustExecute(t, s, "analytics.total_visits_count", nil)
	counts := map[string]int{}
	if err := json.Unmarshal([]byte(out), &counts); err != nil {
		t.Fatalf("unmarshal %q: %v", out, err)
	}
	if counts["2023-11-28"] != 2 || counts["2023-11-29"] != 1 {
		t.Errorf("total visits = %v", counts)
	}

	out = mustExecute(t, s, "analytics.engaged_users_count", map[string]string{"time_min": "2023-11-28", "time_max": "2023-11-28"})
	counts = map[string]int{}
	if err := json.Unmarshal([]byte(out), &counts); err != nil {
		t.Fatalf("unmarshal %q: %v", out, err)
	}
	if len(counts) != 1 || counts["2023-11-28"] != 1 {
		t.Errorf("engaged users = %v", counts)
	}

	out = mustExecute(t, s, "analytics.traffic_source_count", map[string]string{"traffic_source": "direct"})
	counts = map[string]int{}
	if err := json.Unmarshal([]byte(out), &counts); err != nil {
		t.Fatalf("unmarshal %q: %v", out, err)
	}
	if counts["2023-11-28"] != 1 || counts["2023-11-29"] != 1 {
		t.Errorf("direct visits = %v", counts)
	}
}

func TestAnalyticsAverageSessionDuration(t *testing.T) {
	s := testSnapshot()
	out := mustExecute(t, s, "analytics.get_average_session_duration", nil)
	means := map[string]float64{}
	if err := json.Unmarshal([]byte(out), &means); err != nil {
		t.Fatalf("unmarshal %q: %v", out, err)
	}
	if means["2023-11-28"] != 90 {
		t.Errorf("2023-11-28 mean = %v, want 90", means["2023-11-28"])
	}
	if means["2023-11-29"] != 300 {
		t.Errorf("2023-11-29 mean = %v, want 300", means["2023-11-29"])
	}
}

func TestAnalyticsCreatePlot(t *testing.T) {
	s := testSnapshot()

	out := mustExecute(t, s, "analytics.create_plot", map[string]string{
		"time_min":      "2023-11-01",
		"time_max":      "2023-11-30",
		"value_to_plot": "total_visits",
		"plot_type":     "line",
	})
	want := "plots/2023-11-01_2023-11-30_total_visits_line.png"
	if out != want {
		t.Errorf("plot path = %q, want %q", out, want)
	}
	if len(s.Plots) != 1 || s.Plots[0].FilePath != want {
		t.Errorf("plots table = %v", s.Plots)
	}

	tests := []struct {
		name string
		args map[string]string
		want string
	}{
		{"missing start", map[string]string{"time_max": "2023-11-30", "value_to_plot": "total_visits", "plot_type": "bar"}, "Start date not provided."},
		{"missing end", map[string]string{"time_min": "2023-11-01", "value_to_plot": "total_visits", "plot_type": "bar"}, "End date not provided."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustExecute(t, s, "analytics.create_plot", tt.args); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	out = mustExecute(t, s, "analytics.create_plot", map[string]string{
		"time_min": "2023-11-01", "time_max": "2023-11-30", "value_to_plot": "page_views", "plot_type": "bar",
	})
	if !strings.HasPrefix(out, "Value to plot must be one of") {
		t.Errorf("bad value = %q", out)
	}
	out = mustExecute(t, s, "analytics.create_plot", map[string]string{
		"time_min": "2023-11-01", "time_max": "2023-11-30", "value_to_plot": "total_visits", "plot_type": "pie",
	})
	if !strings.HasPrefix(out, "Plot type must be one of") {
		t.Errorf("bad type = %q", out)
	}
	if len(s.Plots) != 1 {
		t.Errorf("rejected plots were recorded: %v", s.Plots)
	}
}
