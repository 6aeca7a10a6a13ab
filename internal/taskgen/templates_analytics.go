package taskgen

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/stellarlinkco/sandbench/internal/sandbox"
)

func analyticsTemplates() []template {
	return []template{
		{
			name: "visits_on_day",
			kind: KindLookup,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				if len(s.Visits) == 0 {
					return nil
				}
				day := pick(r, s.Visits).DateOfVisit
				count := 0
				for _, v := range s.Visits {
					if v.DateOfVisit == day {
						count++
					}
				}
				return &sample{
					query:  fmt.Sprintf("How many visitors did the site get on %s?", day),
					answer: strconv.Itoa(count),
				}
			},
		},
		{
			name: "engaged_users_on_day",
			kind: KindLookup,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				if len(s.Visits) == 0 {
					return nil
				}
				day := pick(r, s.Visits).DateOfVisit
				count := 0
				for _, v := range s.Visits {
					if v.DateOfVisit == day && v.UserEngaged == "True" {
						count++
					}
				}
				return &sample{
					query:  fmt.Sprintf("How many engaged users did we have on %s?", day),
					answer: strconv.Itoa(count),
				}
			},
		},
		{
			name: "average_duration_on_day",
			kind: KindLookup,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				if len(s.Visits) == 0 {
					return nil
				}
				day := pick(r, s.Visits).DateOfVisit
				total := 0.0
				count := 0
				for _, v := range s.Visits {
					if v.DateOfVisit == day {
						d, err := strconv.ParseFloat(v.Duration, 64)
						if err != nil {
							return nil
						}
						total += d
						count++
					}
				}
				if count == 0 {
					return nil
				}
				return &sample{
					query:  fmt.Sprintf("What was the average session duration in seconds on %s?", day),
					answer: strconv.FormatFloat(total/float64(count), 'f', -1, 64),
				}
			},
		},
		{
			name: "create_metric_plot",
			kind: KindAction,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				if len(s.Visits) == 0 {
					return nil
				}
				min, max := visitDateRange(s)
				metric := pick(r, []string{"total_visits", "session_duration_seconds", "user_engaged"})
				plotType := pick(r, []string{"bar", "line", "scatter"})
				label := map[string]string{
					"total_visits":             "total visits",
					"session_duration_seconds": "session duration",
					"user_engaged":             "engaged users",
				}[metric]
				return &sample{
					query: fmt.Sprintf("Make a %s chart of %s from %s to %s.", plotType, label, min, max),
					actions: []sandbox.Call{{
						Tool: "analytics.create_plot",
						Args: map[string]string{
							"time_min":      min,
							"time_max":      max,
							"value_to_plot": metric,
							"plot_type":     plotType,
						},
					}},
				}
			},
		},
		{
			name: "conditional_plot_noop",
			kind: KindAction,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				if len(s.Visits) == 0 {
					return nil
				}
				day := pick(r, s.Visits).DateOfVisit
				count := 0
				for _, v := range s.Visits {
					if v.DateOfVisit == day {
						count++
					}
				}
				threshold := count + 5 + pick(r, []int{0, 5, 10})
				return &sample{
					query: fmt.Sprintf("If we had more than %d visits on %s, make a bar chart of total visits for that day.",
						threshold, day),
					noop: true,
				}
			},
		},
	}
}

// visitDateRange returns the earliest and latest visit dates in the snapshot.
func visitDateRange(s *sandbox.Snapshot) (string, string) {
	min, max := s.Visits[0].DateOfVisit, s.Visits[0].DateOfVisit
	for _, v := range s.Visits {
		if v.DateOfVisit < min {
			min = v.DateOfVisit
		}
		if v.DateOfVisit > max {
			max = v.DateOfVisit
		}
	}
	return min, max
}
