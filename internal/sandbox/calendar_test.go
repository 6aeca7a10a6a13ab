package sandbox

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCalendarGetEventInformation(t *testing.T) {
	s := testSnapshot()
	tests := []struct {
		name string
		args map[string]string
		want string
	}{
		{"field value", map[string]string{"event_id": "00000001", "field": "duration"}, `{"duration":"30"}`},
		{"name field", map[string]string{"event_id": "00000000", "field": "event_name"}, `{"event_name":"Sprint planning with Sam"}`},
		{"missing id", map[string]string{"field": "duration"}, "Event ID not provided."},
		{"missing field", map[string]string{"event_id": "00000001"}, "Field not provided."},
		{"bad field", map[string]string{"event_id": "00000001", "field": "location"}, "Field not found."},
		{"no such event", map[string]string{"event_id": "99999999", "field": "duration"}, "Event not found."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustExecute(t, s, "calendar.get_event_information_by_id", tt.args)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCalendarSearchEvents(t *testing.T) {
	s := testSnapshot()

	out := mustExecute(t, s, "calendar.search_events", map[string]string{"query": "sam"})
	var events []map[string]string
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("unmarshal %q: %v", out, err)
	}
	if len(events) != 2 {
		t.Fatalf("query sam: %d events, want 2", len(events))
	}

	out = mustExecute(t, s, "calendar.search_events", map[string]string{
		"time_min": "2023-11-30 00:00:00",
		"time_max": "2023-11-30 23:59:59",
	})
	events = nil
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("unmarshal %q: %v", out, err)
	}
	if len(events) != 1 || events[0]["event_id"] != "00000001" {
		t.Errorf("day filter = %v", events)
	}

	out = mustExecute(t, s, "calendar.search_events", map[string]string{"query": "standup"})
	if out != "No events found." {
		t.Errorf("no match = %q", out)
	}
}

func TestCalendarSearchCap(t *testing.T) {
	s := &Snapshot{}
	for i := 0; i < 8; i++ {
		ids := make([]string, 0, len(s.Events))
		for _, e := range s.Events {
			ids = append(ids, e.ID)
		}
		s.Events = append(s.Events, Event{
			ID:               nextID(ids),
			Name:             "Weekly sync",
			ParticipantEmail: "sam.reed@atlas.com",
			Start:            "2023-11-30 10:00:00",
			Duration:         "30",
		})
	}
	out := mustExecute(t, s, "calendar.search_events", map[string]string{"query": "sync"})
	var events []map[string]string
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(events) != 5 {
		t.Errorf("results = %d, want cap of 5", len(events))
	}
}

func TestCalendarCreateEvent(t *testing.T) {
	s := testSnapshot()
	id := mustExecute(t, s, "calendar.create_event", map[string]string{
		"event_name":        "Budget check-in",
		"participant_email": "Marcus.Brandt@Atlas.com",
		"event_start":       "2023-12-04 11:00:00",
		"duration":          "45",
	})
	if id != "00000003" {
		t.Errorf("new id = %q, want 00000003", id)
	}
	created := s.Events[len(s.Events)-1]
	if created.ParticipantEmail != "marcus.brandt@atlas.com" {
		t.Errorf("participant not lowercased: %q", created.ParticipantEmail)
	}

	out := mustExecute(t, s, "calendar.create_event", map[string]string{
		"participant_email": "sam.reed@atlas.com",
		"event_start":       "2023-12-04 11:00:00",
		"duration":          "45",
	})
	if out != "Event name not provided." {
		t.Errorf("missing name = %q", out)
	}
}

func TestCalendarDeleteAndUpdate(t *testing.T) {
	s := testSnapshot()

	if out := mustExecute(t, s, "calendar.delete_event", map[string]string{"event_id": "00000001"}); out != "Event deleted successfully." {
		t.Fatalf("delete = %q", out)
	}
	if len(s.Events) != 2 {
		t.Fatalf("events = %d after delete", len(s.Events))
	}
	if out := mustExecute(t, s, "calendar.delete_event", map[string]string{"event_id": "00000001"}); out != "Event not found." {
		t.Errorf("second delete = %q", out)
	}

	if out := mustExecute(t, s, "calendar.update_event", map[string]string{
		"event_id": "00000002", "field": "event_start", "new_value": "2023-12-01 15:00:00",
	}); out != "Event updated successfully." {
		t.Fatalf("update = %q", out)
	}
	for _, e := range s.Events {
		if e.ID == "00000002" && e.Start != "2023-12-01 15:00:00" {
			t.Errorf("start not updated: %q", e.Start)
		}
	}

	out := mustExecute(t, s, "calendar.update_event", map[string]string{"event_id": "00000002", "field": "event_start"})
	if !strings.Contains(out, "not provided") {
		t.Errorf("missing value = %q", out)
	}
}
