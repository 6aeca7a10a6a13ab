package sandbox

import (
	"fmt"
	"strings"
)

func calendarTools() []ToolSpec {
	return []ToolSpec{
		{
			Name:        "calendar.get_event_information_by_id",
			Description: "Retrieve one field of a calendar event by its 8-digit ID. Valid fields: event_id, event_name, participant_email, event_start, duration.",
			InputSchema: objectSchema(map[string]any{
				"event_id": stringProp("8-digit event identifier"),
				"field":    stringProp("field to retrieve"),
			}, "event_id", "field"),
		},
		{
			Name:        "calendar.search_events",
			Description: "Search events by text in the name or participant email, optionally bounded by start time. Returns at most 5 events.",
			InputSchema: objectSchema(map[string]any{
				"query":    stringProp("text to match against event_name and participant_email"),
				"time_min": stringProp("earliest event_start, YYYY-MM-DD HH:MM:SS (optional)"),
				"time_max": stringProp("latest event_start, YYYY-MM-DD HH:MM:SS (optional)"),
			}),
		},
		{
			Name:        "calendar.create_event",
			Description: "Create a calendar event and return its new 8-digit ID.",
			InputSchema: objectSchema(map[string]any{
				"event_name":        stringProp("event title"),
				"participant_email": stringProp("participant email address"),
				"event_start":       stringProp("start time, YYYY-MM-DD HH:MM:SS"),
				"duration":          stringProp("duration in minutes"),
			}, "event_name", "participant_email", "event_start", "duration"),
		},
		{
			Name:        "calendar.delete_event",
			Description: "Delete a calendar event by its 8-digit ID.",
			InputSchema: objectSchema(map[string]any{
				"event_id": stringProp("8-digit event identifier"),
			}, "event_id"),
		},
		{
			Name:        "calendar.update_event",
			Description: "Update one field of a calendar event. Valid fields: event_name, participant_email, event_start, duration.",
			InputSchema: objectSchema(map[string]any{
				"event_id":  stringProp("8-digit event identifier"),
				"field":     stringProp("field to update"),
				"new_value": stringProp("new value for the field"),
			}, "event_id", "field", "new_value"),
		},
	}
}

func eventRecord(e Event) map[string]string {
	return map[string]string{
		"event_id":          e.ID,
		"event_name":        e.Name,
		"participant_email": e.ParticipantEmail,
		"event_start":       e.Start,
		"duration":          e.Duration,
	}
}

func (s *Snapshot) executeCalendar(name string, args map[string]string) (string, error) {
	switch name {
	case "calendar.get_event_information_by_id":
		id := arg(args, "event_id")
		field := arg(args, "field")
		if id == "" {
			return "Event ID not provided.", nil
		}
		if field == "" {
			return "Field not provided.", nil
		}
		for _, e := range s.Events {
			if e.ID == id {
				rec := eventRecord(e)
				v, ok := rec[field]
				if !ok {
					return "Field not found.", nil
				}
				return marshalRecord(map[string]string{field: v}), nil
			}
		}
		return "Event not found.", nil

	case "calendar.search_events":
		query := strings.ToLower(arg(args, "query"))
		timeMin := arg(args, "time_min")
		timeMax := arg(args, "time_max")
		var matches []map[string]string
		for _, e := range s.Events {
			if query != "" &&
				!strings.Contains(strings.ToLower(e.Name), query) &&
				!strings.Contains(strings.ToLower(e.ParticipantEmail), query) {
				continue
			}
			// Fixed-width timestamps, so lexical order is chronological.
			if timeMin != "" && e.Start < timeMin {
				continue
			}
			if timeMax != "" && e.Start > timeMax {
				continue
			}
			matches = append(matches, eventRecord(e))
		}
		if len(matches) == 0 {
			return "No events found.", nil
		}
		if len(matches) > 5 {
			matches = matches[:5]
		}
		return marshalRecords(matches), nil

	case "calendar.create_event":
		eventName := arg(args, "event_name")
		participant := arg(args, "participant_email")
		start := arg(args, "event_start")
		duration := arg(args, "duration")
		if eventName == "" {
			return "Event name not provided.", nil
		}
		if participant == "" {
			return "Participant email not provided.", nil
		}
		if start == "" {
			return "Event start not provided.", nil
		}
		if duration == "" {
			return "Event duration not provided.", nil
		}
		ids := make([]string, 0, len(s.Events))
		for _, e := range s.Events {
			ids = append(ids, e.ID)
		}
		id := nextID(ids)
		s.Events = append(s.Events, Event{
			ID:               id,
			Name:             eventName,
			ParticipantEmail: strings.ToLower(participant),
			Start:            start,
			Duration:         duration,
		})
		return id, nil

	case "calendar.delete_event":
		id := arg(args, "event_id")
		if id == "" {
			return "Event ID not provided.", nil
		}
		for i, e := range s.Events {
			if e.ID == id {
				s.Events = append(s.Events[:i], s.Events[i+1:]...)
				return "Event deleted successfully.", nil
			}
		}
		return "Event not found.", nil

	case "calendar.update_event":
		id := arg(args, "event_id")
		field := arg(args, "field")
		value := arg(args, "new_value")
		if id == "" || field == "" || value == "" {
			return "Event ID, field, or new value not provided.", nil
		}
		for i := range s.Events {
			if s.Events[i].ID != id {
				continue
			}
			switch field {
			case "event_name":
				s.Events[i].Name = value
			case "participant_email":
				s.Events[i].ParticipantEmail = strings.ToLower(value)
			case "event_start":
				s.Events[i].Start = value
			case "duration":
				s.Events[i].Duration = value
			default:
				return "Field not found.", nil
			}
			return "Event updated successfully.", nil
		}
		return "Event not found.", nil

	default:
		return "", fmt.Errorf("sandbox: unknown tool %q", name)
	}
}
