package taskgen

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/stellarlinkco/sandbench/internal/sandbox"
)

func calendarTemplates() []template {
	return []template{
		{
			name: "count_meetings_on_day",
			kind: KindLookup,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				if len(s.Events) == 0 {
					return nil
				}
				day := datePart(pick(r, s.Events).Start)
				count := 0
				for _, e := range s.Events {
					if datePart(e.Start) == day {
						count++
					}
				}
				return &sample{
					query:  fmt.Sprintf("How many meetings do I have on %s?", day),
					answer: strconv.Itoa(count),
				}
			},
		},
		{
			name: "first_meeting_with_person",
			kind: KindLookup,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				if len(s.Events) == 0 {
					return nil
				}
				email := pick(r, s.Events).ParticipantEmail
				first := ""
				for _, e := range s.Events {
					if e.ParticipantEmail != email {
						continue
					}
					if first == "" || e.Start < first {
						first = e.Start
					}
				}
				return &sample{
					query:  fmt.Sprintf("When is my earliest meeting with %s?", email),
					answer: first,
				}
			},
		},
		{
			name: "cancel_meeting",
			kind: KindAction,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				e, ok := uniqueEvent(r, s)
				if !ok {
					return nil
				}
				return &sample{
					query: fmt.Sprintf("Cancel my '%s' meeting on %s.", e.Name, datePart(e.Start)),
					actions: []sandbox.Call{{
						Tool: "calendar.delete_event",
						Args: map[string]string{"event_id": e.ID},
					}},
				}
			},
		},
		{
			name: "schedule_meeting",
			kind: KindAction,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				if len(s.People) == 0 {
					return nil
				}
				p := pick(r, s.People)
				topic := pick(r, []string{"Planning catch-up", "Budget review", "Launch prep", "Team retro"})
				day := sandbox.CurrentTime.AddDate(0, 0, 1+r.Intn(7))
				start := fmt.Sprintf("%s %02d:00:00", day.Format(sandbox.DateLayout), 9+r.Intn(8))
				duration := pick(r, []string{"30", "60"})
				return &sample{
					query: fmt.Sprintf("Schedule a %s-minute meeting called '%s' with %s at %s.",
						duration, topic, firstNameOf(p.Name), start),
					actions: []sandbox.Call{{
						Tool: "calendar.create_event",
						Args: map[string]string{
							"event_name":        topic,
							"participant_email": p.Email,
							"event_start":       start,
							"duration":          duration,
						},
					}},
				}
			},
		},
		{
			name: "reschedule_meeting",
			kind: KindAction,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				e, ok := uniqueEvent(r, s)
				if !ok {
					return nil
				}
				day := sandbox.CurrentTime.AddDate(0, 0, 2+r.Intn(7))
				newStart := fmt.Sprintf("%s %02d:30:00", day.Format(sandbox.DateLayout), 9+r.Intn(7))
				return &sample{
					query: fmt.Sprintf("Move my '%s' meeting to %s.", e.Name, newStart),
					actions: []sandbox.Call{{
						Tool: "calendar.update_event",
						Args: map[string]string{
							"event_id":  e.ID,
							"field":     "event_start",
							"new_value": newStart,
						},
					}},
				}
			},
		},
		{
			name: "conditional_cancel_noop",
			kind: KindAction,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				if len(s.People) == 0 {
					return nil
				}
				p := pick(r, s.People)
				day := sandbox.CurrentTime.AddDate(0, 0, 1+r.Intn(14)).Format(sandbox.DateLayout)
				for _, e := range s.Events {
					if e.ParticipantEmail == p.Email && datePart(e.Start) == day {
						// A matching meeting exists, so this draw is not a no-op.
						return nil
					}
				}
				return &sample{
					query: fmt.Sprintf("If I have a meeting with %s on %s, cancel it.",
						firstNameOf(p.Name), day),
					noop: true,
				}
			},
		},
		{
			name:    "email_meeting_start",
			kind:    KindAction,
			domains: []sandbox.Domain{sandbox.DomainCalendar, sandbox.DomainEmail},
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				e, ok := uniqueEvent(r, s)
				if !ok || len(s.People) == 0 {
					return nil
				}
				p := pick(r, s.People)
				return &sample{
					query: fmt.Sprintf("Email %s the start time of the '%s' meeting with subject 'Meeting time'.",
						firstNameOf(p.Name), e.Name),
					actions: []sandbox.Call{{
						Tool: "email.send_email",
						Args: map[string]string{
							"recipient": p.Email,
							"subject":   "Meeting time",
							"body":      e.Start,
						},
					}},
				}
			},
		},
	}
}

// uniqueEvent samples an event whose name appears exactly once, so queries
// that reference events by name stay unambiguous.
func uniqueEvent(r *rand.Rand, s *sandbox.Snapshot) (sandbox.Event, bool) {
	if len(s.Events) == 0 {
		return sandbox.Event{}, false
	}
	counts := make(map[string]int, len(s.Events))
	for _, e := range s.Events {
		counts[e.Name]++
	}
	var unique []sandbox.Event
	for _, e := range s.Events {
		if counts[e.Name] == 1 {
			unique = append(unique, e)
		}
	}
	if len(unique) == 0 {
		return sandbox.Event{}, false
	}
	return pick(r, unique), true
}

func datePart(ts string) string {
	if len(ts) >= len(sandbox.DateLayout) {
		return ts[:len(sandbox.DateLayout)]
	}
	return ts
}

func firstNameOf(full string) string {
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i]
	}
	return full
}
