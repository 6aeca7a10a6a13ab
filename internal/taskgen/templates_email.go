package taskgen

import (
	"fmt"
	"math/rand"

	"github.com/stellarlinkco/sandbench/internal/sandbox"
)

func emailTemplates() []template {
	return []template{
		{
			name: "latest_sender_about",
			kind: KindLookup,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				if len(s.Emails) == 0 {
					return nil
				}
				word := pick(r, s.Emails).Subject
				var latest sandbox.Email
				for _, e := range s.Emails {
					if e.Folder != "inbox" || e.Subject != word {
						continue
					}
					if latest.ID == "" || e.SentDatetime > latest.SentDatetime {
						latest = e
					}
				}
				if latest.ID == "" {
					return nil
				}
				return &sample{
					query:  fmt.Sprintf("Who sent the most recent email with the subject '%s'?", word),
					answer: latest.Address,
				}
			},
		},
		{
			name: "count_emails_from",
			kind: KindLookup,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				if len(s.Emails) == 0 {
					return nil
				}
				addr := pick(r, s.Emails).Address
				count := 0
				for _, e := range s.Emails {
					if e.Folder == "inbox" && e.Address == addr {
						count++
					}
				}
				if count == 0 {
					return nil
				}
				return &sample{
					query:  fmt.Sprintf("How many emails do I have from %s?", addr),
					answer: fmt.Sprintf("%d", count),
				}
			},
		},
		{
			name:    "send_email_to_person",
			kind:    KindAction,
			domains: []sandbox.Domain{sandbox.DomainEmail},
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				if len(s.People) == 0 {
					return nil
				}
				p := pick(r, s.People)
				subject := pick(r, []string{"Quick sync", "Status check", "Friday plans", "Kickoff notes"})
				body := pick(r, []string{
					"Can we catch up tomorrow morning?",
					"Sending over the latest numbers shortly.",
					"Let me know if the new time works.",
				})
				return &sample{
					query: fmt.Sprintf("Send an email to %s with the subject '%s' saying '%s'",
						firstNameOf(p.Name), subject, body),
					actions: []sandbox.Call{{
						Tool: "email.send_email",
						Args: map[string]string{
							"recipient": p.Email,
							"subject":   subject,
							"body":      body,
						},
					}},
				}
			},
		},
		{
			name: "delete_emails_from_sender",
			kind: KindAction,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				if len(s.Emails) == 0 {
					return nil
				}
				addr := pick(r, s.Emails).Address
				var actions []sandbox.Call
				for _, e := range s.Emails {
					if e.Folder == "inbox" && e.Address == addr {
						actions = append(actions, sandbox.Call{
							Tool: "email.delete_email",
							Args: map[string]string{"email_id": e.ID},
						})
					}
				}
				if len(actions) == 0 {
					return nil
				}
				return &sample{
					query:   fmt.Sprintf("Delete all emails from %s.", addr),
					actions: actions,
				}
			},
		},
		{
			name: "reply_to_latest",
			kind: KindAction,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				if len(s.Emails) == 0 {
					return nil
				}
				addr := pick(r, s.Emails).Address
				var latest sandbox.Email
				for _, e := range s.Emails {
					if e.Folder != "inbox" || e.Address != addr {
						continue
					}
					if latest.ID == "" || e.SentDatetime > latest.SentDatetime {
						latest = e
					}
				}
				if latest.ID == "" {
					return nil
				}
				body := pick(r, []string{
					"Thanks, I will take a look today.",
					"Got it, following up by end of week.",
					"Received, thanks for the heads up.",
				})
				return &sample{
					query: fmt.Sprintf("Reply to the most recent email from %s with '%s'",
						addr, body),
					actions: []sandbox.Call{{
						Tool: "email.reply_email",
						Args: map[string]string{
							"email_id": latest.ID,
							"body":     body,
						},
					}},
				}
			},
		},
		{
			name: "conditional_forward_noop",
			kind: KindAction,
			logic: func(r *rand.Rand, s *sandbox.Snapshot) *sample {
				if len(s.People) == 0 {
					return nil
				}
				p := pick(r, s.People)
				subject := pick(r, []string{"Security audit", "Offsite agenda", "Vendor contract"})
				for _, e := range s.Emails {
					if e.Subject == subject {
						return nil
					}
				}
				return &sample{
					query: fmt.Sprintf("If I have any emails with the subject '%s', forward them to %s.",
						subject, firstNameOf(p.Name)),
					noop: true,
				}
			},
		},
	}
}
