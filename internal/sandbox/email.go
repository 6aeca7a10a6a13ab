package sandbox

import (
	"fmt"
	"sort"
	"strings"
)

func emailTools() []ToolSpec {
	return []ToolSpec{
		{
			Name:        "email.get_email_information_by_id",
			Description: "Retrieve one field of an email by its ID. Valid fields: email_id, folder, address, subject, sent_datetime, body.",
			InputSchema: objectSchema(map[string]any{
				"email_id": stringProp("email identifier"),
				"field":    stringProp("field to retrieve"),
			}, "email_id", "field"),
		},
		{
			Name:        "email.search_emails",
			Description: "Search emails for all given keywords across subject, body, and address. Results are sorted most recent first, at most 5.",
			InputSchema: objectSchema(map[string]any{
				"query":    stringProp("space-separated keywords, all must match"),
				"date_min": stringProp("earliest sent date, YYYY-MM-DD (optional)"),
				"date_max": stringProp("latest sent date, YYYY-MM-DD (optional)"),
			}),
		},
		{
			Name:        "email.send_email",
			Description: "Send a new email. The recipient must be a full email address.",
			InputSchema: objectSchema(map[string]any{
				"recipient": stringProp("recipient email address"),
				"subject":   stringProp("subject line"),
				"body":      stringProp("message body"),
			}, "recipient", "subject", "body"),
		},
		{
			Name:        "email.delete_email",
			Description: "Permanently delete one email by its ID.",
			InputSchema: objectSchema(map[string]any{
				"email_id": stringProp("email identifier"),
			}, "email_id"),
		},
		{
			Name:        "email.forward_email",
			Description: "Forward an existing email to a new recipient with an FW: subject prefix.",
			InputSchema: objectSchema(map[string]any{
				"email_id":  stringProp("identifier of the email to forward"),
				"recipient": stringProp("recipient email address"),
			}, "email_id", "recipient"),
		},
		{
			Name:        "email.reply_email",
			Description: "Reply to an existing email; the reply goes to the original address with the original subject.",
			InputSchema: objectSchema(map[string]any{
				"email_id": stringProp("identifier of the email to reply to"),
				"body":     stringProp("reply message body"),
			}, "email_id", "body"),
		},
	}
}

func emailRecord(e Email) map[string]string {
	return map[string]string{
		"email_id":      e.ID,
		"folder":        e.Folder,
		"address":       e.Address,
		"subject":       e.Subject,
		"sent_datetime": e.SentDatetime,
		"body":          e.Body,
	}
}

func validAddress(addr string) bool {
	return strings.Contains(addr, "@") && strings.Contains(addr, ".")
}

// datePart truncates a DateTimeLayout timestamp to its date.
func datePart(ts string) string {
	if len(ts) >= len(DateLayout) {
		return ts[:len(DateLayout)]
	}
	return ts
}

func (s *Snapshot) findEmail(id string) (Email, bool) {
	for _, e := range s.Emails {
		if e.ID == id {
			return e, true
		}
	}
	return Email{}, false
}

func (s *Snapshot) appendOutbox(recipient, subject, body string) {
	ids := make([]string, 0, len(s.Emails))
	for _, e := range s.Emails {
		ids = append(ids, e.ID)
	}
	s.Emails = append(s.Emails, Email{
		ID:           nextID(ids),
		Folder:       "outbox",
		Address:      strings.ToLower(recipient),
		Subject:      subject,
		SentDatetime: CurrentTime.Format(DateTimeLayout),
		Body:         body,
	})
}

func (s *Snapshot) executeEmail(name string, args map[string]string) (string, error) {
	switch name {
	case "email.get_email_information_by_id":
		id := arg(args, "email_id")
		field := arg(args, "field")
		if id == "" {
			return "Email ID not provided.", nil
		}
		if field == "" {
			return "Field not provided.", nil
		}
		e, ok := s.findEmail(id)
		if !ok {
			return "Email not found.", nil
		}
		rec := emailRecord(e)
		v, ok := rec[field]
		if !ok {
			return "Field not found.", nil
		}
		return marshalRecord(map[string]string{field: v}), nil

	case "email.search_emails":
		words := strings.Fields(strings.ToLower(arg(args, "query")))
		dateMin := arg(args, "date_min")
		dateMax := arg(args, "date_max")
		var matches []Email
		for _, e := range s.Emails {
			combined := strings.ToLower(e.Subject + " " + e.Body + " " + e.Address)
			ok := true
			for _, w := range words {
				if !strings.Contains(combined, w) {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			if dateMin != "" && datePart(e.SentDatetime) < dateMin {
				continue
			}
			if dateMax != "" && datePart(e.SentDatetime) > dateMax {
				continue
			}
			matches = append(matches, e)
		}
		if len(matches) == 0 {
			return "No emails found.", nil
		}
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].SentDatetime > matches[j].SentDatetime
		})
		if len(matches) > 5 {
			matches = matches[:5]
		}
		records := make([]map[string]string, 0, len(matches))
		for _, e := range matches {
			records = append(records, emailRecord(e))
		}
		return marshalRecords(records), nil

	case "email.send_email":
		recipient := arg(args, "recipient")
		subject := arg(args, "subject")
		body := arg(args, "body")
		if recipient == "" || subject == "" || body == "" {
			return "Recipient, subject, or body not provided.", nil
		}
		if !validAddress(recipient) {
			return "Invalid recipient email address.", nil
		}
		s.appendOutbox(recipient, subject, body)
		return "Email sent successfully.", nil

	case "email.delete_email":
		id := arg(args, "email_id")
		if id == "" {
			return "Email ID not provided.", nil
		}
		for i, e := range s.Emails {
			if e.ID == id {
				s.Emails = append(s.Emails[:i], s.Emails[i+1:]...)
				return "Email deleted successfully.", nil
			}
		}
		return "Email not found.", nil

	case "email.forward_email":
		id := arg(args, "email_id")
		recipient := arg(args, "recipient")
		if id == "" || recipient == "" {
			return "Email ID or recipient not provided.", nil
		}
		e, ok := s.findEmail(id)
		if !ok {
			return "Email not found.", nil
		}
		if !validAddress(recipient) {
			return "Invalid recipient email address.", nil
		}
		s.appendOutbox(recipient, "FW: "+e.Subject, e.Body)
		return "Email forwarded successfully.", nil

	case "email.reply_email":
		id := arg(args, "email_id")
		body := arg(args, "body")
		if id == "" || body == "" {
			return "Email ID or body not provided.", nil
		}
		e, ok := s.findEmail(id)
		if !ok {
			return "Email not found.", nil
		}
		s.appendOutbox(e.Address, e.Subject, body)
		return "Email replied successfully.", nil

	default:
		return "", fmt.Errorf("sandbox: unknown tool %q", name)
	}
}
