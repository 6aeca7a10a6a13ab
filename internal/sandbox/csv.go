package sandbox

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Column order is fixed per domain so regenerated files are byte-identical.
var csvHeaders = map[Domain][]string{
	DomainCalendar:  {"event_id", "event_name", "participant_email", "event_start", "duration"},
	DomainEmail:     {"email_id", "folder", "address", "subject", "sent_datetime", "body"},
	DomainAnalytics: {"visitor_id", "date_of_visit", "visit_duration", "user_engaged", "traffic_source"},
	DomainProject:   {"task_id", "task_name", "assigned_to_email", "list_name", "due_date", "board"},
	DomainCRM:       {"customer_id", "customer_name", "assigned_to_email", "customer_email", "customer_phone", "last_contact_date", "product_interest", "status"},
	DomainDirectory: {"name", "email_address"},
}

// DatabaseFile returns the snapshot file path for a domain.
func DatabaseFile(dir string, d Domain) string {
	return filepath.Join(dir, string(d)+".csv")
}

// WriteDomainCSV serializes one domain's table.
func WriteDomainCSV(s *Snapshot, d Domain, w io.Writer) error {
	if s == nil {
		return fmt.Errorf("sandbox: nil snapshot")
	}
	header, ok := csvHeaders[d]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDomain, d)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("sandbox: write %s header: %w", d, err)
	}
	for _, row := range domainRows(s, d) {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("sandbox: write %s row: %w", d, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("sandbox: flush %s: %w", d, err)
	}
	return nil
}

func domainRows(s *Snapshot, d Domain) [][]string {
	switch d {
	case DomainCalendar:
		out := make([][]string, 0, len(s.Events))
		for _, e := range s.Events {
			out = append(out, []string{e.ID, e.Name, e.ParticipantEmail, e.Start, e.Duration})
		}
		return out
	case DomainEmail:
		out := make([][]string, 0, len(s.Emails))
		for _, e := range s.Emails {
			out = append(out, []string{e.ID, e.Folder, e.Address, e.Subject, e.SentDatetime, e.Body})
		}
		return out
	case DomainAnalytics:
		out := make([][]string, 0, len(s.Visits))
		for _, v := range s.Visits {
			out = append(out, []string{v.VisitorID, v.DateOfVisit, v.Duration, v.UserEngaged, v.TrafficSource})
		}
		return out
	case DomainProject:
		out := make([][]string, 0, len(s.Tasks))
		for _, t := range s.Tasks {
			out = append(out, []string{t.ID, t.Name, t.AssignedToEmail, t.ListName, t.DueDate, t.Board})
		}
		return out
	case DomainCRM:
		out := make([][]string, 0, len(s.Customers))
		for _, c := range s.Customers {
			out = append(out, []string{c.ID, c.Name, c.AssignedToEmail, c.CustomerEmail, c.CustomerPhone, c.LastContactDate, c.ProductInterest, c.Status})
		}
		return out
	case DomainDirectory:
		out := make([][]string, 0, len(s.People))
		for _, p := range s.People {
			out = append(out, []string{p.Name, p.Email})
		}
		return out
	default:
		return nil
	}
}

// ReadDomainCSV parses one domain's table into the snapshot.
func ReadDomainCSV(s *Snapshot, d Domain, r io.Reader) error {
	if s == nil {
		return fmt.Errorf("sandbox: nil snapshot")
	}
	header, ok := csvHeaders[d]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDomain, d)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)
	records, err := cr.ReadAll()
	if err != nil {
		return fmt.Errorf("sandbox: read %s csv: %w", d, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("sandbox: %s csv: missing header", d)
	}
	for i, col := range records[0] {
		if col != header[i] {
			return fmt.Errorf("sandbox: %s csv: unexpected column %q (want %q)", d, col, header[i])
		}
	}

	for _, row := range records[1:] {
		switch d {
		case DomainCalendar:
			s.Events = append(s.Events, Event{ID: row[0], Name: row[1], ParticipantEmail: row[2], Start: row[3], Duration: row[4]})
		case DomainEmail:
			s.Emails = append(s.Emails, Email{ID: row[0], Folder: row[1], Address: row[2], Subject: row[3], SentDatetime: row[4], Body: row[5]})
		case DomainAnalytics:
			s.Visits = append(s.Visits, Visit{VisitorID: row[0], DateOfVisit: row[1], Duration: row[2], UserEngaged: row[3], TrafficSource: row[4]})
		case DomainProject:
			s.Tasks = append(s.Tasks, ProjectTask{ID: row[0], Name: row[1], AssignedToEmail: row[2], ListName: row[3], DueDate: row[4], Board: row[5]})
		case DomainCRM:
			s.Customers = append(s.Customers, Customer{ID: row[0], Name: row[1], AssignedToEmail: row[2], CustomerEmail: row[3], CustomerPhone: row[4], LastContactDate: row[5], ProductInterest: row[6], Status: row[7]})
		case DomainDirectory:
			s.People = append(s.People, Person{Name: row[0], Email: row[1]})
		}
	}
	return nil
}

// WriteSnapshot writes every domain table under dir.
func WriteSnapshot(s *Snapshot, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("sandbox: create dir: %w", err)
	}
	for _, d := range Domains() {
		if err := writeDomainFile(s, d, dir); err != nil {
			return err
		}
	}
	return nil
}

func writeDomainFile(s *Snapshot, d Domain, dir string) error {
	f, err := os.Create(DatabaseFile(dir, d))
	if err != nil {
		return fmt.Errorf("sandbox: create %s file: %w", d, err)
	}
	if err := WriteDomainCSV(s, d, f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("sandbox: close %s file: %w", d, err)
	}
	return nil
}

// LoadSnapshot reads every domain table from dir.
func LoadSnapshot(dir string) (*Snapshot, error) {
	s := &Snapshot{}
	for _, d := range Domains() {
		f, err := os.Open(DatabaseFile(dir, d))
		if err != nil {
			return nil, fmt.Errorf("sandbox: open %s file: %w", d, err)
		}
		err = ReadDomainCSV(s, d, f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}
