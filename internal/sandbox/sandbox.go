// Package sandbox implements the simulated tool domains: deterministic
// mocked databases, their tool catalogs, and an in-process executor that
// serves as the ground-truth oracle for task generation and metrics.
package sandbox

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Domain identifies one sandbox category.
type Domain string

const (
	DomainCalendar  Domain = "calendar"
	DomainEmail     Domain = "email"
	DomainAnalytics Domain = "analytics"
	DomainProject   Domain = "project"
	DomainCRM       Domain = "crm"
	DomainDirectory Domain = "directory"
)

// ErrUnknownDomain reports an unrecognized domain identifier.
var ErrUnknownDomain = errors.New("sandbox: unknown domain")

// Domains returns all domains in canonical order. The directory domain is
// last because it is read-only and always included in tool catalogs.
func Domains() []Domain {
	return []Domain{
		DomainCalendar,
		DomainEmail,
		DomainAnalytics,
		DomainProject,
		DomainCRM,
		DomainDirectory,
	}
}

// TaskDomains returns the domains that produce task files. The directory is
// excluded: its single read-only tool is exercised through the other domains.
func TaskDomains() []Domain {
	return []Domain{
		DomainCalendar,
		DomainEmail,
		DomainAnalytics,
		DomainProject,
		DomainCRM,
	}
}

// ParseDomain validates a domain identifier.
func ParseDomain(s string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Domains() {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDomain, s)
}

// CurrentTime is the fixed simulated clock. Relative-date queries
// ("tomorrow", "next week") resolve against it so regenerated tasks stay
// reproducible.
var CurrentTime = time.Date(2023, time.November, 30, 9, 0, 0, 0, time.UTC)

const (
	// DateTimeLayout is the wire format for timestamps in every domain.
	DateTimeLayout = "2006-01-02 15:04:05"
	// DateLayout is the wire format for date-only fields.
	DateLayout = "2006-01-02"
)

// Snapshot is the full mocked world state. Generation fills every table from
// one seed so that cross-domain references (participants, assignees, owners)
// stay consistent. A Snapshot handed to task generation or metrics is treated
// as immutable; tool execution happens on a Clone.
type Snapshot struct {
	People    []Person
	Events    []Event
	Emails    []Email
	Visits    []Visit
	Plots     []Plot
	Tasks     []ProjectTask
	Customers []Customer
}

// Person is a company directory entry.
type Person struct {
	Name  string
	Email string
}

// Event is a calendar entry.
type Event struct {
	ID               string
	Name             string
	ParticipantEmail string
	Start            string // DateTimeLayout
	Duration         string // minutes
}

// Email is a mailbox entry. Folder is "inbox" or "outbox"; Address is the
// sender for inbox mail and the recipient for outbox mail.
type Email struct {
	ID           string
	Folder       string
	Address      string
	Subject      string
	SentDatetime string // DateTimeLayout
	Body         string
}

// Visit is a web analytics record.
type Visit struct {
	VisitorID     string
	DateOfVisit   string // DateLayout
	Duration      string // seconds
	UserEngaged   string // "True" or "False"
	TrafficSource string
}

// Plot records a chart produced by analytics.create_plot.
type Plot struct {
	FilePath string
}

// ProjectTask is a project management board entry.
type ProjectTask struct {
	ID              string
	Name            string
	AssignedToEmail string
	ListName        string
	DueDate         string // DateLayout
	Board           string
}

// Customer is a CRM record.
type Customer struct {
	ID              string
	Name            string
	AssignedToEmail string
	CustomerEmail   string
	CustomerPhone   string
	LastContactDate string // DateLayout
	ProductInterest string
	Status          string
}

// Clone deep-copies the snapshot so tool execution cannot touch the original.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		People:    append([]Person(nil), s.People...),
		Events:    append([]Event(nil), s.Events...),
		Emails:    append([]Email(nil), s.Emails...),
		Visits:    append([]Visit(nil), s.Visits...),
		Plots:     append([]Plot(nil), s.Plots...),
		Tasks:     append([]ProjectTask(nil), s.Tasks...),
		Customers: append([]Customer(nil), s.Customers...),
	}
	return out
}

// Equal compares two snapshots field by field. Comparison is
// case-insensitive except for status, list_name, and board, where casing is
// meaningful.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.People) != len(other.People) ||
		len(s.Events) != len(other.Events) ||
		len(s.Emails) != len(other.Emails) ||
		len(s.Visits) != len(other.Visits) ||
		len(s.Plots) != len(other.Plots) ||
		len(s.Tasks) != len(other.Tasks) ||
		len(s.Customers) != len(other.Customers) {
		return false
	}
	for i := range s.People {
		if !strings.EqualFold(s.People[i].Name, other.People[i].Name) ||
			!strings.EqualFold(s.People[i].Email, other.People[i].Email) {
			return false
		}
	}
	for i := range s.Events {
		a, b := s.Events[i], other.Events[i]
		if a.ID != b.ID ||
			!strings.EqualFold(a.Name, b.Name) ||
			!strings.EqualFold(a.ParticipantEmail, b.ParticipantEmail) ||
			a.Start != b.Start ||
			a.Duration != b.Duration {
			return false
		}
	}
	for i := range s.Emails {
		a, b := s.Emails[i], other.Emails[i]
		if a.ID != b.ID ||
			!strings.EqualFold(a.Folder, b.Folder) ||
			!strings.EqualFold(a.Address, b.Address) ||
			!strings.EqualFold(a.Subject, b.Subject) ||
			a.SentDatetime != b.SentDatetime ||
			!strings.EqualFold(a.Body, b.Body) {
			return false
		}
	}
	for i := range s.Visits {
		if s.Visits[i] != other.Visits[i] {
			return false
		}
	}
	for i := range s.Plots {
		if !strings.EqualFold(s.Plots[i].FilePath, other.Plots[i].FilePath) {
			return false
		}
	}
	for i := range s.Tasks {
		a, b := s.Tasks[i], other.Tasks[i]
		if a.ID != b.ID ||
			!strings.EqualFold(a.Name, b.Name) ||
			!strings.EqualFold(a.AssignedToEmail, b.AssignedToEmail) ||
			a.ListName != b.ListName ||
			a.DueDate != b.DueDate ||
			a.Board != b.Board {
			return false
		}
	}
	for i := range s.Customers {
		a, b := s.Customers[i], other.Customers[i]
		if a.ID != b.ID ||
			!strings.EqualFold(a.Name, b.Name) ||
			!strings.EqualFold(a.AssignedToEmail, b.AssignedToEmail) ||
			!strings.EqualFold(a.CustomerEmail, b.CustomerEmail) ||
			a.CustomerPhone != b.CustomerPhone ||
			a.LastContactDate != b.LastContactDate ||
			!strings.EqualFold(a.ProductInterest, b.ProductInterest) ||
			a.Status != b.Status {
			return false
		}
	}
	return true
}
