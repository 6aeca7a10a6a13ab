package sandbox

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// GenConfig controls snapshot generation. The same config always produces
// the same snapshot.
type GenConfig struct {
	Seed      int64 `yaml:"seed"`
	People    int   `yaml:"people,omitempty"`
	Events    int   `yaml:"events,omitempty"`
	Emails    int   `yaml:"emails,omitempty"`
	Visits    int   `yaml:"visits,omitempty"`
	Tasks     int   `yaml:"tasks,omitempty"`
	Customers int   `yaml:"customers,omitempty"`
}

// DefaultGenConfig returns generation counts sized for a full benchmark run.
func DefaultGenConfig(seed int64) GenConfig {
	return GenConfig{
		Seed:      seed,
		People:    12,
		Events:    40,
		Emails:    60,
		Visits:    200,
		Tasks:     35,
		Customers: 30,
	}
}

var firstNames = []string{
	"Sam", "Lena", "Marcus", "Priya", "Diego", "Hana", "Oliver", "Nadia",
	"Tomas", "Grace", "Felix", "Aisha", "Victor", "Mei", "Jonas", "Carla",
}

var lastNames = []string{
	"Reed", "Okafor", "Lindqvist", "Sharma", "Mendez", "Sato", "Brandt",
	"Petrov", "Kowalski", "Hughes", "Moreau", "Iqbal", "Tanaka", "Silva",
}

var meetingTopics = []string{
	"1:1", "Sprint planning", "Design review", "Product sync", "Retro",
	"Quarterly review", "Budget check-in", "Hiring sync", "Roadmap review",
	"Demo prep", "Customer call", "Onboarding session",
}

var emailSubjects = []string{
	"Quick question", "Follow up", "Meeting notes", "Next steps",
	"Project update", "Invoice attached", "Feedback request", "Schedule change",
	"Weekly summary", "Action items", "Draft for review", "Reminder",
}

var emailBodies = []string{
	"Hi, just checking in on this. Let me know where things stand.",
	"Please find the latest version attached. Comments welcome.",
	"Can we move our discussion to later this week?",
	"Thanks for the update. I'll review and get back to you.",
	"Sharing the notes from today's session.",
	"Could you send over the figures before Friday?",
}

// TrafficSources are the valid visit origins. Each maps to a plot value
// bucket ("visits_" plus the source with spaces underscored).
var TrafficSources = []string{"direct", "referral", "search engine", "social media"}

var projectTaskNames = []string{
	"Fix login redirect", "Update landing page copy", "Migrate billing service",
	"Refactor search index", "Add export to CSV", "Improve error pages",
	"Upgrade payment SDK", "Write onboarding docs", "Tune query cache",
	"Redesign settings screen", "Add audit logging", "Fix mobile layout",
	"Instrument checkout funnel", "Clean up feature flags",
}

// ProjectLists are the valid board columns, in workflow order.
var ProjectLists = []string{"Backlog", "In Progress", "In Review", "Completed"}

// ProjectBoards are the valid boards.
var ProjectBoards = []string{"Front end", "Back end", "Design"}

// CRMStatuses are the valid customer pipeline stages.
var CRMStatuses = []string{"Lead", "Qualified", "Proposal", "Won", "Lost"}

// CRMProducts are the valid product interest categories.
var CRMProducts = []string{"Software", "Hardware", "Services", "Consulting", "Training"}

var customerFirstNames = []string{
	"Ana", "Bruno", "Chen", "Dina", "Emil", "Farah", "Gustav", "Ines",
	"Khalid", "Lotte", "Mateo", "Noor", "Petra", "Ravi", "Sofia", "Yusuf",
}

var customerLastNames = []string{
	"Almeida", "Bergstrom", "Costa", "Dubois", "Eriksen", "Fischer",
	"Gallo", "Haddad", "Jensen", "Keller", "Larsen", "Novak", "Ortiz", "Weiss",
}

// Generate builds the full mocked world state from one seed. All randomness
// flows through a single rand.Rand so regenerating with the same config
// yields an identical snapshot.
func Generate(cfg GenConfig) *Snapshot {
	cfg = mergeDefaults(cfg)
	rng := rand.New(rand.NewSource(cfg.Seed))
	s := &Snapshot{}
	s.People = generatePeople(rng, cfg.People)
	s.Events = generateEvents(rng, cfg.Events, s.People)
	s.Emails = generateEmails(rng, cfg.Emails, s.People)
	s.Visits = generateVisits(rng, cfg.Visits)
	s.Tasks = generateTasks(rng, cfg.Tasks, s.People)
	s.Customers = generateCustomers(rng, cfg.Customers, s.People)
	return s
}

func mergeDefaults(cfg GenConfig) GenConfig {
	def := DefaultGenConfig(cfg.Seed)
	if cfg.People > 0 {
		def.People = cfg.People
	}
	if cfg.Events > 0 {
		def.Events = cfg.Events
	}
	if cfg.Emails > 0 {
		def.Emails = cfg.Emails
	}
	if cfg.Visits > 0 {
		def.Visits = cfg.Visits
	}
	if cfg.Tasks > 0 {
		def.Tasks = cfg.Tasks
	}
	if cfg.Customers > 0 {
		def.Customers = cfg.Customers
	}
	return def
}

func generatePeople(rng *rand.Rand, n int) []Person {
	seen := make(map[string]struct{}, n)
	out := make([]Person, 0, n)
	for len(out) < n {
		first := firstNames[rng.Intn(len(firstNames))]
		last := lastNames[rng.Intn(len(lastNames))]
		name := first + " " + last
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		email := strings.ToLower(first) + "." + strings.ToLower(last) + "@atlas.com"
		out = append(out, Person{Name: name, Email: email})
	}
	return out
}

func generateEvents(rng *rand.Rand, n int, people []Person) []Event {
	durations := []string{"30", "60", "90", "120"}
	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		p := people[rng.Intn(len(people))]
		// Business-hours start within five weeks around the simulated clock.
		dayOffset := rng.Intn(35) - 21
		day := CurrentTime.AddDate(0, 0, dayOffset)
		hour := 9 + rng.Intn(8)
		minute := 30 * rng.Intn(2)
		start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
		out = append(out, Event{
			ID:               fmt.Sprintf("%08d", i),
			Name:             meetingTopics[rng.Intn(len(meetingTopics))] + " with " + firstName(p.Name),
			ParticipantEmail: p.Email,
			Start:            start.Format(DateTimeLayout),
			Duration:         durations[rng.Intn(len(durations))],
		})
	}
	return out
}

func generateEmails(rng *rand.Rand, n int, people []Person) []Email {
	out := make([]Email, 0, n)
	for i := 0; i < n; i++ {
		p := people[rng.Intn(len(people))]
		dayOffset := rng.Intn(28)
		sent := CurrentTime.AddDate(0, 0, -dayOffset).
			Add(-time.Duration(rng.Intn(10)) * time.Hour).
			Add(-time.Duration(rng.Intn(60)) * time.Minute)
		out = append(out, Email{
			ID:           fmt.Sprintf("%08d", i),
			Folder:       "inbox",
			Address:      p.Email,
			Subject:      emailSubjects[rng.Intn(len(emailSubjects))],
			SentDatetime: sent.Format(DateTimeLayout),
			Body:         emailBodies[rng.Intn(len(emailBodies))],
		})
	}
	return out
}

func generateVisits(rng *rand.Rand, n int) []Visit {
	out := make([]Visit, 0, n)
	for i := 0; i < n; i++ {
		dayOffset := rng.Intn(60)
		date := CurrentTime.AddDate(0, 0, -dayOffset)
		engaged := "False"
		if rng.Intn(100) < 35 {
			engaged = "True"
		}
		out = append(out, Visit{
			VisitorID:     fmt.Sprintf("%08d", i),
			DateOfVisit:   date.Format(DateLayout),
			Duration:      fmt.Sprintf("%d", 10+rng.Intn(590)),
			UserEngaged:   engaged,
			TrafficSource: TrafficSources[rng.Intn(len(TrafficSources))],
		})
	}
	return out
}

func generateTasks(rng *rand.Rand, n int, people []Person) []ProjectTask {
	out := make([]ProjectTask, 0, n)
	for i := 0; i < n; i++ {
		p := people[rng.Intn(len(people))]
		due := CurrentTime.AddDate(0, 0, rng.Intn(30)-7)
		out = append(out, ProjectTask{
			ID:              fmt.Sprintf("%08d", i),
			Name:            projectTaskNames[rng.Intn(len(projectTaskNames))],
			AssignedToEmail: p.Email,
			ListName:        ProjectLists[rng.Intn(len(ProjectLists))],
			DueDate:         due.Format(DateLayout),
			Board:           ProjectBoards[rng.Intn(len(ProjectBoards))],
		})
	}
	return out
}

func generateCustomers(rng *rand.Rand, n int, people []Person) []Customer {
	seen := make(map[string]struct{}, n)
	out := make([]Customer, 0, n)
	for len(out) < n {
		first := customerFirstNames[rng.Intn(len(customerFirstNames))]
		last := customerLastNames[rng.Intn(len(customerLastNames))]
		name := first + " " + last
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		rep := people[rng.Intn(len(people))]
		contact := CurrentTime.AddDate(0, 0, -rng.Intn(90))
		out = append(out, Customer{
			ID:              fmt.Sprintf("%08d", len(out)),
			Name:            name,
			AssignedToEmail: rep.Email,
			CustomerEmail:   strings.ToLower(first) + "." + strings.ToLower(last) + "@example.com",
			CustomerPhone:   fmt.Sprintf("555-%04d", rng.Intn(10000)),
			LastContactDate: contact.Format(DateLayout),
			ProductInterest: CRMProducts[rng.Intn(len(CRMProducts))],
			Status:          CRMStatuses[rng.Intn(len(CRMStatuses))],
		})
	}
	return out
}

func firstName(full string) string {
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i]
	}
	return full
}
