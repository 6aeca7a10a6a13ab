package sandbox

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseDomain(t *testing.T) {
	tests := []struct {
		in      string
		want    Domain
		wantErr bool
	}{
		{"calendar", DomainCalendar, false},
		{" EMAIL ", DomainEmail, false},
		{"crm", DomainCRM, false},
		{"directory", DomainDirectory, false},
		{"calender", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDomain(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownDomain) {
					t.Fatalf("ParseDomain(%q) error = %v, want ErrUnknownDomain", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDomain(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseDomain(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := DefaultGenConfig(7)
	a := Generate(cfg)
	b := Generate(cfg)
	if !a.Equal(b) {
		t.Fatal("same seed produced different snapshots")
	}

	for _, d := range Domains() {
		var bufA, bufB bytes.Buffer
		if err := WriteDomainCSV(a, d, &bufA); err != nil {
			t.Fatalf("write %s: %v", d, err)
		}
		if err := WriteDomainCSV(b, d, &bufB); err != nil {
			t.Fatalf("write %s: %v", d, err)
		}
		if !bytes.Equal(bufA.Bytes(), bufB.Bytes()) {
			t.Errorf("%s: regenerated CSV differs", d)
		}
	}

	other := Generate(DefaultGenConfig(8))
	if a.Equal(other) {
		t.Error("different seeds produced identical snapshots")
	}
}

func TestGenerateCounts(t *testing.T) {
	s := Generate(GenConfig{Seed: 42, People: 6, Events: 3, Emails: 4, Visits: 10, Tasks: 5, Customers: 2})
	if got := len(s.People); got != 6 {
		t.Errorf("people = %d, want 6", got)
	}
	if got := len(s.Events); got != 3 {
		t.Errorf("events = %d, want 3", got)
	}
	for i, e := range s.Events {
		want := []string{"00000000", "00000001", "00000002"}[i]
		if e.ID != want {
			t.Errorf("event %d id = %q, want %q", i, e.ID, want)
		}
	}
	if got := len(s.Customers); got != 2 {
		t.Errorf("customers = %d, want 2", got)
	}
}

func TestGenerateReferentialConsistency(t *testing.T) {
	s := Generate(DefaultGenConfig(1))
	people := make(map[string]struct{}, len(s.People))
	for _, p := range s.People {
		people[p.Email] = struct{}{}
		if !strings.HasSuffix(p.Email, "@atlas.com") {
			t.Errorf("person email %q not a company address", p.Email)
		}
	}
	for _, e := range s.Events {
		if _, ok := people[e.ParticipantEmail]; !ok {
			t.Errorf("event %s participant %q not in directory", e.ID, e.ParticipantEmail)
		}
	}
	for _, task := range s.Tasks {
		if _, ok := people[task.AssignedToEmail]; !ok {
			t.Errorf("task %s assignee %q not in directory", task.ID, task.AssignedToEmail)
		}
	}
	for _, c := range s.Customers {
		if _, ok := people[c.AssignedToEmail]; !ok {
			t.Errorf("customer %s rep %q not in directory", c.ID, c.AssignedToEmail)
		}
		if !strings.HasSuffix(c.CustomerEmail, "@example.com") {
			t.Errorf("customer email %q not external", c.CustomerEmail)
		}
	}
}

func TestGenerateTrafficSourcesMatchPlotBuckets(t *testing.T) {
	buckets := make(map[string]struct{}, len(plotValues))
	for _, v := range plotValues {
		buckets[v] = struct{}{}
	}
	for _, src := range TrafficSources {
		bucket := "visits_" + strings.ReplaceAll(src, " ", "_")
		if _, ok := buckets[bucket]; !ok {
			t.Errorf("traffic source %q has no plot value bucket %q", src, bucket)
		}
	}

	valid := make(map[string]struct{}, len(TrafficSources))
	for _, src := range TrafficSources {
		valid[src] = struct{}{}
	}
	s := Generate(DefaultGenConfig(3))
	for _, v := range s.Visits {
		if _, ok := valid[v.TrafficSource]; !ok {
			t.Fatalf("visit %s has traffic source %q outside the taxonomy", v.VisitorID, v.TrafficSource)
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := Generate(DefaultGenConfig(3))
	if err := WriteSnapshot(s, dir); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	loaded, err := LoadSnapshot(dir)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if !s.Equal(loaded) {
		t.Fatal("snapshot changed across CSV round trip")
	}
}

func TestReadDomainCSVBadHeader(t *testing.T) {
	s := &Snapshot{}
	r := strings.NewReader("event_id,event_name,participant,event_start,duration\n")
	if err := ReadDomainCSV(s, DomainCalendar, r); err == nil {
		t.Fatal("expected header mismatch error")
	}
}

func TestCloneIsolation(t *testing.T) {
	s := Generate(GenConfig{Seed: 5, People: 4, Events: 2, Emails: 2, Visits: 2, Tasks: 2, Customers: 2})
	clone := s.Clone()
	if _, err := clone.Execute(Call{Tool: "calendar.delete_event", Args: map[string]string{"event_id": s.Events[0].ID}}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(s.Events) != 2 {
		t.Fatalf("original mutated: %d events", len(s.Events))
	}
	if len(clone.Events) != 1 {
		t.Fatalf("clone not mutated: %d events", len(clone.Events))
	}
	if s.Equal(clone) {
		t.Error("snapshots should differ after delete on clone")
	}
}

func TestDatabaseFile(t *testing.T) {
	got := DatabaseFile("data/sandbox", DomainCRM)
	want := filepath.Join("data", "sandbox", "crm.csv")
	if got != want {
		t.Errorf("DatabaseFile = %q, want %q", got, want)
	}
}
