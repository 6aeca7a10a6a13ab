package sandbox

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ToolSpec describes one callable tool in a catalog.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Call is a single tool invocation. Argument values are strings on the wire,
// matching the all-strings record model.
type Call struct {
	Tool string            `yaml:"tool" json:"tool"`
	Args map[string]string `yaml:"args,omitempty" json:"args,omitempty"`
}

// String renders the call in a stable name(k="v", ...) form for logs and
// error output.
func (c Call) String() string {
	keys := make([]string, 0, len(c.Args))
	for k := range c.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, c.Args[k]))
	}
	return c.Tool + "(" + strings.Join(parts, ", ") + ")"
}

// sideEffectTools mutate snapshot state. Read-only tools are excluded from
// exact-match scoring and from ground-truth action sequences.
var sideEffectTools = map[string]struct{}{
	"calendar.create_event": {},
	"calendar.delete_event": {},
	"calendar.update_event": {},
	"email.send_email":      {},
	"email.delete_email":    {},
	"email.forward_email":   {},
	"email.reply_email":     {},
	"analytics.create_plot": {},
	"project.create_task":   {},
	"project.delete_task":   {},
	"project.update_task":   {},
	"crm.add_customer":      {},
	"crm.update_customer":   {},
	"crm.delete_customer":   {},
}

// SideEffecting reports whether a tool mutates state.
func SideEffecting(tool string) bool {
	_, ok := sideEffectTools[strings.TrimSpace(tool)]
	return ok
}

// Catalog returns the tool specs for the given domains. The directory
// catalog is always appended so models can resolve names to addresses.
func Catalog(domains []Domain) []ToolSpec {
	var out []ToolSpec
	seen := make(map[Domain]struct{}, len(domains)+1)
	for _, d := range domains {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, domainTools(d)...)
	}
	if _, ok := seen[DomainDirectory]; !ok {
		out = append(out, domainTools(DomainDirectory)...)
	}
	return out
}

// AllCatalog returns every tool across every domain.
func AllCatalog() []ToolSpec {
	return Catalog(Domains())
}

func domainTools(d Domain) []ToolSpec {
	switch d {
	case DomainCalendar:
		return calendarTools()
	case DomainEmail:
		return emailTools()
	case DomainAnalytics:
		return analyticsTools()
	case DomainProject:
		return projectTools()
	case DomainCRM:
		return crmTools()
	case DomainDirectory:
		return directoryTools()
	default:
		return nil
	}
}

// Execute runs one tool call against the snapshot, mutating it in place for
// side-effecting tools. Domain-level problems (missing record, bad field)
// are reported in-band as the returned string, the way a real tool backend
// would answer the model; the error return is reserved for unknown tools.
func (s *Snapshot) Execute(c Call) (string, error) {
	if s == nil {
		return "", fmt.Errorf("sandbox: execute on nil snapshot")
	}
	name := strings.TrimSpace(c.Tool)
	dom, _, ok := strings.Cut(name, ".")
	if !ok {
		return "", fmt.Errorf("sandbox: malformed tool name %q", c.Tool)
	}
	switch Domain(dom) {
	case DomainCalendar:
		return s.executeCalendar(name, c.Args)
	case DomainEmail:
		return s.executeEmail(name, c.Args)
	case DomainAnalytics:
		return s.executeAnalytics(name, c.Args)
	case DomainProject:
		return s.executeProject(name, c.Args)
	case DomainCRM:
		return s.executeCRM(name, c.Args)
	case DomainDirectory:
		return s.executeDirectory(name, c.Args)
	default:
		return "", fmt.Errorf("sandbox: unknown tool %q", c.Tool)
	}
}

// Replay executes a sequence of calls, ignoring in-band tool messages, and
// reports the first hard failure.
func (s *Snapshot) Replay(calls []Call) error {
	for _, c := range calls {
		if _, err := s.Execute(c); err != nil {
			return err
		}
	}
	return nil
}

func arg(args map[string]string, key string) string {
	return strings.TrimSpace(args[key])
}

func marshalRecords(records []map[string]string) string {
	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Sprintf("marshal error: %v", err)
	}
	return string(b)
}

func marshalRecord(record map[string]string) string {
	b, err := json.Marshal(record)
	if err != nil {
		return fmt.Sprintf("marshal error: %v", err)
	}
	return string(b)
}

// nextID allocates the next zero-padded 8-digit identifier after max(ids).
func nextID(ids []string) string {
	max := -1
	for _, id := range ids {
		n := 0
		valid := len(id) > 0
		for _, r := range id {
			if r < '0' || r > '9' {
				valid = false
				break
			}
			n = n*10 + int(r-'0')
		}
		if valid && n > max {
			max = n
		}
	}
	return fmt.Sprintf("%08d", max+1)
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}
