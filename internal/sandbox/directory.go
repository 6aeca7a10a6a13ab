package sandbox

import (
	"encoding/json"
	"fmt"
	"strings"
)

func directoryTools() []ToolSpec {
	return []ToolSpec{
		{
			Name:        "directory.find_email_address",
			Description: "Look up company email addresses matching a full or partial employee name.",
			InputSchema: objectSchema(map[string]any{
				"name": stringProp("full or partial employee name"),
			}, "name"),
		},
	}
}

func (s *Snapshot) executeDirectory(name string, args map[string]string) (string, error) {
	switch name {
	case "directory.find_email_address":
		query := strings.ToLower(arg(args, "name"))
		if query == "" {
			return "Name not provided.", nil
		}
		matches := make([]string, 0)
		for _, p := range s.People {
			if strings.Contains(strings.ToLower(p.Name), query) ||
				strings.Contains(strings.ToLower(p.Email), query) {
				matches = append(matches, p.Email)
			}
		}
		b, err := json.Marshal(matches)
		if err != nil {
			return "", fmt.Errorf("sandbox: marshal addresses: %w", err)
		}
		return string(b), nil

	default:
		return "", fmt.Errorf("sandbox: unknown tool %q", name)
	}
}
