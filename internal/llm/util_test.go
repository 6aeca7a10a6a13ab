package llm

import "testing"

func TestText(t *testing.T) {
	t.Parallel()

	if got := Text(nil); got != "" {
		t.Fatalf("Text(nil): got %q want %q", got, "")
	}

	resp := &Response{
		Content: []ContentBlock{
			{Type: "tool_use", Text: "ignored"},
			{Type: "text", Text: "a"},
			{Type: "text", Text: "b"},
			{Type: "tool_use", Text: "ignored2"},
		},
	}
	if got := Text(resp); got != "ab" {
		t.Fatalf("Text(resp): got %q want %q", got, "ab")
	}
}
