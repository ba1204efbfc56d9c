package domain

import "testing"

func TestParseStatus(t *testing.T) {
	valid := []string{"to-do", "in-progress", "review", "done"}
	for _, raw := range valid {
		if _, err := ParseStatus(raw); err != nil {
			t.Fatalf("ParseStatus(%q): %v", raw, err)
		}
	}

	invalid := []string{"", "todo", "high", "Done", "archived"}
	for _, raw := range invalid {
		if _, err := ParseStatus(raw); err == nil {
			t.Fatalf("ParseStatus(%q) accepted an invalid status", raw)
		}
	}
}

func TestParsePriority(t *testing.T) {
	valid := []string{"low", "medium", "high"}
	for _, raw := range valid {
		if _, err := ParsePriority(raw); err != nil {
			t.Fatalf("ParsePriority(%q): %v", raw, err)
		}
	}

	invalid := []string{"", "urgent", "to-do", "High"}
	for _, raw := range invalid {
		if _, err := ParsePriority(raw); err == nil {
			t.Fatalf("ParsePriority(%q) accepted an invalid priority", raw)
		}
	}
}
