package assets

import (
	"strings"
	"testing"
)

func TestQuotes_SkipsCommentsAndBlanks(t *testing.T) {
	qs := Quotes()
	if len(qs) == 0 {
		t.Fatalf("expected embedded quotes")
	}
	for _, q := range qs {
		if q == "" || strings.HasPrefix(q, "#") {
			t.Fatalf("unexpected entry %q", q)
		}
	}
}

func TestReminderText_NotEmpty(t *testing.T) {
	if !strings.Contains(ReminderText(), "meditation") {
		t.Fatalf("reminder text should mention meditation: %q", ReminderText())
	}
}
