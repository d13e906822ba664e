package prompt

import (
	"strings"
	"testing"
)

func TestBuildFieldOrderIsFixed(t *testing.T) {
	summary := "• Age: 32 years old\n• Sex: female\n• Medical History: none"
	context := "Chunk one.\n\nChunk two."

	got := NewBuilder(summary, context).Build()

	markers := []string{
		"PATIENT INFORMATION:",
		"• Age: 32 years old",
		"RELEVANT MEDICAL KNOWLEDGE FROM DATABASE:",
		"Chunk one.",
		"CLINICAL SUMMARY:",
		"DIFFERENTIAL DIAGNOSIS:",
		"URGENCY ASSESSMENT:",
		"CLINICAL RECOMMENDATIONS:",
		"Red Flag Warning Signs:",
		"FOLLOW-UP RECOMMENDATIONS:",
		"MEDICAL DISCLAIMER:",
	}

	last := -1
	for _, m := range markers {
		idx := strings.Index(got, m)
		if idx < 0 {
			t.Fatalf("prompt missing %q", m)
		}
		if idx < last {
			t.Errorf("%q appears out of order", m)
		}
		last = idx
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	a := NewBuilder("summary", "context").Build()
	b := NewBuilder("summary", "context").Build()
	if a != b {
		t.Error("identical inputs produced different prompts")
	}
}

func TestBuildEmptyContextPlaceholder(t *testing.T) {
	got := NewBuilder("summary", "").Build()
	if !strings.Contains(got, "No relevant documents found in the knowledge base.") {
		t.Error("empty context should carry an explicit placeholder")
	}
}

func TestBuildUrgencyTiers(t *testing.T) {
	got := NewBuilder("summary", "context").Build()
	for _, tier := range []string{"EMERGENT", "URGENT", "SEMI-URGENT", "NON-URGENT"} {
		if !strings.Contains(got, tier) {
			t.Errorf("prompt missing urgency tier %q", tier)
		}
	}
}

func TestQuestionBuilder(t *testing.T) {
	got := NewQuestionBuilder("lab results text", "What was my cholesterol?").Build()
	ctxIdx := strings.Index(got, "lab results text")
	qIdx := strings.Index(got, "What was my cholesterol?")
	if ctxIdx < 0 || qIdx < 0 {
		t.Fatalf("prompt missing context or question: %q", got)
	}
	if ctxIdx > qIdx {
		t.Error("context must precede the question")
	}
}
