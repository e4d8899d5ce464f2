package format

import (
	"strings"
	"testing"

	"docanswer/internal/classify"
)

func TestFormatCollapsesBlankRuns(t *testing.T) {
	in := "first\n\n\n\nsecond"
	got := Format(in, classify.IntentImpact)
	if got != "first\n\nsecond" {
		t.Errorf("got %q", got)
	}
}

func TestFormatStripsTrailingWhitespace(t *testing.T) {
	in := "line one   \nline two\t\n"
	got := Format(in, classify.IntentImpact)
	if got != "line one\nline two" {
		t.Errorf("got %q", got)
	}
}

func TestFormatHeadingSpacing(t *testing.T) {
	in := "### Heading\nbody text"
	got := Format(in, classify.IntentImpact)
	if got != "### Heading\n\nbody text" {
		t.Errorf("got %q", got)
	}
}

func TestFormatTableSpacing(t *testing.T) {
	in := "intro line\n| A | B |\n|---|---|\n| 1 | 2 |\ntrailing text"
	got := Format(in, classify.IntentObjective)
	if !strings.Contains(got, "intro line\n\n| A | B |") {
		t.Errorf("missing blank line before table:\n%s", got)
	}
	if !strings.Contains(got, "| 1 | 2 |\n\ntrailing text") {
		t.Errorf("missing blank line after table:\n%s", got)
	}
	if !strings.Contains(got, "| A | B |\n|---|---|\n| 1 | 2 |") {
		t.Errorf("table rows were split apart:\n%s", got)
	}
}

func TestFormatSectionSpacing(t *testing.T) {
	in := "I. Phần mở đầu\nnội dung\nII. Phần chính\nnội dung nữa"
	got := Format(in, classify.IntentSummary)
	if !strings.Contains(got, "nội dung\n\nII. Phần chính") {
		t.Errorf("missing blank line before section:\n%s", got)
	}
}

func TestFormatIdempotent(t *testing.T) {
	fixtures := map[classify.Intent]string{
		classify.IntentSummary:   "I. One\ntext\nII. Two\nmore   \n\n\n\ntail",
		classify.IntentObjective: "lead\n| x | y |\n| 1 | 2 |\nafter\n### H\nbody",
		classify.IntentPlan:      "| Task | Timeline |\n| a | b |\nnotes",
		classify.IntentImpact:    "plain\n\n\n\ntext\n",
	}
	for intent, in := range fixtures {
		once := Format(in, intent)
		twice := Format(once, intent)
		if once != twice {
			t.Errorf("%s: not idempotent\nonce:  %q\ntwice: %q", intent, once, twice)
		}
	}
}

func TestToStructured(t *testing.T) {
	text := "I. Tổng quan\nNội dung thứ nhất.\n\nII. Chi tiết\nNội dung thứ hai."
	got := ToStructured(text, classify.IntentSummary)
	if len(got.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(got.Sections))
	}
	if got.Sections[0].Title != "I. Tổng quan" {
		t.Errorf("title[0] = %q", got.Sections[0].Title)
	}
	if got.Sections[0].Content != "Nội dung thứ nhất." {
		t.Errorf("content[0] = %q", got.Sections[0].Content)
	}
	if got.Sections[1].Title != "II. Chi tiết" {
		t.Errorf("title[1] = %q", got.Sections[1].Title)
	}
	if got.FullText != text {
		t.Errorf("full text changed")
	}
	if got.Intent != classify.IntentSummary {
		t.Errorf("intent = %q", got.Intent)
	}
}

func TestToStructuredNoHeaders(t *testing.T) {
	got := ToStructured("just a flat paragraph", classify.IntentSummary)
	if len(got.Sections) != 0 {
		t.Errorf("sections = %d, want 0", len(got.Sections))
	}
	if got.FullText != "just a flat paragraph" {
		t.Errorf("full text = %q", got.FullText)
	}
}

func TestInfoFor(t *testing.T) {
	info := InfoFor(classify.IntentPlan)
	if !info.HasTables {
		t.Errorf("plan info should report tables: %+v", info)
	}
	if info.StructureType != "table-based" {
		t.Errorf("structure type = %q", info.StructureType)
	}
	if info.Sections == "" || info.EstimatedLength == "" {
		t.Errorf("incomplete info: %+v", info)
	}

	unknown := InfoFor(classify.Intent("nonexistent"))
	if unknown.StructureType != "hierarchical" {
		t.Errorf("unknown intent should fall back to summary structure, got %+v", unknown)
	}
}
