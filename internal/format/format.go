// Package format normalizes LLM answers and splits them into titled
// sections keyed by Roman-numeral headers.
package format

import (
	"fmt"
	"regexp"
	"strings"

	"docanswer/internal/classify"
)

var (
	reExcessBlank = regexp.MustCompile(`\n{3,}`)
	reTrailingWS  = regexp.MustCompile(`[ \t]+\n`)
	reHeading     = regexp.MustCompile(`(#+[^\n]+)\n([^\n])`)
	// Roman-numeral section prefix at line start, I. through X.
	reRomanPrefix  = regexp.MustCompile(`^(?:I{1,3}|IV|V|VI{0,3}|IX|X)\.\s`)
	reRomanSection = regexp.MustCompile(`(?m)^(?:I{1,3}|IV|V|VI{0,3}|IX|X)\.\s+[^\n]+`)
)

// Intent groups for the conditional enhancement passes.
var (
	tableIntents = map[classify.Intent]bool{
		classify.IntentObjective:  true,
		classify.IntentResults:    true,
		classify.IntentComparison: true,
		classify.IntentPlan:       true,
	}
	structuredIntents = map[classify.Intent]bool{
		classify.IntentSummary:     true,
		classify.IntentHowTo:       true,
		classify.IntentObstacles:   true,
		classify.IntentSuggestions: true,
	}
)

// Format normalizes an answer for the given intent. Applying it to its
// own output is a no-op, so double formatting is safe.
func Format(answer string, intent classify.Intent) string {
	text := answer
	if tableIntents[intent] {
		text = ensureTableSpacing(text)
	}
	if structuredIntents[intent] {
		text = ensureSectionSpacing(text)
	}
	return clean(text)
}

// clean collapses runs of blank lines, strips trailing whitespace before
// line breaks and guarantees a blank line after markdown headings.
func clean(text string) string {
	text = reTrailingWS.ReplaceAllString(text, "\n")
	text = reExcessBlank.ReplaceAllString(text, "\n\n")
	text = reHeading.ReplaceAllString(text, "$1\n\n$2")
	return strings.TrimSpace(text)
}

// ensureTableSpacing puts a blank line before and after each markdown
// table block. Rows inside a block are left untouched.
func ensureTableSpacing(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	prev := ""
	first := true
	for _, ln := range lines {
		isRow := strings.HasPrefix(strings.TrimSpace(ln), "|")
		wasRow := strings.HasPrefix(strings.TrimSpace(prev), "|")
		if !first && prev != "" {
			if (isRow && !wasRow) || (!isRow && wasRow && ln != "") {
				out = append(out, "")
			}
		}
		out = append(out, ln)
		prev = ln
		first = false
	}
	return strings.Join(out, "\n")
}

// ensureSectionSpacing puts a blank line before every Roman-numeral
// section marker that starts a line.
func ensureSectionSpacing(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for i, ln := range lines {
		if i > 0 && lines[i-1] != "" && reRomanPrefix.MatchString(ln) {
			out = append(out, "")
		}
		out = append(out, ln)
	}
	return strings.Join(out, "\n")
}

// Section is one titled block of a structured answer.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Structured is an answer decomposed by section headers. Text outside any
// header is not listed as a section but stays available in FullText.
type Structured struct {
	Intent   classify.Intent `json:"question_type"`
	Info     Info            `json:"format_info"`
	Sections []Section       `json:"sections"`
	FullText string          `json:"full_text"`
}

// ToStructured splits text on Roman-numeral section headers, preserving
// document order.
func ToStructured(text string, intent classify.Intent) Structured {
	idx := reRomanSection.FindAllStringIndex(text, -1)
	sections := make([]Section, 0, len(idx))
	for i, loc := range idx {
		end := len(text)
		if i+1 < len(idx) {
			end = idx[i+1][0]
		}
		sections = append(sections, Section{
			Title:   strings.TrimSpace(text[loc[0]:loc[1]]),
			Content: strings.TrimSpace(text[loc[1]:end]),
		})
	}
	return Structured{
		Intent:   intent,
		Info:     InfoFor(intent),
		Sections: sections,
		FullText: text,
	}
}

// Info is the format metadata reported back to callers.
type Info struct {
	StructureType   string `json:"structure_type"`
	HasTables       bool   `json:"has_tables"`
	NumberingStyle  string `json:"numbering_style"`
	Sections        string `json:"sections"`
	EstimatedLength string `json:"estimated_length"`
}

var structureTypes = map[classify.Intent]string{
	classify.IntentSummary:      "hierarchical",
	classify.IntentObjective:    "mixed",
	classify.IntentHowTo:        "hierarchical",
	classify.IntentPlan:         "table-based",
	classify.IntentObstacles:    "hierarchical",
	classify.IntentResults:      "mixed",
	classify.IntentComparison:   "table-based",
	classify.IntentSuggestions:  "hierarchical",
	classify.IntentImpact:       "mixed",
	classify.IntentAlternatives: "comparative",
}

// InfoFor derives the reported format metadata from the intent's template.
func InfoFor(intent classify.Intent) Info {
	tpl := classify.TemplateFor(intent)
	st, ok := structureTypes[intent]
	if !ok {
		st = structureTypes[classify.IntentSummary]
	}
	return Info{
		StructureType:   st,
		HasTables:       tpl.IncludeTables,
		NumberingStyle:  tpl.Numbering,
		Sections:        fmt.Sprintf("%d-%d", tpl.SectionsMin, tpl.SectionsMax),
		EstimatedLength: fmt.Sprintf("%d-%d words", tpl.MinWords, tpl.MaxWords),
	}
}
