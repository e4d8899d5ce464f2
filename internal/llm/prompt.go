package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"docanswer/internal/classify"
)

// TruncationMarker is appended when document text is cut at the ceiling.
const TruncationMarker = "\n\n[... document continues ...]"

const systemPreamble = `You are an expert analyst of Vietnamese organizational and government documents.

TASK: Answer the question using only the content of the provided document.

FORMAT REQUIREMENTS:
`

// BuildPrompt renders the intent's template into natural-language format
// directives and lays out the user payload. The rendering is a direct,
// deterministic mapping of template fields, not free text.
func BuildPrompt(docText, question string, intent classify.Intent, maxDocChars int) Prompt {
	tpl := classify.TemplateFor(intent)

	var sys strings.Builder
	sys.WriteString(systemPreamble)
	fmt.Fprintf(&sys, "- Structure: %s\n", strings.Join(tpl.Structure, " + "))
	fmt.Fprintf(&sys, "- Use %d to %d main sections\n", tpl.SectionsMin, tpl.SectionsMax)
	switch tpl.Numbering {
	case "roman":
		sys.WriteString("- Number main sections with Roman numerals (I, II, III...)\n")
	case "arabic":
		sys.WriteString("- Number main sections with Arabic numerals (1, 2, 3...)\n")
	case "phases":
		sys.WriteString("- Group the content into phases ordered by time\n")
	case "ranking":
		sys.WriteString("- Present a ranking with a clear conclusion\n")
	}
	if tpl.IncludeTables {
		sys.WriteString("- Use Markdown tables for quantitative data and highlight key figures\n")
		if len(tpl.TableColumns) > 0 {
			fmt.Fprintf(&sys, "- Table columns: %s\n", strings.Join(tpl.TableColumns, ", "))
		}
	} else {
		sys.WriteString("- Use clear headings (###) and 3-6 bullets per section\n")
	}
	fmt.Fprintf(&sys, "- Target length: %d-%d words\n", tpl.MinWords, tpl.MaxWords)

	user := fmt.Sprintf(`DOCUMENT CONTENT:
%s

---

QUESTION: %s

QUESTION TYPE: %s

Answer the question from the document content in the required format.`,
		Truncate(docText, maxDocChars), question, intent)

	return Prompt{System: sys.String(), User: user}
}

// Truncate keeps the prefix of text up to ceiling bytes, backing off to a
// rune boundary, and appends the continuation marker. Text at or under
// the ceiling passes through unchanged. Truncating twice with the same
// ceiling equals truncating once.
func Truncate(text string, ceiling int) string {
	if ceiling <= 0 || len(text) <= ceiling {
		return text
	}
	if strings.HasSuffix(text, TruncationMarker) && len(text) <= ceiling+len(TruncationMarker) {
		return text
	}
	cut := ceiling
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + TruncationMarker
}
