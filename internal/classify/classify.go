// Package classify maps free-text questions to answer intents and the
// structural templates bound to them.
package classify

import (
	"regexp"
	"strings"
)

// Intent is the classified purpose of a question.
type Intent string

const (
	IntentSummary      Intent = "summary"
	IntentObjective    Intent = "objective"
	IntentHowTo        Intent = "howto"
	IntentPlan         Intent = "plan"
	IntentObstacles    Intent = "obstacles"
	IntentResults      Intent = "results"
	IntentComparison   Intent = "comparison"
	IntentSuggestions  Intent = "suggestions"
	IntentImpact       Intent = "impact"
	IntentAlternatives Intent = "alternatives"
)

// rule binds an intent to its trigger patterns. Slice order is priority:
// the first rule with a matching pattern wins, so a question touching two
// intents resolves to the earlier one.
type rule struct {
	intent   Intent
	patterns []*regexp.Regexp
}

// Patterns are bilingual: the documents this system serves are mostly
// Vietnamese organizational texts, but questions arrive in either language.
var rules = []rule{
	{IntentSummary, compile(`tóm tắt`, `tổng hợp`, `trình bày`, `nêu rõ`, `overview`, `summar`)},
	{IntentObjective, compile(`mục tiêu`, `mục đích`, `định hướng`, `target`, `objective`, `goal`)},
	{IntentHowTo, compile(`làm thế nào`, `cách thực hiện`, `cách làm`, `triển khai`, `how to`, `implement`)},
	{IntentPlan, compile(`kế hoạch`, `lộ trình`, `roadmap`, `xây dựng.*kế hoạch`, `plan`)},
	{IntentObstacles, compile(`khó khăn`, `vướng mắc`, `thách thức`, `hạn chế`, `rào cản`, `challenge`, `difficult`)},
	{IntentResults, compile(`kết quả`, `thành tích`, `đạt được`, `hoàn thành`, `result`, `achievement`)},
	{IntentComparison, compile(`so sánh`, `đối chiếu`, `xếp hạng`, `nào.*nhất`, `comparison`, `ranking`)},
	{IntentSuggestions, compile(`gợi ý`, `đề xuất`, `khuyến nghị`, `suggestion`, `recommendation`)},
	{IntentImpact, compile(`hiệu quả`, `tác động`, `ảnh hưởng`, `impact`, `effect`)},
	{IntentAlternatives, compile(`phương án`, `giải pháp`, `cách khác`, `lựa chọn`, `alternative`, `solution`)},
}

func compile(pats ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(pats))
	for i, p := range pats {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// Classify maps a question to an intent by first pattern match.
// Questions matching no rule fall back to IntentSummary.
func Classify(question string) Intent {
	q := strings.ToLower(question)
	for _, r := range rules {
		for _, p := range r.patterns {
			if p.MatchString(q) {
				return r.intent
			}
		}
	}
	return IntentSummary
}

// AllIntents returns the closed intent set in priority order.
func AllIntents() []Intent {
	out := make([]Intent, len(rules))
	for i, r := range rules {
		out[i] = r.intent
	}
	return out
}
