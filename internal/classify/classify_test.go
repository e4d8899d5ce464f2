package classify

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		question string
		want     Intent
	}{
		{"Tóm tắt tài liệu một cách ngắn gọn", IntentSummary},
		{"Can you summarize this document?", IntentSummary},
		{"Mục tiêu đến năm 2030 là gì?", IntentObjective},
		{"What is the main goal of this program?", IntentObjective},
		{"Làm thế nào để thực hiện nghị quyết này?", IntentHowTo},
		{"How to apply these measures in practice?", IntentHowTo},
		{"Xây dựng lộ trình cho năm tới", IntentPlan},
		{"Build a roadmap for the next phase", IntentPlan},
		{"Khó khăn gì khi thực hiện?", IntentObstacles},
		{"What challenges remain unaddressed?", IntentObstacles},
		{"Kết quả thực hiện của xã Vân Hồ", IntentResults},
		{"What results were delivered last quarter?", IntentResults},
		{"So sánh các đơn vị với nhau", IntentComparison},
		{"Give me a ranking of the districts", IntentComparison},
		{"Gợi ý các công việc tiếp theo", IntentSuggestions},
		{"Any recommendation for follow-up work?", IntentSuggestions},
		{"Tác động của chương trình đến người dân", IntentImpact},
		{"What is the impact on local farmers?", IntentImpact},
		{"Phương án nào khả thi hơn?", IntentAlternatives},
		{"List alternative approaches", IntentAlternatives},
	}
	for _, tc := range cases {
		if got := Classify(tc.question); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.question, got, tc.want)
		}
	}
}

// Questions touching two intents must resolve to the earlier rule. This
// pins the priority order so it cannot silently reshuffle.
func TestClassifyPriority(t *testing.T) {
	cases := []struct {
		question string
		want     Intent
	}{
		// summary before plan
		{"Tóm tắt kế hoạch triển khai", IntentSummary},
		// objective before results
		{"Kết quả so với mục tiêu đề ra", IntentObjective},
		// results before comparison
		{"So sánh kết quả giữa các xã", IntentResults},
		// obstacles before suggestions
		{"Đề xuất cách vượt qua khó khăn", IntentObstacles},
	}
	for _, tc := range cases {
		if got := Classify(tc.question); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.question, got, tc.want)
		}
	}
}

func TestClassifyDefault(t *testing.T) {
	if got := Classify("xin chào"); got != IntentSummary {
		t.Errorf("unmatched question classified as %q, want %q", got, IntentSummary)
	}
	if got := Classify(""); got != IntentSummary {
		t.Errorf("empty question classified as %q, want %q", got, IntentSummary)
	}
}

func TestTemplateForIsTotal(t *testing.T) {
	intents := AllIntents()
	if len(intents) != 10 {
		t.Fatalf("expected 10 intents, got %d", len(intents))
	}
	for _, in := range intents {
		tpl := TemplateFor(in)
		if len(tpl.Structure) == 0 {
			t.Errorf("%s: empty structure", in)
		}
		if tpl.SectionsMin <= 0 || tpl.SectionsMax < tpl.SectionsMin {
			t.Errorf("%s: bad section range %d-%d", in, tpl.SectionsMin, tpl.SectionsMax)
		}
		if tpl.MinWords <= 0 || tpl.MaxWords < tpl.MinWords {
			t.Errorf("%s: bad length range %d-%d", in, tpl.MinWords, tpl.MaxWords)
		}
		if tpl.Numbering == "" {
			t.Errorf("%s: missing numbering style", in)
		}
	}
}

func TestTemplateForUnknownFallsBack(t *testing.T) {
	got := TemplateFor(Intent("nonsense"))
	want := TemplateFor(IntentSummary)
	if got.MinWords != want.MinWords || got.SectionsMin != want.SectionsMin {
		t.Errorf("unknown intent did not fall back to summary template")
	}
}
