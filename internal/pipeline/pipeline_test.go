package pipeline

import (
	"context"
	"errors"
	"testing"

	"docanswer/internal/classify"
	"docanswer/internal/common"
	"docanswer/internal/extract"
	"docanswer/internal/llm"
	"docanswer/internal/usagelog"
)

type mockExtractor struct {
	result extract.Result
	err    error
	calls  int
}

func (m *mockExtractor) Extract(ctx context.Context, path string) (extract.Result, error) {
	m.calls++
	return m.result, m.err
}

type mockCompleter struct {
	text string
	err  error
	last llm.Prompt
}

func (m *mockCompleter) Complete(ctx context.Context, prompt llm.Prompt, maxTokens int) (llm.Completion, error) {
	m.last = prompt
	if m.err != nil {
		return llm.Completion{}, m.err
	}
	return llm.Completion{
		Text:     m.text,
		Usage:    llm.Usage{InputTokens: 1000, OutputTokens: 500, TotalTokens: 1500},
		Provider: "openai",
		Model:    "gpt-4o-mini",
	}, nil
}

func (m *mockCompleter) Provider() string { return "openai" }
func (m *mockCompleter) Model() string    { return "gpt-4o-mini" }

type captureRecorder struct {
	events []usagelog.Event
	err    error
}

func (c *captureRecorder) Record(ctx context.Context, ev usagelog.Event) error {
	c.events = append(c.events, ev)
	return c.err
}

func newTestPipeline(ex *mockExtractor, comp *mockCompleter) *Pipeline {
	return New(ex, comp, 15000, 4000, nil)
}

func TestRunEndToEnd(t *testing.T) {
	ex := &mockExtractor{result: extract.Result{Text: "nội dung báo cáo", Method: extract.MethodPDFText, Pages: 3}}
	comp := &mockCompleter{text: "I. Tổng quan\nNội dung một.\nII. Chi tiết\nNội dung hai."}
	rec := &captureRecorder{}
	p := newTestPipeline(ex, comp).WithUsageRecorder(rec)

	res, err := p.Run(context.Background(), Request{
		Path:         "/tmp/bao-cao.pdf",
		DocumentName: "bao-cao.pdf",
		Question:     "Tóm tắt báo cáo này",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Intent != classify.IntentSummary {
		t.Errorf("intent = %q", res.Intent)
	}
	if len(res.Sections) != 2 {
		t.Errorf("sections = %d, want 2", len(res.Sections))
	}
	if res.Cost.TotalCost != 0.00045 {
		t.Errorf("cost = %v, want 0.00045", res.Cost.TotalCost)
	}
	if res.Extraction.Method != extract.MethodPDFText || res.Extraction.Pages != 3 {
		t.Errorf("extraction info = %+v", res.Extraction)
	}
	if len(rec.events) != 1 {
		t.Fatalf("usage events = %d, want 1", len(rec.events))
	}
	if rec.events[0].TotalTokens != 1500 || rec.events[0].Intent != "summary" {
		t.Errorf("recorded event = %+v", rec.events[0])
	}
	if comp.last.User == "" || comp.last.System == "" {
		t.Errorf("prompt not built: %+v", comp.last)
	}
}

func TestRunUnsupportedExtensionBeforeExtraction(t *testing.T) {
	ex := &mockExtractor{}
	p := newTestPipeline(ex, &mockCompleter{text: "x"})

	_, err := p.Run(context.Background(), Request{Path: "/tmp/photo.png", Question: "q"})
	if !errors.Is(err, common.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if ex.calls != 0 {
		t.Errorf("extractor should not run for rejected extensions")
	}
}

func TestRunEmptyQuestion(t *testing.T) {
	p := newTestPipeline(&mockExtractor{}, &mockCompleter{text: "x"})
	_, err := p.Run(context.Background(), Request{Path: "/tmp/a.txt", Question: ""})
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRunIntentOverride(t *testing.T) {
	ex := &mockExtractor{result: extract.Result{Text: "doc", Method: extract.MethodTXT}}
	comp := &mockCompleter{text: "answer"}
	p := newTestPipeline(ex, comp)

	res, err := p.Run(context.Background(), Request{
		Path:           "/tmp/a.txt",
		Question:       "Tóm tắt tài liệu",
		IntentOverride: "plan",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Intent != classify.IntentPlan {
		t.Errorf("intent = %q, want plan", res.Intent)
	}
}

func TestRunRecorderFailureIsNotFatal(t *testing.T) {
	ex := &mockExtractor{result: extract.Result{Text: "doc", Method: extract.MethodTXT}}
	rec := &captureRecorder{err: errors.New("disk full")}
	p := newTestPipeline(ex, &mockCompleter{text: "answer"}).WithUsageRecorder(rec)

	if _, err := p.Run(context.Background(), Request{Path: "/tmp/a.txt", Question: "q"}); err != nil {
		t.Fatalf("recorder failure should not fail the run: %v", err)
	}
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	ex := &mockExtractor{result: extract.Result{Text: "doc", Method: extract.MethodTXT}}
	comp := &mockCompleter{text: "answer"}
	p := newTestPipeline(ex, comp)

	items := p.RunBatch(context.Background(), []Request{
		{Path: "/tmp/a.txt", DocumentName: "a.txt", Question: "q1"},
		{Path: "/tmp/bad.png", DocumentName: "bad.png", Question: "q2"},
		{Path: "/tmp/c.txt", DocumentName: "c.txt", Question: "q3"},
	})
	if len(items) != 3 {
		t.Fatalf("items = %d", len(items))
	}
	if items[0].Err != nil || items[0].Result == nil {
		t.Errorf("item 0 should succeed: %+v", items[0])
	}
	if items[1].Err == nil || items[1].Result != nil {
		t.Errorf("item 1 should fail: %+v", items[1])
	}
	if items[2].Err != nil {
		t.Errorf("item 2 should succeed despite item 1 failing: %v", items[2].Err)
	}
	for i, it := range items {
		if it.Index != i {
			t.Errorf("index %d reported as %d", i, it.Index)
		}
	}
}

func TestClassifyOnly(t *testing.T) {
	p := newTestPipeline(&mockExtractor{}, &mockCompleter{})
	intent, info := p.ClassifyOnly("So sánh giữa hai đơn vị")
	if intent != classify.IntentComparison {
		t.Errorf("intent = %q", intent)
	}
	if !info.HasTables {
		t.Errorf("comparison info should report tables: %+v", info)
	}
}

func TestNewCompleter(t *testing.T) {
	cfg := common.LLMConfig{Provider: "openai", OpenAIKey: "k", OpenAIModel: "gpt-4o-mini"}
	c, err := NewCompleter(cfg, nil)
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	if c.Provider() != "openai" {
		t.Errorf("provider = %q", c.Provider())
	}

	cfg.Provider = "claude"
	cfg.AnthropicKey = "k"
	c, err = NewCompleter(cfg, nil)
	if err != nil {
		t.Fatalf("claude alias: %v", err)
	}
	if c.Provider() != "anthropic" {
		t.Errorf("provider = %q", c.Provider())
	}

	cfg.Provider = "gemini"
	if _, err = NewCompleter(cfg, nil); !errors.Is(err, common.ErrUnsupportedProvider) {
		t.Errorf("expected ErrUnsupportedProvider, got %v", err)
	}
}
