// Package pipeline wires classification, extraction, completion, pricing
// and formatting into one document question-answering flow.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"docanswer/constants"
	"docanswer/internal/classify"
	"docanswer/internal/common"
	"docanswer/internal/extract"
	"docanswer/internal/format"
	"docanswer/internal/llm"
	"docanswer/internal/observability"
	"docanswer/internal/pricing"
	"docanswer/internal/usagelog"
)

// Request is one document question.
type Request struct {
	Path         string
	DocumentName string
	Question     string
	// IntentOverride skips classification when set to a known intent.
	IntentOverride string
}

// ExtractionInfo reports how the document text was obtained.
type ExtractionInfo struct {
	Method   string        `json:"method"`
	Pages    int           `json:"pages,omitempty"`
	Chars    int           `json:"chars"`
	Duration time.Duration `json:"-"`
	Warnings []string      `json:"warnings,omitempty"`
}

// Result is the complete answer for one request.
type Result struct {
	RequestID  string             `json:"request_id"`
	Answer     string             `json:"answer"`
	Intent     classify.Intent    `json:"question_type"`
	FormatInfo format.Info        `json:"format_info"`
	Sections   []format.Section   `json:"sections"`
	Usage      llm.Usage          `json:"usage"`
	Cost       pricing.CostResult `json:"cost"`
	Provider   string             `json:"provider"`
	Model      string             `json:"model"`
	Extraction ExtractionInfo     `json:"extraction"`
}

// BatchItem is one entry of a batch run. Exactly one of Result or Err is
// set.
type BatchItem struct {
	Index    int
	Document string
	Result   *Result
	Err      error
}

// Pipeline runs document questions end to end.
type Pipeline struct {
	extractor   extract.TextExtractor
	completer   llm.Completer
	maxDocChars int
	maxTokens   int
	usage       usagelog.Recorder
	metrics     *observability.Metrics
	logger      *slog.Logger
}

func New(ex extract.TextExtractor, comp llm.Completer, maxDocChars, maxTokens int, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		extractor:   ex,
		completer:   comp,
		maxDocChars: maxDocChars,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

// WithUsageRecorder enables best-effort usage logging.
func (p *Pipeline) WithUsageRecorder(r usagelog.Recorder) *Pipeline {
	p.usage = r
	return p
}

// WithMetrics enables Prometheus instrumentation.
func (p *Pipeline) WithMetrics(m *observability.Metrics) *Pipeline {
	p.metrics = m
	return p
}

// Run answers one question about one document.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	rid := uuid.NewString()
	start := time.Now()
	log := p.logger.With("req_id", rid, "document", req.DocumentName)

	res, err := p.run(ctx, rid, req, log)
	status := "ok"
	if err != nil {
		status = "error"
	}
	intent := ""
	if res != nil {
		intent = string(res.Intent)
	}
	p.metrics.ObserveRequest(intent, status, time.Since(start))
	if err != nil {
		log.Error("pipeline.run.error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	log.Info("pipeline.run.ok",
		"intent", res.Intent,
		"total_tokens", res.Usage.TotalTokens,
		"total_cost", res.Cost.TotalCost,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, rid string, req Request, log *slog.Logger) (*Result, error) {
	if req.Question == "" {
		return nil, common.NewAppError("EMPTY_QUESTION", "question must not be empty", common.ErrInvalidInput)
	}
	ext := constants.NormalizeExt(filepath.Ext(req.Path))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		return nil, common.NewAppError("UNSUPPORTED_FORMAT",
			fmt.Sprintf("unsupported file extension %q", ext), common.ErrUnsupportedFormat)
	}

	intent := classify.Classify(req.Question)
	if req.IntentOverride != "" {
		intent = classify.Intent(req.IntentOverride)
	}

	extracted, err := p.extractor.Extract(ctx, req.Path)
	if err != nil {
		return nil, err
	}

	prompt := llm.BuildPrompt(extracted.Text, req.Question, intent, p.maxDocChars)
	completion, err := p.completer.Complete(ctx, prompt, p.maxTokens)
	if err != nil {
		return nil, err
	}

	cost := pricing.Cost(completion.Usage, completion.Model, completion.Provider)
	answer := format.Format(completion.Text, intent)
	structured := format.ToStructured(answer, intent)

	p.metrics.AddTokens(completion.Provider, completion.Usage.InputTokens, completion.Usage.OutputTokens)
	if p.usage != nil {
		ev := usagelog.Event{
			RequestID:    rid,
			Document:     req.DocumentName,
			Intent:       string(intent),
			Provider:     completion.Provider,
			Model:        completion.Model,
			InputTokens:  completion.Usage.InputTokens,
			OutputTokens: completion.Usage.OutputTokens,
			TotalTokens:  completion.Usage.TotalTokens,
			TotalCost:    cost.TotalCost,
		}
		if rerr := p.usage.Record(ctx, ev); rerr != nil {
			log.Warn("pipeline.usage.record_failed", "error", rerr)
		}
	}

	return &Result{
		RequestID:  rid,
		Answer:     answer,
		Intent:     intent,
		FormatInfo: structured.Info,
		Sections:   structured.Sections,
		Usage:      completion.Usage,
		Cost:       cost,
		Provider:   completion.Provider,
		Model:      completion.Model,
		Extraction: ExtractionInfo{
			Method:   extracted.Method,
			Pages:    extracted.Pages,
			Chars:    len(extracted.Text),
			Duration: extracted.Duration,
			Warnings: extracted.Warnings,
		},
	}, nil
}

// RunBatch answers each request in order. A failing item does not stop
// the batch; its error is carried on the item.
func (p *Pipeline) RunBatch(ctx context.Context, reqs []Request) []BatchItem {
	items := make([]BatchItem, len(reqs))
	for i, req := range reqs {
		res, err := p.Run(ctx, req)
		items[i] = BatchItem{Index: i, Document: req.DocumentName, Result: res, Err: err}
	}
	return items
}

// ClassifyOnly reports the intent and format expectations for a question
// without touching any document.
func (p *Pipeline) ClassifyOnly(question string) (classify.Intent, format.Info) {
	intent := classify.Classify(question)
	return intent, format.InfoFor(intent)
}

// Pricing returns the rate table for the given provider.
func (p *Pipeline) Pricing(provider string) []pricing.Entry {
	return pricing.Table(provider)
}
