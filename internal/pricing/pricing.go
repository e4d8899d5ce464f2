// Package pricing converts token usage into USD cost from a static
// per-model rate table.
package pricing

import (
	"math"
	"sort"

	"docanswer/internal/llm"
)

const (
	Currency = "USD"

	costPrecision = 6
)

// Entry holds per-1K-token rates for one model.
type Entry struct {
	Model       string  `json:"model"`
	InputPer1K  float64 `json:"input_per_1k"`
	OutputPer1K float64 `json:"output_per_1k"`
}

var openaiTable = map[string]Entry{
	"gpt-4o-mini":   {Model: "gpt-4o-mini", InputPer1K: 0.00015, OutputPer1K: 0.0006},
	"gpt-4o":        {Model: "gpt-4o", InputPer1K: 0.0025, OutputPer1K: 0.01},
	"gpt-4-turbo":   {Model: "gpt-4-turbo", InputPer1K: 0.01, OutputPer1K: 0.03},
	"gpt-3.5-turbo": {Model: "gpt-3.5-turbo", InputPer1K: 0.0005, OutputPer1K: 0.0015},
}

var anthropicTable = map[string]Entry{
	"claude-3-5-sonnet-20241022": {Model: "claude-3-5-sonnet-20241022", InputPer1K: 0.003, OutputPer1K: 0.015},
	"claude-3-5-haiku-20241022":  {Model: "claude-3-5-haiku-20241022", InputPer1K: 0.0008, OutputPer1K: 0.004},
	"claude-3-opus-20240229":     {Model: "claude-3-opus-20240229", InputPer1K: 0.015, OutputPer1K: 0.075},
	"claude-3-haiku-20240307":    {Model: "claude-3-haiku-20240307", InputPer1K: 0.00025, OutputPer1K: 0.00125},
}

var defaultModel = map[string]string{
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-3-5-sonnet-20241022",
}

// CostResult is the priced breakdown of one completion.
type CostResult struct {
	InputCost  float64 `json:"input_cost"`
	OutputCost float64 `json:"output_cost"`
	TotalCost  float64 `json:"total_cost"`
	Currency   string  `json:"currency"`
}

func tableFor(provider string) map[string]Entry {
	if provider == "anthropic" {
		return anthropicTable
	}
	return openaiTable
}

// ResolveProvider maps a provider name to the one whose table actually
// prices it. Unknown names resolve to "openai", matching the rate
// fallback.
func ResolveProvider(provider string) string {
	if provider == "anthropic" {
		return "anthropic"
	}
	return "openai"
}

// lookup resolves rates for a model, falling back to the provider's
// default model when the exact model is not listed. It never fails.
func lookup(model, provider string) Entry {
	table := tableFor(provider)
	if e, ok := table[model]; ok {
		return e
	}
	fallback := defaultModel[provider]
	if fallback == "" {
		fallback = defaultModel["openai"]
		table = openaiTable
	}
	return table[fallback]
}

func round(v float64) float64 {
	scale := math.Pow10(costPrecision)
	return math.Round(v*scale) / scale
}

// Cost prices a usage record against the rate table.
func Cost(usage llm.Usage, model, provider string) CostResult {
	e := lookup(model, provider)
	in := round(float64(usage.InputTokens) / 1000 * e.InputPer1K)
	out := round(float64(usage.OutputTokens) / 1000 * e.OutputPer1K)
	return CostResult{
		InputCost:  in,
		OutputCost: out,
		TotalCost:  round(in + out),
		Currency:   Currency,
	}
}

// Aggregate sums per-item costs into one rounded total.
func Aggregate(items []CostResult) CostResult {
	var agg CostResult
	for _, it := range items {
		agg.InputCost += it.InputCost
		agg.OutputCost += it.OutputCost
	}
	agg.InputCost = round(agg.InputCost)
	agg.OutputCost = round(agg.OutputCost)
	agg.TotalCost = round(agg.InputCost + agg.OutputCost)
	agg.Currency = Currency
	return agg
}

// Table returns the provider's rate entries sorted by model name.
func Table(provider string) []Entry {
	table := tableFor(provider)
	out := make([]Entry, 0, len(table))
	for _, e := range table {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out
}
