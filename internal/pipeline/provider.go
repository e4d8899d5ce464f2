package pipeline

import (
	"fmt"
	"log/slog"

	"docanswer/internal/common"
	"docanswer/internal/llm"
	"docanswer/internal/llm/anthropic"
	"docanswer/internal/llm/openai"
)

// NewCompleter builds the configured completion backend. "claude" is
// accepted as an alias for "anthropic".
func NewCompleter(cfg common.LLMConfig, logger *slog.Logger) (llm.Completer, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey:      cfg.OpenAIKey,
			Model:       cfg.OpenAIModel,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger), nil
	case "anthropic", "claude":
		return anthropic.NewClient(anthropic.Config{
			APIKey:      cfg.AnthropicKey,
			Model:       cfg.AnthropicModel,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger), nil
	default:
		return nil, common.NewAppError("UNSUPPORTED_PROVIDER",
			fmt.Sprintf("unknown completion provider %q", cfg.Provider), common.ErrUnsupportedProvider)
	}
}
