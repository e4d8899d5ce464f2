package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"docanswer/internal/common"
	"docanswer/internal/llm"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Client talks to the OpenAI chat completions API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (c *Client) Provider() string { return "openai" }
func (c *Client) Model() string    { return c.cfg.Model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *Client) Complete(ctx context.Context, prompt llm.Prompt, maxTokens int) (llm.Completion, error) {
	reqID := uuid.NewString()
	start := time.Now()
	c.logger.Debug("llm.complete.start", "req_id", reqID, "provider", "openai", "model", c.cfg.Model)

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return llm.Completion{}, common.NewAppError("OPENAI_ENCODE", err.Error(), common.ErrProvider)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return llm.Completion{}, common.NewAppError("OPENAI_REQUEST", err.Error(), common.ErrProvider)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("llm.complete.error", "req_id", reqID, "error", err)
		return llm.Completion{}, common.NewAppError("OPENAI_HTTP", err.Error(), common.ErrProvider)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Completion{}, common.NewAppError("OPENAI_READ", err.Error(), common.ErrProvider)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return llm.Completion{}, common.NewAppError("OPENAI_DECODE", err.Error(), common.ErrProvider)
	}
	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = fmt.Sprintf("status %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		c.logger.Error("llm.complete.error", "req_id", reqID, "status", resp.StatusCode)
		return llm.Completion{}, common.NewAppError("OPENAI_STATUS", msg, common.ErrProvider)
	}
	if len(parsed.Choices) == 0 {
		return llm.Completion{}, common.NewAppError("OPENAI_EMPTY", "no choices in response", common.ErrProvider)
	}

	answer := parsed.Choices[0].Message.Content
	usage := llm.NormalizeUsage(llm.Usage{
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
		TotalTokens:  parsed.Usage.TotalTokens,
	}, prompt, answer)

	c.logger.Info("llm.complete.ok",
		"req_id", reqID,
		"provider", "openai",
		"model", c.cfg.Model,
		"total_tokens", usage.TotalTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return llm.Completion{
		Text:     answer,
		Usage:    usage,
		Provider: "openai",
		Model:    c.cfg.Model,
	}, nil
}
