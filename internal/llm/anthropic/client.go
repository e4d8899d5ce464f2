package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"docanswer/internal/common"
	"docanswer/internal/llm"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	defaultModel   = "claude-3-5-sonnet-20241022"
	apiVersion     = "2023-06-01"

	// The messages API requires max_tokens; used when the caller passes none.
	fallbackMaxTokens = 4000
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Client talks to the Anthropic messages API.
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

func (c *Client) Provider() string { return "anthropic" }
func (c *Client) Model() string    { return c.cfg.Model }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float32   `json:"temperature"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Complete(ctx context.Context, prompt llm.Prompt, maxTokens int) (llm.Completion, error) {
	reqID := uuid.NewString()
	start := time.Now()
	c.logger.Debug("llm.complete.start", "req_id", reqID, "provider", "anthropic", "model", c.cfg.Model)

	if maxTokens <= 0 {
		maxTokens = fallbackMaxTokens
	}
	body, err := json.Marshal(messagesRequest{
		Model:       c.cfg.Model,
		MaxTokens:   maxTokens,
		Temperature: c.cfg.Temperature,
		System:      prompt.System,
		Messages:    []message{{Role: "user", Content: prompt.User}},
	})
	if err != nil {
		return llm.Completion{}, common.NewAppError("ANTHROPIC_ENCODE", err.Error(), common.ErrProvider)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return llm.Completion{}, common.NewAppError("ANTHROPIC_REQUEST", err.Error(), common.ErrProvider)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("llm.complete.error", "req_id", reqID, "error", err)
		return llm.Completion{}, common.NewAppError("ANTHROPIC_HTTP", err.Error(), common.ErrProvider)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Completion{}, common.NewAppError("ANTHROPIC_READ", err.Error(), common.ErrProvider)
	}

	var parsed messagesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return llm.Completion{}, common.NewAppError("ANTHROPIC_DECODE", err.Error(), common.ErrProvider)
	}
	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = fmt.Sprintf("status %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		c.logger.Error("llm.complete.error", "req_id", reqID, "status", resp.StatusCode)
		return llm.Completion{}, common.NewAppError("ANTHROPIC_STATUS", msg, common.ErrProvider)
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	answer := sb.String()
	if answer == "" {
		return llm.Completion{}, common.NewAppError("ANTHROPIC_EMPTY", "no text blocks in response", common.ErrProvider)
	}

	usage := llm.NormalizeUsage(llm.Usage{
		InputTokens:  parsed.Usage.InputTokens,
		OutputTokens: parsed.Usage.OutputTokens,
	}, prompt, answer)

	c.logger.Info("llm.complete.ok",
		"req_id", reqID,
		"provider", "anthropic",
		"model", c.cfg.Model,
		"total_tokens", usage.TotalTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return llm.Completion{
		Text:     answer,
		Usage:    usage,
		Provider: "anthropic",
		Model:    c.cfg.Model,
	}, nil
}
