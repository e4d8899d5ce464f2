package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	LLM     LLMConfig
	Extract ExtractConfig
	Usage   UsageConfig
}

// ServerConfig holds HTTP-server-related configuration
type ServerConfig struct {
	HTTPAddr       string
	UploadDir      string
	MaxUploadBytes int64
}

// LLMConfig holds completion-backend configuration
type LLMConfig struct {
	Provider         string // "openai" or "anthropic"
	OpenAIKey        string
	AnthropicKey     string
	OpenAIModel      string
	AnthropicModel   string
	Temperature      float32
	Timeout          time.Duration
	MaxTokens        int
	MaxDocumentChars int
}

// ExtractConfig holds text-extraction and OCR configuration
type ExtractConfig struct {
	Pdftotext     string
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	DPI           int
	MaxPages      int
	MinTextChars  int
}

// UsageConfig holds the usage-ledger configuration
type UsageConfig struct {
	DBPath string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":8000"),
			UploadDir:      getEnv("UPLOAD_DIR", "./tmp"),
			MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_MB", 50)) << 20,
		},
		LLM: LLMConfig{
			Provider:         getEnv("AI_PROVIDER", "openai"),
			OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
			OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			AnthropicModel:   getEnv("CLAUDE_MODEL", "claude-3-5-sonnet-20241022"),
			Temperature:      getEnvAsFloat32("LLM_TEMPERATURE", 0.3),
			Timeout:          getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
			MaxTokens:        getEnvAsInt("LLM_MAX_TOKENS", 4000),
			MaxDocumentChars: getEnvAsInt("MAX_DOCUMENT_CHARS", 15000),
		},
		Extract: ExtractConfig{
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "vie+eng"),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
			MinTextChars:  getEnvAsInt("MIN_TEXT_CHARS", 200),
		},
		Usage: UsageConfig{
			DBPath: getEnv("USAGE_DB_PATH", "./usage.db"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.OpenAIKey == "" {
			return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required when AI_PROVIDER=openai", ErrInvalidInput)
		}
	case "anthropic", "claude":
		if c.LLM.AnthropicKey == "" {
			return NewAppError("CONFIG_ERROR", "ANTHROPIC_API_KEY is required when AI_PROVIDER=anthropic", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "AI_PROVIDER must be openai or anthropic", ErrUnsupportedProvider)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.LLM.MaxDocumentChars <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_DOCUMENT_CHARS must be positive", ErrInvalidInput)
	}
	return nil
}
