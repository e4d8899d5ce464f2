package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Pipeline error kinds. Callers branch on these with errors.Is so each
// failure mode can be messaged differently.
var (
	ErrUnsupportedFormat   = errors.New("unsupported file format")
	ErrExtraction          = errors.New("no text could be extracted")
	ErrOCRUnavailable      = errors.New("ocr not available")
	ErrProvider            = errors.New("llm provider failure")
	ErrUnsupportedProvider = errors.New("unsupported llm provider")
	ErrInvalidInput        = errors.New("invalid input")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
