package errors

import (
	"errors"
	"fmt"
)

// Error codes
const (
	CodeFetch      = "FETCH_ERROR"
	CodeParse      = "PARSE_ERROR"
	CodeClassify   = "CLASSIFY_ERROR"
	CodeCache      = "CACHE_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeService    = "SERVICE_ERROR"
)

// ErrNoData is surfaced when every trend source failed and the assembled
// dataset came out empty. It is the only pipeline condition that halts
// further processing instead of degrading to a default.
var ErrNoData = errors.New("no trend data available")

type AppError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// FetchError covers network failures, timeouts and non-2xx responses from a
// trend source. Callers treat it as "zero records for this source".
type FetchError struct {
	*AppError
	URL string
}

func NewFetchError(message, url string, cause error) *FetchError {
	return &FetchError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeFetch,
			StatusCode: 502,
			Context:    map[string]any{"url": url},
			Cause:      cause,
		},
		URL: url,
	}
}

// ParseError is returned when a ranking table yielded no records at all,
// usually meaning the page markup changed underneath us.
type ParseError struct {
	*AppError
	Source      string
	SkippedRows int
}

func NewParseError(message, source string, skippedRows int) *ParseError {
	return &ParseError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeParse,
			StatusCode: 502,
			Context: map[string]any{
				"source":       source,
				"skipped_rows": skippedRows,
			},
		},
		Source:      source,
		SkippedRows: skippedRows,
	}
}

func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

type ClassifyError struct {
	*AppError
	Provider  string
	BatchSize int
}

func NewClassifyError(message, provider string, batchSize int, cause error) *ClassifyError {
	return &ClassifyError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeClassify,
			StatusCode: 502,
			Context: map[string]any{
				"provider":   provider,
				"batch_size": batchSize,
			},
			Cause: cause,
		},
		Provider:  provider,
		BatchSize: batchSize,
	}
}

type CacheError struct {
	*AppError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

type ValidationError struct {
	*AppError
	Field string
	Value any
}

func NewValidationError(message, field string, value any) *ValidationError {
	return &ValidationError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}
