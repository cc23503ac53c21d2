package domain

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies screening failures
type ErrorCategory string

const (
	// ErrorFetch is a network failure or non-2xx response while downloading a feed
	ErrorFetch ErrorCategory = "fetch"

	// ErrorParse is a malformed feed document or record
	ErrorParse ErrorCategory = "parse"

	// ErrorSearch is a failure querying one source during a screening
	ErrorSearch ErrorCategory = "search"

	// ErrorValidation is a malformed profile or request
	ErrorValidation ErrorCategory = "validation"
)

// ScreeningError wraps failures with their category and the source involved
type ScreeningError struct {
	Category   ErrorCategory
	Source     string
	Message    string
	Underlying error
}

func (e *ScreeningError) Error() string {
	prefix := string(e.Category)
	if e.Source != "" {
		prefix = fmt.Sprintf("%s [%s]", e.Source, e.Category)
	}
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *ScreeningError) Unwrap() error {
	return e.Underlying
}

func NewFetchError(source, message string, underlying error) *ScreeningError {
	return &ScreeningError{Category: ErrorFetch, Source: source, Message: message, Underlying: underlying}
}

func NewParseError(source, message string, underlying error) *ScreeningError {
	return &ScreeningError{Category: ErrorParse, Source: source, Message: message, Underlying: underlying}
}

func NewSearchError(source, message string, underlying error) *ScreeningError {
	return &ScreeningError{Category: ErrorSearch, Source: source, Message: message, Underlying: underlying}
}

func NewValidationError(message string, underlying error) *ScreeningError {
	return &ScreeningError{Category: ErrorValidation, Message: message, Underlying: underlying}
}

// IsCategory reports whether any error in the chain is a ScreeningError of the category
func IsCategory(err error, category ErrorCategory) bool {
	for err != nil {
		var se *ScreeningError
		if !errors.As(err, &se) {
			return false
		}
		if se.Category == category {
			return true
		}
		err = se.Underlying
	}
	return false
}
