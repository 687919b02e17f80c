package scheduler

import "fmt"

// ErrorCode categorizes domain errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the card id has never been registered.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeInvalidRating indicates a rating outside 1..4.
	ErrCodeInvalidRating ErrorCode = "INVALID_RATING"

	// ErrCodeMissingIdentifier indicates a bulk entry without an id.
	// Such entries are skipped and counted, not raised.
	ErrCodeMissingIdentifier ErrorCode = "MISSING_IDENTIFIER"
)

// DomainError is a deterministic, expected failure of a single operation.
// It is reported to the caller as data and never aborts the process.
type DomainError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	CardID  string    `json:"id,omitempty"`
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewNotFoundError creates a DomainError for an unknown card id.
func NewNotFoundError(id string) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("Card not found: %s", id),
		CardID:  id,
	}
}

// NewInvalidRatingError creates a DomainError for a rating outside 1..4.
func NewInvalidRatingError(rating int) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidRating,
		Message: fmt.Sprintf("Invalid rating: %d. Must be 1-4.", rating),
	}
}

// Result carries either a value or a domain error, never both.
type Result[T any] struct {
	Value *T
	Err   *DomainError
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: &v}
}

// Fail wraps a domain error.
func Fail[T any](err *DomainError) Result[T] {
	return Result[T]{Err: err}
}

// IsErr reports whether the result holds a domain error.
func (r Result[T]) IsErr() bool {
	return r.Err != nil
}
