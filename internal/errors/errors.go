package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the fatal failure classes of an index rebuild run.
// A fatal error aborts the run before any data is committed; everything
// else is counted and reported in the run summary instead.
var (
	ErrSearchUnavailable = errors.New("search engine unavailable")
	ErrSourceUnavailable = errors.New("source database unavailable")
	ErrSchemaInvalid     = errors.New("index schema invalid")
	ErrIndexCreateFailed = errors.New("index creation failed")
)

// AppError is a structured error with a stable machine-readable code.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// SearchUnavailable marks the search engine as unreachable.
func SearchUnavailable(err error) *AppError {
	return &AppError{
		Code:    "SEARCH_UNAVAILABLE",
		Message: "search engine is not reachable",
		Err:     fmt.Errorf("%w: %w", ErrSearchUnavailable, err),
	}
}

// SourceUnavailable marks the relational source as unreachable.
func SourceUnavailable(err error) *AppError {
	return &AppError{
		Code:    "SOURCE_UNAVAILABLE",
		Message: "source database is not reachable",
		Err:     fmt.Errorf("%w: %w", ErrSourceUnavailable, err),
	}
}

// SchemaInvalid marks the index mapping document as unreadable or malformed.
func SchemaInvalid(path string, err error) *AppError {
	return &AppError{
		Code:    "SCHEMA_INVALID",
		Message: fmt.Sprintf("index mapping %q is unreadable or not valid JSON", path),
		Err:     fmt.Errorf("%w: %w", ErrSchemaInvalid, err),
	}
}

// IndexCreateFailed marks the destination index as impossible to create.
func IndexCreateFailed(index string, err error) *AppError {
	return &AppError{
		Code:    "INDEX_CREATE_FAILED",
		Message: fmt.Sprintf("index %q could not be created", index),
		Err:     fmt.Errorf("%w: %w", ErrIndexCreateFailed, err),
	}
}

// Fatal reports whether err belongs to the fatal class that aborts a run
// before cutover.
func Fatal(err error) bool {
	return errors.Is(err, ErrSearchUnavailable) ||
		errors.Is(err, ErrSourceUnavailable) ||
		errors.Is(err, ErrSchemaInvalid) ||
		errors.Is(err, ErrIndexCreateFailed)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}
