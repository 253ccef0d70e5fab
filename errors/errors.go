// Package errors provides standardized error handling patterns for bookgraph
// components. It defines the write-protocol error taxonomy, error
// classification, and helper functions for consistent error wrapping across
// the system.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary errors that may be retried
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input or configuration
	ErrorInvalid
	// ErrorConflict represents errors where the stores disagree and a
	// write could not be applied cleanly
	ErrorConflict
	// ErrorFatal represents unrecoverable errors that should stop processing
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorConflict:
		return "conflict"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Lookup and validation errors
	ErrNotFound   = errors.New("entity not found")
	ErrInvalidID  = errors.New("invalid entity identifier")
	ErrInvalidKey = errors.New("invalid entity key")

	// Document store errors
	ErrDocumentStore    = errors.New("document store failure")
	ErrSessionClosed    = errors.New("document session already closed")
	ErrDocumentMissing  = errors.New("document missing for staged operation")
	ErrDuplicateKey     = errors.New("duplicate document key")
	ErrStoreUnavailable = errors.New("store unavailable")

	// Graph store errors
	ErrGraphStore         = errors.New("graph store failure")
	ErrGraphEntityMissing = errors.New("graph entity missing")
	ErrTxClosed           = errors.New("graph transaction already closed")

	// Write protocol errors
	ErrCommitFailed = errors.New("document commit failed")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")
)

// PartialFailure reports a write where the document commit succeeded, the
// graph commit failed, and the compensating document write also failed. The
// two stores are now inconsistent and manual reconciliation is required. It
// carries enough detail to locate the divergence: the entity kind and key,
// and which store currently holds the committed write.
type PartialFailure struct {
	WriteID       string // correlation id of the failed logical write
	Kind          string
	Key           string
	Authoritative string // store that holds the committed state ("document")
	CommitErr     error  // the graph commit error that triggered compensation
	CompensateErr error  // the error from the failed compensating write
}

// Error implements the error interface
func (e *PartialFailure) Error() string {
	return fmt.Sprintf(
		"partial failure for %s %q (write %s): graph commit failed (%v) and compensation failed (%v); %s store is authoritative, manual reconciliation required",
		e.Kind, e.Key, e.WriteID, e.CommitErr, e.CompensateErr, e.Authoritative)
}

// Unwrap exposes the compensation error, which is the terminal failure.
func (e *PartialFailure) Unwrap() error {
	return e.CompensateErr
}

// IsPartialFailure reports whether err carries a PartialFailure anywhere in
// its chain, returning it when present.
func IsPartialFailure(err error) (*PartialFailure, bool) {
	var pf *PartialFailure
	if errors.As(err, &pf) {
		return pf, true
	}
	return nil, false
}

// UnknownOutcome reports a commit call that timed out or was cancelled before
// the store acknowledged it. The commit may or may not have been applied;
// callers must not compensate automatically on this error.
type UnknownOutcome struct {
	WriteID string
	Store   string // "document" or "graph"
	Kind    string
	Key     string
	Err     error
}

// Error implements the error interface
func (e *UnknownOutcome) Error() string {
	return fmt.Sprintf(
		"commit outcome unknown for %s %q (write %s): %s store commit interrupted: %v",
		e.Kind, e.Key, e.WriteID, e.Store, e.Err)
}

// Unwrap returns the underlying interruption error.
func (e *UnknownOutcome) Unwrap() error {
	return e.Err
}

// IsUnknownOutcome reports whether err carries an UnknownOutcome anywhere in
// its chain, returning it when present.
func IsUnknownOutcome(err error) (*UnknownOutcome, bool) {
	var uo *UnknownOutcome
	if errors.As(err, &uo) {
		return uo, true
	}
	return nil, false
}

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsNotFound checks whether an error means the entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransient checks if an error is transient and the operation may be retried
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	// Partial failures and unknown outcomes are never retryable as-is.
	if _, ok := IsPartialFailure(err); ok {
		return false
	}
	if _, ok := IsUnknownOutcome(err); ok {
		return false
	}

	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

// IsInvalid checks if an error is due to invalid input
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}

	return errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidKey) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingConfig)
}

// IsConflict checks if an error indicates cross-store disagreement
func IsConflict(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorConflict
	}
	if _, ok := IsPartialFailure(err); ok {
		return true
	}

	return errors.Is(err, ErrGraphEntityMissing)
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorTransient
	}

	if IsInvalid(err) {
		return ErrorInvalid
	}
	if IsConflict(err) {
		return ErrorConflict
	}
	if IsTransient(err) {
		return ErrorTransient
	}

	return ErrorFatal
}

// newClassified creates a new classified error.
// Internal helper - use WrapTransient(), WrapInvalid(), or WrapConflict() instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrappedErr, component, method, wrappedErr.Error())
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrappedErr, component, method, wrappedErr.Error())
}

// WrapConflict wraps an error as a cross-store conflict with context
func WrapConflict(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorConflict, wrappedErr, component, method, wrappedErr.Error())
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorFatal, wrappedErr, component, method, wrappedErr.Error())
}

// Interrupted reports whether err stems from a deadline or cancellation,
// meaning the outcome of the interrupted call is unknown to the caller.
func Interrupted(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
