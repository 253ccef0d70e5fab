// Package errors provides standardized error handling patterns for bookgraph.
//
// # Overview
//
// The package implements a four-class error classification system for the
// dual-store write path: Transient (temporary, retryable), Invalid (bad
// input, non-retryable), Conflict (the document and graph stores disagree),
// and Fatal (unrecoverable).
//
// # Write protocol errors
//
// Two error types carry structured detail that must survive wrapping:
//
//   - PartialFailure: the document commit succeeded, the graph commit failed,
//     and the compensating document write also failed. The stores are now
//     inconsistent; the error names the entity kind, key, and the store that
//     holds the committed state so an operator can reconcile by hand.
//   - UnknownOutcome: a commit call timed out or was cancelled before the
//     store acknowledged it. Neither success nor failure may be assumed, and
//     automatic compensation is forbidden on this error.
//
// Both are retrieved with IsPartialFailure / IsUnknownOutcome, which walk the
// error chain via errors.As.
//
// # Error wrapping pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// The Wrap family of functions applies this pattern while attaching a
// classification:
//
//	errors.WrapTransient(err, "MongoStore", "Insert", "insert document")
//	errors.WrapInvalid(err, "AuthorService", "Get", "parse id")
//	errors.WrapConflict(err, "Coordinator", "Apply", "graph presence check")
//
// Sentinel variables (ErrNotFound, ErrGraphEntityMissing, ErrCommitFailed,
// ...) are preferred over ad hoc messages so callers can branch with
// errors.Is rather than string matching.
package errors
