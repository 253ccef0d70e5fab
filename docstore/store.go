package docstore

import (
	"context"

	"github.com/booknet/bookgraph/errors"
)

// Store is the document store adapter. Mutating operations accept an
// optional session; with a nil session they are durable immediately, with a
// session they are staged until the session commits. Session handles are
// single-owner and must always be released with End.
type Store interface {
	// StartSession opens a session with a transaction already started.
	// Operations run under the session observe its staged writes.
	StartSession(ctx context.Context) (Session, error)

	// Insert stores one document and returns its id.
	Insert(ctx context.Context, sess Session, collection string, doc any) (string, error)

	// InsertMany stores a batch of documents in one call and returns their
	// ids in input order.
	InsertMany(ctx context.Context, sess Session, collection string, docs []any) ([]string, error)

	// FindByID decodes the document with the given id into out. Returns a
	// not-found classified error when no document matches.
	FindByID(ctx context.Context, sess Session, collection, id string, out any) error

	// FindByFilter decodes all documents matching filter into out, a
	// pointer to a slice, honoring skip and limit.
	FindByFilter(ctx context.Context, collection string, filter map[string]any, skip, limit int64, out any) error

	// UpdateFields sets the given fields on the document with the given id
	// and returns the modified count. A missing document is zero, not an
	// error.
	UpdateFields(ctx context.Context, sess Session, collection, id string, fields map[string]any) (int64, error)

	// ApplyUpdate applies an operator-style update document (push, pull)
	// and returns the modified count.
	ApplyUpdate(ctx context.Context, sess Session, collection, id string, update any) (int64, error)

	// Replace swaps the full document with the given id and returns the
	// matched count.
	Replace(ctx context.Context, sess Session, collection, id string, doc any) (int64, error)

	// DeleteByID removes the document with the given id and returns the
	// deleted count. A missing document is zero, not an error.
	DeleteByID(ctx context.Context, sess Session, collection, id string) (int64, error)

	// DeleteByIDs removes all documents with the given ids in one call and
	// returns the deleted count.
	DeleteByIDs(ctx context.Context, sess Session, collection string, ids []string) (int64, error)

	// Ping verifies connectivity to the document store.
	Ping(ctx context.Context) error

	// Close releases the underlying client.
	Close(ctx context.Context) error
}

// Session is one open document transaction. Exactly one of Commit or Abort
// must be called, followed by End on every exit path.
type Session interface {
	// Commit makes all staged operations durable.
	Commit(ctx context.Context) error

	// Abort rolls back all staged operations.
	Abort(ctx context.Context) error

	// End releases the session. Safe to call after Commit or Abort.
	End(ctx context.Context)
}

// Config holds document store connection settings.
type Config struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
}

// Validate checks the configuration for required fields.
func (c Config) Validate() error {
	if c.URI == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "docstore", "Validate", "uri is required")
	}
	if c.Database == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "docstore", "Validate", "database is required")
	}
	return nil
}
