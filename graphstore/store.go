package graphstore

import (
	"context"

	"github.com/booknet/bookgraph/errors"
)

// Store is the graph store adapter. Callers open an explicit transaction,
// run one or more statements inside it, and finish with exactly one of
// Commit or Rollback. Transaction handles are single-owner and must never
// be shared across goroutines.
type Store interface {
	// Begin opens a new write transaction.
	Begin(ctx context.Context) (Tx, error)

	// Ping verifies connectivity to the graph store.
	Ping(ctx context.Context) error

	// Close releases the underlying driver.
	Close(ctx context.Context) error
}

// Tx is one open graph transaction. After Commit or Rollback the handle is
// closed and every further call returns ErrTxClosed.
type Tx interface {
	// Run stages a mutation within the open transaction.
	Run(ctx context.Context, stmt *Statement) error

	// RunCount stages a mutation and returns the value of the "matched"
	// count column, used to detect zero-match updates and deletes.
	RunCount(ctx context.Context, stmt *Statement) (int64, error)

	// Commit makes all staged mutations durable and closes the transaction.
	Commit(ctx context.Context) error

	// Rollback discards all staged mutations and closes the transaction.
	Rollback(ctx context.Context) error
}

// Config holds graph store connection settings.
type Config struct {
	URI      string `json:"uri"`
	Username string `json:"username"`
	Password string `json:"password"`
	Database string `json:"database"`
}

// Validate checks the configuration for required fields.
func (c Config) Validate() error {
	if c.URI == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "graphstore", "Validate", "uri is required")
	}
	if c.Database == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "graphstore", "Validate", "database is required")
	}
	return nil
}
