package graphstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/booknet/bookgraph/errors"
	"github.com/booknet/bookgraph/metric"
	"github.com/booknet/bookgraph/pkg/retry"
)

// Neo4jStore implements Store against a Neo4j server.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
	metrics  *metric.Metrics
}

// SetMetrics attaches per-operation latency recording. Optional; a nil
// receiver field disables observation.
func (s *Neo4jStore) SetMetrics(m *metric.Metrics) {
	s.metrics = m
}

func (s *Neo4jStore) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStoreOperation("graph", operation, time.Since(start))
	}
}

// Connect creates a Neo4j driver and verifies connectivity, retrying with
// backoff so the process survives a store that is still starting up.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Neo4jStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, errors.WrapInvalid(err, "Neo4jStore", "Connect", "create driver")
	}

	err = retry.Do(ctx, retry.Connect(), func() error {
		return driver.VerifyConnectivity(ctx)
	})
	if err != nil {
		_ = driver.Close(ctx)
		return nil, errors.WrapTransient(errors.ErrStoreUnavailable, "Neo4jStore", "Connect",
			fmt.Sprintf("verify connectivity to %s", cfg.URI))
	}

	logger.Info("connected to graph store", "uri", cfg.URI, "database", cfg.Database)

	return &Neo4jStore{
		driver:   driver,
		database: cfg.Database,
		logger:   logger,
	}, nil
}

// Begin opens a write session and an explicit transaction on it. The
// returned Tx owns the session and closes it on Commit or Rollback.
func (s *Neo4jStore) Begin(ctx context.Context) (Tx, error) {
	defer s.observe("begin", time.Now())

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})

	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		_ = session.Close(ctx)
		return nil, errors.WrapTransient(err, "Neo4jStore", "Begin", "begin transaction")
	}

	return &neo4jTx{session: session, tx: tx, observe: s.observe}, nil
}

// Ping verifies the store is reachable.
func (s *Neo4jStore) Ping(ctx context.Context) error {
	defer s.observe("ping", time.Now())

	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return errors.WrapTransient(err, "Neo4jStore", "Ping", "verify connectivity")
	}
	return nil
}

// Close releases the underlying driver.
func (s *Neo4jStore) Close(ctx context.Context) error {
	if err := s.driver.Close(ctx); err != nil {
		return errors.WrapTransient(err, "Neo4jStore", "Close", "close driver")
	}
	return nil
}

// neo4jTx wraps one explicit neo4j transaction and its owning session.
type neo4jTx struct {
	session neo4j.SessionWithContext
	tx      neo4j.ExplicitTransaction
	observe func(operation string, start time.Time)

	mu     sync.Mutex
	closed bool
}

func (t *neo4jTx) Run(ctx context.Context, stmt *Statement) error {
	defer t.observe("run", time.Now())

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errors.WrapInvalid(errors.ErrTxClosed, "Tx", "Run", "transaction already closed")
	}

	result, err := t.tx.Run(ctx, stmt.Query, stmt.Params)
	if err != nil {
		return errors.WrapTransient(err, "Tx", "Run", "run statement")
	}
	// Drain the stream so the server surfaces statement errors now rather
	// than at commit time.
	if _, err := result.Consume(ctx); err != nil {
		return errors.WrapTransient(err, "Tx", "Run", "consume result")
	}
	return nil
}

func (t *neo4jTx) RunCount(ctx context.Context, stmt *Statement) (int64, error) {
	defer t.observe("run_count", time.Now())

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, errors.WrapInvalid(errors.ErrTxClosed, "Tx", "RunCount", "transaction already closed")
	}

	result, err := t.tx.Run(ctx, stmt.Query, stmt.Params)
	if err != nil {
		return 0, errors.WrapTransient(err, "Tx", "RunCount", "run statement")
	}

	record, err := result.Single(ctx)
	if err != nil {
		return 0, errors.WrapTransient(err, "Tx", "RunCount", "read count record")
	}

	value, ok := record.Get("matched")
	if !ok {
		return 0, errors.WrapInvalid(errors.ErrGraphStore, "Tx", "RunCount",
			"statement did not return a matched column")
	}

	count, ok := value.(int64)
	if !ok {
		return 0, errors.WrapInvalid(errors.ErrGraphStore, "Tx", "RunCount",
			fmt.Sprintf("matched column has type %T, want int64", value))
	}

	return count, nil
}

func (t *neo4jTx) Commit(ctx context.Context) error {
	defer t.observe("commit", time.Now())

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errors.WrapInvalid(errors.ErrTxClosed, "Tx", "Commit", "transaction already closed")
	}
	t.closed = true

	err := t.tx.Commit(ctx)
	_ = t.session.Close(ctx)
	if err != nil {
		return errors.WrapTransient(err, "Tx", "Commit", "commit transaction")
	}
	return nil
}

func (t *neo4jTx) Rollback(ctx context.Context) error {
	defer t.observe("rollback", time.Now())

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errors.WrapInvalid(errors.ErrTxClosed, "Tx", "Rollback", "transaction already closed")
	}
	t.closed = true

	err := t.tx.Rollback(ctx)
	_ = t.session.Close(ctx)
	if err != nil {
		return errors.WrapTransient(err, "Tx", "Rollback", "rollback transaction")
	}
	return nil
}
