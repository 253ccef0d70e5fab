package testutil

import (
	"context"
	"sync"

	"github.com/booknet/bookgraph/errors"
	"github.com/booknet/bookgraph/graphstore"
)

// FakeGraphStore is an in-memory graphstore.Store. It records committed
// statements so tests can assert on the graph side of a write, and injects
// failures at begin, run and commit.
type FakeGraphStore struct {
	mu sync.Mutex

	BeginErr  error
	RunErr    error
	CommitErr error

	// MatchedCount overrides the count returned by RunCount. When nil the
	// statement's own Expect value is returned, simulating a full match.
	MatchedCount *int64

	Committed  [][]*graphstore.Statement
	Rollbacks  int
	BeginCalls int
}

// NewFakeGraphStore creates an empty in-memory graph store.
func NewFakeGraphStore() *FakeGraphStore {
	return &FakeGraphStore{}
}

// CommittedStatements flattens all committed transactions.
func (f *FakeGraphStore) CommittedStatements() []*graphstore.Statement {
	f.mu.Lock()
	defer f.mu.Unlock()

	var all []*graphstore.Statement
	for _, tx := range f.Committed {
		all = append(all, tx...)
	}
	return all
}

func (f *FakeGraphStore) Begin(_ context.Context) (graphstore.Tx, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.BeginCalls++
	if f.BeginErr != nil {
		return nil, f.BeginErr
	}
	return &FakeGraphTx{store: f}, nil
}

func (f *FakeGraphStore) Ping(_ context.Context) error {
	return nil
}

func (f *FakeGraphStore) Close(_ context.Context) error {
	return nil
}

// FakeGraphTx is one open fake transaction.
type FakeGraphTx struct {
	store  *FakeGraphStore
	stmts  []*graphstore.Statement
	closed bool
}

func (t *FakeGraphTx) Run(_ context.Context, stmt *graphstore.Statement) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if t.closed {
		return errors.ErrTxClosed
	}
	if t.store.RunErr != nil {
		return t.store.RunErr
	}
	t.stmts = append(t.stmts, stmt)
	return nil
}

func (t *FakeGraphTx) RunCount(_ context.Context, stmt *graphstore.Statement) (int64, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if t.closed {
		return 0, errors.ErrTxClosed
	}
	if t.store.RunErr != nil {
		return 0, t.store.RunErr
	}
	t.stmts = append(t.stmts, stmt)

	if t.store.MatchedCount != nil {
		return *t.store.MatchedCount, nil
	}
	return stmt.Expect, nil
}

func (t *FakeGraphTx) Commit(_ context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if t.closed {
		return errors.ErrTxClosed
	}
	t.closed = true

	if t.store.CommitErr != nil {
		return t.store.CommitErr
	}

	t.store.Committed = append(t.store.Committed, t.stmts)
	return nil
}

func (t *FakeGraphTx) Rollback(_ context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if t.closed {
		return errors.ErrTxClosed
	}
	t.closed = true
	t.store.Rollbacks++
	return nil
}
