package dualwrite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/booknet/bookgraph/docstore"
	"github.com/booknet/bookgraph/errors"
	"github.com/booknet/bookgraph/graphstore"
	"github.com/booknet/bookgraph/metric"
)

// Coordinator drives one logical write across the document and graph
// stores. The document store is the source of truth: its transaction is
// staged first and committed first, so a failed graph commit can still be
// compensated with a document write. The narrow window between the two
// commits is the protocol's accepted inconsistency window.
type Coordinator struct {
	docs    docstore.Store
	graph   graphstore.Store
	logger  *slog.Logger
	metrics *metric.Metrics
}

// New creates a coordinator. metrics may be nil.
func New(docs docstore.Store, graph graphstore.Store, logger *slog.Logger, metrics *metric.Metrics) *Coordinator {
	return &Coordinator{
		docs:    docs,
		graph:   graph,
		logger:  logger,
		metrics: metrics,
	}
}

// Apply runs one mutation to completion: fully applied to both stores,
// fully rolled back, or one of the two documented exceptional outcomes
// (UnknownOutcome on an interrupted commit, PartialFailure when the
// compensating write itself fails).
func (c *Coordinator) Apply(ctx context.Context, m Mutation) (Result, error) {
	start := time.Now()
	writeID := uuid.NewString()

	res, err := c.apply(ctx, writeID, m)

	if c.metrics != nil {
		c.metrics.RecordWrite(string(m.Kind), string(m.Op), outcomeFor(err), time.Since(start))
	}
	return res, err
}

func (c *Coordinator) apply(ctx context.Context, writeID string, m Mutation) (Result, error) {
	if err := m.validate(); err != nil {
		return Result{}, err
	}

	log := c.logger.With("write_id", writeID, "kind", m.Kind, "op", m.Op)

	if m.Graph == nil {
		return c.passThrough(ctx, writeID, m)
	}
	return c.applyDual(ctx, writeID, log, m)
}

// applyDual runs the full dual-store protocol: stage document, stage
// graph, commit document, commit graph, compensating on a failed graph
// commit.
func (c *Coordinator) applyDual(ctx context.Context, writeID string, log *slog.Logger, m Mutation) (Result, error) {
	sess, err := c.docs.StartSession(ctx)
	if err != nil {
		return Result{}, err
	}
	defer sess.End(ctx)

	staged, err := c.stageDocument(ctx, sess, m)
	if err != nil {
		_ = sess.Abort(ctx)
		return Result{}, err
	}

	stmt := m.Graph(staged.ids)
	if stmt == nil {
		// The mutation touches no mirrored fields; the write is
		// document-only even though the kind participates in the graph.
		return c.commitDocumentOnly(ctx, writeID, sess, m, staged)
	}

	gtx, err := c.graph.Begin(ctx)
	if err != nil {
		_ = sess.Abort(ctx)
		return Result{}, err
	}

	// Release the graph transaction on every exit short of a successful
	// graph commit, including a panic further down. Commit and Rollback
	// both latch the transaction closed, so the redundant rollback after
	// a failed commit is a no-op.
	graphCommitted := false
	defer func() {
		if !graphCommitted {
			_ = gtx.Rollback(ctx)
		}
	}()

	if err := c.stageGraph(ctx, gtx, stmt); err != nil {
		_ = sess.Abort(ctx)
		return Result{}, err
	}

	// Document commits first. If this commit is interrupted the outcome is
	// unknown; the graph side is rolled back since it was never committed,
	// and no compensation runs against the document store.
	if err := sess.Commit(ctx); err != nil {
		if errors.Interrupted(err) {
			return Result{}, c.unknownOutcome(writeID, "document", m, err)
		}
		log.Error("document commit failed, graph rolled back", "error", err)
		return Result{}, errors.WrapTransient(errors.ErrCommitFailed, "Coordinator", "Apply",
			"document commit failed")
	}

	if err := gtx.Commit(ctx); err != nil {
		if errors.Interrupted(err) {
			// The graph commit may or may not have been applied; the
			// document commit is durable. Compensating here could undo a
			// write whose graph half actually succeeded.
			return Result{}, c.unknownOutcome(writeID, "graph", m, err)
		}
		return Result{}, c.compensate(ctx, writeID, log, m, staged, err)
	}
	graphCommitted = true

	return Result{WriteID: writeID, IDs: staged.ids, Modified: staged.modified, Deleted: staged.deleted}, nil
}

// stagedWrite carries the effect of the staged document mutation and its
// tagged compensating action. The compensation closure re-derives nothing:
// the prior snapshot it needs was captured during staging.
type stagedWrite struct {
	ids      []string
	modified int64
	deleted  int64
	undo     func(ctx context.Context) error
}

// stageDocument stages the document half of the mutation inside the
// session and captures the compensating action for a post-commit reversal:
// delete for an insert, restore-previous for an update, re-insert for a
// delete.
func (c *Coordinator) stageDocument(ctx context.Context, sess docstore.Session, m Mutation) (stagedWrite, error) {
	switch m.Op {
	case OpInsert:
		id, err := c.docs.Insert(ctx, sess, m.Collection, m.Docs[0])
		if err != nil {
			return stagedWrite{}, err
		}
		return stagedWrite{
			ids: []string{id},
			undo: func(ctx context.Context) error {
				_, err := c.docs.DeleteByID(ctx, nil, m.Collection, id)
				return err
			},
		}, nil

	case OpInsertMany:
		ids, err := c.docs.InsertMany(ctx, sess, m.Collection, m.Docs)
		if err != nil {
			return stagedWrite{}, err
		}
		return stagedWrite{
			ids: ids,
			undo: func(ctx context.Context) error {
				_, err := c.docs.DeleteByIDs(ctx, nil, m.Collection, ids)
				return err
			},
		}, nil

	case OpUpdate:
		id := m.IDs[0]
		prev := map[string]any{}
		if err := c.docs.FindByID(ctx, sess, m.Collection, id, &prev); err != nil {
			return stagedWrite{}, err
		}

		var modified int64
		var err error
		if m.UpdateDoc != nil {
			modified, err = c.docs.ApplyUpdate(ctx, sess, m.Collection, id, m.UpdateDoc)
		} else {
			modified, err = c.docs.UpdateFields(ctx, sess, m.Collection, id, m.Fields)
		}
		if err != nil {
			return stagedWrite{}, err
		}
		return stagedWrite{
			ids:      []string{id},
			modified: modified,
			undo: func(ctx context.Context) error {
				_, err := c.docs.Replace(ctx, nil, m.Collection, id, prev)
				return err
			},
		}, nil

	case OpDelete:
		id := m.IDs[0]
		prev := map[string]any{}
		if err := c.docs.FindByID(ctx, sess, m.Collection, id, &prev); err != nil {
			return stagedWrite{}, err
		}

		deleted, err := c.docs.DeleteByID(ctx, sess, m.Collection, id)
		if err != nil {
			return stagedWrite{}, err
		}
		return stagedWrite{
			ids:     []string{id},
			deleted: deleted,
			undo: func(ctx context.Context) error {
				_, err := c.docs.Insert(ctx, nil, m.Collection, prev)
				return err
			},
		}, nil

	case OpDeleteMany:
		prevs := make([]any, 0, len(m.IDs))
		for _, id := range m.IDs {
			prev := map[string]any{}
			if err := c.docs.FindByID(ctx, sess, m.Collection, id, &prev); err != nil {
				return stagedWrite{}, err
			}
			prevs = append(prevs, prev)
		}

		deleted, err := c.docs.DeleteByIDs(ctx, sess, m.Collection, m.IDs)
		if err != nil {
			return stagedWrite{}, err
		}
		return stagedWrite{
			ids:     m.IDs,
			deleted: deleted,
			undo: func(ctx context.Context) error {
				_, err := c.docs.InsertMany(ctx, nil, m.Collection, prevs)
				return err
			},
		}, nil

	default:
		return stagedWrite{}, errors.WrapInvalid(errors.ErrInvalidKey, "Coordinator", "stageDocument",
			fmt.Sprintf("unknown operation %q", m.Op))
	}
}

// stageGraph runs the graph statement inside the open transaction. A
// count-returning statement matching fewer nodes than expected is a hard
// failure: the stores must not silently diverge by writing one side when
// the counterpart node is missing.
func (c *Coordinator) stageGraph(ctx context.Context, gtx graphstore.Tx, stmt *graphstore.Statement) error {
	if stmt.Expect <= 0 {
		return gtx.Run(ctx, stmt)
	}

	count, err := gtx.RunCount(ctx, stmt)
	if err != nil {
		return err
	}
	if count < stmt.Expect {
		return errors.WrapInvalid(errors.ErrGraphEntityMissing, "Coordinator", "Apply",
			fmt.Sprintf("graph matched %d of %d nodes", count, stmt.Expect))
	}
	return nil
}

// commitDocumentOnly finishes a staged write whose graph statement turned
// out to be nil.
func (c *Coordinator) commitDocumentOnly(
	ctx context.Context, writeID string, sess docstore.Session, m Mutation, staged stagedWrite,
) (Result, error) {
	if err := sess.Commit(ctx); err != nil {
		if errors.Interrupted(err) {
			return Result{}, c.unknownOutcome(writeID, "document", m, err)
		}
		return Result{}, errors.WrapTransient(errors.ErrCommitFailed, "Coordinator", "Apply",
			"document commit failed")
	}
	return Result{WriteID: writeID, IDs: staged.ids, Modified: staged.modified, Deleted: staged.deleted}, nil
}

// compensate reverses the committed document write after a failed graph
// commit. A successful reversal is reported as an ordinary failure; a
// failed one is a PartialFailure that must never be downgraded.
func (c *Coordinator) compensate(
	ctx context.Context, writeID string, log *slog.Logger, m Mutation, staged stagedWrite, commitErr error,
) error {
	log.Warn("graph commit failed, compensating document store", "error", commitErr)

	undoErr := staged.undo(ctx)
	if c.metrics != nil {
		c.metrics.RecordCompensation(string(m.Kind), undoErr == nil)
	}

	if undoErr != nil {
		log.Error("compensation failed, stores inconsistent",
			"key", m.key(), "commit_error", commitErr, "compensate_error", undoErr)
		return &errors.PartialFailure{
			WriteID:       writeID,
			Kind:          string(m.Kind),
			Key:           m.key(),
			Authoritative: "document",
			CommitErr:     commitErr,
			CompensateErr: undoErr,
		}
	}

	log.Info("compensation applied, document change reversed", "key", m.key())
	return errors.WrapTransient(errors.ErrGraphStore, "Coordinator", "Apply",
		"graph commit failed, document change reversed")
}

func (c *Coordinator) unknownOutcome(writeID, store string, m Mutation, err error) error {
	if c.metrics != nil {
		c.metrics.RecordUnknownOutcome(string(m.Kind), store)
	}
	return &errors.UnknownOutcome{
		WriteID: writeID,
		Store:   store,
		Kind:    string(m.Kind),
		Key:     m.key(),
		Err:     err,
	}
}

// passThrough applies a mutation for a kind with no graph participation
// directly against the document store, without a session.
func (c *Coordinator) passThrough(ctx context.Context, writeID string, m Mutation) (Result, error) {
	switch m.Op {
	case OpInsert:
		id, err := c.docs.Insert(ctx, nil, m.Collection, m.Docs[0])
		if err != nil {
			return Result{}, err
		}
		return Result{WriteID: writeID, IDs: []string{id}}, nil

	case OpInsertMany:
		ids, err := c.docs.InsertMany(ctx, nil, m.Collection, m.Docs)
		if err != nil {
			return Result{}, err
		}
		return Result{WriteID: writeID, IDs: ids}, nil

	case OpUpdate:
		id := m.IDs[0]
		// A presence check first, so an unchanged document is not mistaken
		// for a missing one by its zero modified count.
		probe := map[string]any{}
		if err := c.docs.FindByID(ctx, nil, m.Collection, id, &probe); err != nil {
			return Result{}, err
		}

		var modified int64
		var err error
		if m.UpdateDoc != nil {
			modified, err = c.docs.ApplyUpdate(ctx, nil, m.Collection, id, m.UpdateDoc)
		} else {
			modified, err = c.docs.UpdateFields(ctx, nil, m.Collection, id, m.Fields)
		}
		if err != nil {
			return Result{}, err
		}
		return Result{WriteID: writeID, IDs: []string{id}, Modified: modified}, nil

	case OpDelete:
		deleted, err := c.docs.DeleteByID(ctx, nil, m.Collection, m.IDs[0])
		if err != nil {
			return Result{}, err
		}
		if deleted == 0 {
			return Result{}, errors.WrapInvalid(errors.ErrNotFound, "Coordinator", "Apply",
				fmt.Sprintf("no document %s in %s", m.IDs[0], m.Collection))
		}
		return Result{WriteID: writeID, IDs: m.IDs, Deleted: deleted}, nil

	case OpDeleteMany:
		deleted, err := c.docs.DeleteByIDs(ctx, nil, m.Collection, m.IDs)
		if err != nil {
			return Result{}, err
		}
		return Result{WriteID: writeID, IDs: m.IDs, Deleted: deleted}, nil

	default:
		return Result{}, errors.WrapInvalid(errors.ErrInvalidKey, "Coordinator", "Apply",
			fmt.Sprintf("unknown operation %q", m.Op))
	}
}

// outcomeFor maps a final error to the metrics outcome label.
func outcomeFor(err error) string {
	switch {
	case err == nil:
		return metric.OutcomeApplied
	case isUnknown(err):
		return metric.OutcomeUnknown
	case isPartial(err):
		return metric.OutcomePartial
	case errors.IsNotFound(err) || errors.IsInvalid(err):
		return metric.OutcomeRejected
	default:
		return metric.OutcomeFailed
	}
}

func isUnknown(err error) bool {
	_, ok := errors.IsUnknownOutcome(err)
	return ok
}

func isPartial(err error) bool {
	_, ok := errors.IsPartialFailure(err)
	return ok
}
