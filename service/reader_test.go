package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booknet/bookgraph/entity"
	"github.com/booknet/bookgraph/errors"
)

func TestReaderCreateMirrorsGraph(t *testing.T) {
	fx := newFixture(t)
	svc := NewReader(fx.deps)

	id, err := svc.Create(context.Background(), entity.Reader{
		Name:  "sam",
		Email: "sam@example.com",
	})
	require.NoError(t, err)
	require.NoError(t, entity.ValidateDocumentID(id))

	stmts := fx.graph.CommittedStatements()
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0].Query, "CREATE (n:Reader)")
	props := stmts[0].Params["props"].(map[string]any)
	assert.Equal(t, id, props["reader_id"])
}

func TestReaderShelfRoundTrip(t *testing.T) {
	fx := newFixture(t)
	svc := NewReader(fx.deps)
	ctx := context.Background()

	id := entity.NewDocumentID()
	fx.docs.Seed(entity.CollectionReaders, entity.Reader{ID: id, Name: "sam"})

	require.NoError(t, svc.AddToShelf(ctx, id, "b1"))

	r, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, r.Shelf)

	stmts := fx.graph.CommittedStatements()
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0].Query, "ADDED_TO_SHELF")

	require.NoError(t, svc.RemoveFromShelf(ctx, id, "b1"))

	r, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, r.Shelf)
}

func TestReaderRateRecordsScore(t *testing.T) {
	fx := newFixture(t)
	svc := NewReader(fx.deps)
	ctx := context.Background()

	id := entity.NewDocumentID()
	fx.docs.Seed(entity.CollectionReaders, entity.Reader{ID: id, Name: "sam"})

	require.NoError(t, svc.Rate(ctx, id, "b1", 5))

	r, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, r.Ratings, 1)
	assert.Equal(t, entity.Rating{BookID: "b1", Score: 5}, r.Ratings[0])

	stmts := fx.graph.CommittedStatements()
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0].Query, "RATED")
	assert.Equal(t, 5, stmts[0].Params["score"])
}

func TestReaderShelfAddMissingReader(t *testing.T) {
	fx := newFixture(t)
	svc := NewReader(fx.deps)
	ctx := context.Background()

	id := entity.NewDocumentID()
	fx.docs.Seed(entity.CollectionReaders, entity.Reader{ID: id, Name: "sam"})

	zero := int64(0)
	fx.graph.MatchedCount = &zero

	err := svc.AddToShelf(ctx, id, "b1")
	require.ErrorIs(t, err, errors.ErrGraphEntityMissing)

	// document change staged in the session never became visible
	var r entity.Reader
	require.NoError(t, fx.docs.FindByID(ctx, nil, entity.CollectionReaders, id, &r))
	assert.Empty(t, r.Shelf)
}

func TestReaderDeleteEvictsCache(t *testing.T) {
	fx := newFixture(t)
	svc := NewReader(fx.deps)
	ctx := context.Background()

	id := entity.NewDocumentID()
	fx.docs.Seed(entity.CollectionReaders, entity.Reader{ID: id, Name: "sam"})

	_, err := svc.Get(ctx, id)
	require.NoError(t, err)
	_, err = svc.List(ctx)
	require.NoError(t, err)
	require.True(t, fx.cache.Has("booknet:reader:"+id))

	require.NoError(t, svc.Delete(ctx, id))

	assert.False(t, fx.cache.Has("booknet:reader:"+id))
	assert.False(t, fx.cache.Has("booknet:reader:list"))
	assert.Equal(t, 0, fx.docs.Count(entity.CollectionReaders))

	stmts := fx.graph.CommittedStatements()
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0].Query, "DETACH DELETE")
}
