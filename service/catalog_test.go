package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booknet/bookgraph/dualwrite"
	"github.com/booknet/bookgraph/entity"
	"github.com/booknet/bookgraph/errors"
	"github.com/booknet/bookgraph/testutil"
)

type fixture struct {
	docs  *testutil.FakeDocStore
	graph *testutil.FakeGraphStore
	cache *testutil.FakeCache
	deps  Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	docs := testutil.NewFakeDocStore()
	graph := testutil.NewFakeGraphStore()
	fc := testutil.NewFakeCache()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		docs:  docs,
		graph: graph,
		cache: fc,
		deps: Deps{
			Docs:   docs,
			Coord:  dualwrite.New(docs, graph, logger, nil),
			Cache:  fc,
			Logger: logger,
		},
	}
}

func TestGenreCreateWritesBothStoresAndCache(t *testing.T) {
	fx := newFixture(t)
	svc := NewGenre(fx.deps)

	err := svc.Create(context.Background(), entity.Genre{
		Name:        "science fiction",
		Description: "imagined futures",
	})
	require.NoError(t, err)

	raw := fx.docs.Document(entity.CollectionMetadata, "genre:science fiction")
	require.NotNil(t, raw)

	stmts := fx.graph.CommittedStatements()
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0].Query, "CREATE (n:Genre)")

	assert.True(t, fx.cache.Has("booknet:genre:science fiction"))
	assert.False(t, fx.cache.Has("booknet:genre:list"))
}

func TestGenreGetCacheHitSkipsStore(t *testing.T) {
	fx := newFixture(t)
	svc := NewGenre(fx.deps)
	ctx := context.Background()

	fx.docs.Seed(entity.CollectionMetadata, entity.Genre{
		ID: "genre:fantasy", Kind: entity.KindGenre, Name: "fantasy",
	})

	first, err := svc.Get(ctx, "fantasy")
	require.NoError(t, err)

	second, err := svc.Get(ctx, "fantasy")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fx.docs.Calls["FindByID"])
}

func TestGenreListCachesResult(t *testing.T) {
	fx := newFixture(t)
	svc := NewGenre(fx.deps)
	ctx := context.Background()

	fx.docs.Seed(entity.CollectionMetadata, entity.Genre{
		ID: "genre:fantasy", Kind: entity.KindGenre, Name: "fantasy",
	})
	fx.docs.Seed(entity.CollectionMetadata, entity.Genre{
		ID: "genre:horror", Kind: entity.KindGenre, Name: "horror",
	})
	fx.docs.Seed(entity.CollectionMetadata, entity.Language{
		ID: "language:en", Kind: entity.KindLanguage, Code: "en", Name: "English",
	})

	genres, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, genres, 2)

	_, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fx.docs.Calls["FindByFilter"])
}

func TestGenreUpdateRefreshesItemAndEvictsList(t *testing.T) {
	fx := newFixture(t)
	svc := NewGenre(fx.deps)
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, entity.Genre{Name: "horror", Description: "old"}))
	_, err := svc.List(ctx)
	require.NoError(t, err)
	require.True(t, fx.cache.Has("booknet:genre:list"))

	require.NoError(t, svc.Update(ctx, "horror", "dread and the uncanny"))

	assert.False(t, fx.cache.Has("booknet:genre:list"))

	data, ok := fx.cache.Get("booknet:genre:horror")
	require.True(t, ok)
	var g entity.Genre
	require.NoError(t, json.Unmarshal(data, &g))
	assert.Equal(t, "dread and the uncanny", g.Description)
}

func TestGenreUpdateMissingGraphNode(t *testing.T) {
	fx := newFixture(t)
	svc := NewGenre(fx.deps)
	ctx := context.Background()

	fx.docs.Seed(entity.CollectionMetadata, entity.Genre{
		ID: "genre:horror", Kind: entity.KindGenre, Name: "horror", Description: "old",
	})
	zero := int64(0)
	fx.graph.MatchedCount = &zero

	err := svc.Update(ctx, "horror", "new")
	require.ErrorIs(t, err, errors.ErrGraphEntityMissing)

	var g entity.Genre
	require.NoError(t, json.Unmarshal(fx.docs.Document(entity.CollectionMetadata, "genre:horror"), &g))
	assert.Equal(t, "old", g.Description)
}

func TestGenreDeleteEvictsBothKeysEvenWhenMissing(t *testing.T) {
	fx := newFixture(t)
	svc := NewGenre(fx.deps)

	fx.cache.Set("booknet:genre:ghost", []byte(`{}`))
	fx.cache.Set("booknet:genre:list", []byte(`[]`))

	err := svc.Delete(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	assert.False(t, fx.cache.Has("booknet:genre:ghost"))
	assert.False(t, fx.cache.Has("booknet:genre:list"))
}

func TestLanguageWritesSkipGraph(t *testing.T) {
	fx := newFixture(t)
	svc := NewLanguage(fx.deps)
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, entity.Language{Code: "en", Name: "English"}))
	require.NoError(t, svc.Update(ctx, "en", "English (US)"))
	require.NoError(t, svc.Delete(ctx, "en"))

	assert.Equal(t, 0, fx.graph.BeginCalls)
	assert.Equal(t, 0, fx.docs.Calls["StartSession"])
}

func TestPublisherRoundTrip(t *testing.T) {
	fx := newFixture(t)
	svc := NewPublisher(fx.deps)
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, entity.Publisher{Name: "Tor", Website: "https://tor.example"}))

	p, err := svc.Get(ctx, "Tor")
	require.NoError(t, err)
	assert.Equal(t, "publisher:Tor", p.ID)
	assert.Equal(t, "https://tor.example", p.Website)

	require.NoError(t, svc.Delete(ctx, "Tor"))
	_, err = svc.Get(ctx, "Tor")
	assert.True(t, errors.IsNotFound(err))
}

func TestMetadataKeyWithSeparatorRejected(t *testing.T) {
	fx := newFixture(t)
	svc := NewSource(fx.deps)

	err := svc.Create(context.Background(), entity.Source{Name: "bad:name"})
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.Equal(t, 0, fx.docs.Calls["Insert"])
}

func TestCacheFailuresNeverFailOperations(t *testing.T) {
	fx := newFixture(t)
	fx.cache.SetErr = assert.AnError
	fx.cache.DeleteErr = assert.AnError
	svc := NewGenre(fx.deps)
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, entity.Genre{Name: "western"}))

	g, err := svc.Get(ctx, "western")
	require.NoError(t, err)
	assert.Equal(t, "western", g.Name)

	require.NoError(t, svc.Update(ctx, "western", "frontier tales"))
	require.NoError(t, svc.Delete(ctx, "western"))
}
