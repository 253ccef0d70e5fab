//go:build integration

package docstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/booknet/bookgraph/entity"
	"github.com/booknet/bookgraph/errors"
)

type catalogDoc struct {
	ID     string `bson:"_id"`
	Title  string `bson:"title"`
	Rating int    `bson:"rating"`
}

// startMongoContainer runs MongoDB as a single-node replica set, which is
// the minimum deployment that supports multi-document transactions.
func startMongoContainer(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
		Cmd:          []string{"--replSet", "rs0", "--bind_ip_all"},
	}

	mongoContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	code, _, err := mongoContainer.Exec(ctx, []string{"mongosh", "--quiet", "--eval", "rs.initiate()"})
	require.NoError(t, err)
	require.Equal(t, 0, code)

	host, err := mongoContainer.Host(ctx)
	require.NoError(t, err)

	port, err := mongoContainer.MappedPort(ctx, "27017")
	require.NoError(t, err)

	uri := fmt.Sprintf("mongodb://%s:%s/?directConnection=true", host, port.Port())
	return mongoContainer, uri
}

// connectMongo dials the container and blocks until the replica set has
// elected a primary, which is when transactions start succeeding.
func connectMongo(ctx context.Context, t *testing.T, uri string) *MongoStore {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := Connect(ctx, Config{URI: uri, Database: "booknet_it"}, logger)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		sess, err := store.StartSession(ctx)
		if err != nil {
			return false
		}
		defer sess.End(ctx)
		if _, err := store.Insert(ctx, sess, "warmup", catalogDoc{ID: entity.NewDocumentID()}); err != nil {
			_ = sess.Abort(ctx)
			return false
		}
		return sess.Commit(ctx) == nil
	}, 60*time.Second, 500*time.Millisecond, "replica set never elected a primary")

	return store
}

func TestIntegration_MongoCRUDRoundTrip(t *testing.T) {
	ctx := context.Background()

	mongoContainer, uri := startMongoContainer(ctx, t)
	defer mongoContainer.Terminate(ctx)

	store := connectMongo(ctx, t, uri)
	defer store.Close(ctx)

	// Client-assigned string ids must survive the driver round trip: a
	// stored _id that came back ObjectID-typed would never match the
	// string filters used by every other operation.
	doc := catalogDoc{ID: entity.NewDocumentID(), Title: "The Dispossessed", Rating: 5}

	id, err := store.Insert(ctx, nil, "books", doc)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, id)

	var got catalogDoc
	require.NoError(t, store.FindByID(ctx, nil, "books", doc.ID, &got))
	assert.Equal(t, doc, got)

	modified, err := store.UpdateFields(ctx, nil, "books", doc.ID, map[string]any{"rating": 4})
	require.NoError(t, err)
	assert.Equal(t, int64(1), modified)

	require.NoError(t, store.FindByID(ctx, nil, "books", doc.ID, &got))
	assert.Equal(t, 4, got.Rating)

	matched, err := store.Replace(ctx, nil, "books", doc.ID, catalogDoc{ID: doc.ID, Title: "The Lathe of Heaven", Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched)

	var all []catalogDoc
	require.NoError(t, store.FindByFilter(ctx, "books", map[string]any{"title": "The Lathe of Heaven"}, 0, 10, &all))
	require.Len(t, all, 1)

	deleted, err := store.DeleteByID(ctx, nil, "books", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	err = store.FindByID(ctx, nil, "books", doc.ID, &got)
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}

func TestIntegration_MongoSessionCommitAndAbort(t *testing.T) {
	ctx := context.Background()

	mongoContainer, uri := startMongoContainer(ctx, t)
	defer mongoContainer.Terminate(ctx)

	store := connectMongo(ctx, t, uri)
	defer store.Close(ctx)

	aborted := catalogDoc{ID: entity.NewDocumentID(), Title: "discarded"}
	sess, err := store.StartSession(ctx)
	require.NoError(t, err)
	_, err = store.Insert(ctx, sess, "books", aborted)
	require.NoError(t, err)
	require.NoError(t, sess.Abort(ctx))
	sess.End(ctx)

	var got catalogDoc
	err = store.FindByID(ctx, nil, "books", aborted.ID, &got)
	assert.True(t, stderrors.Is(err, errors.ErrNotFound), "aborted insert must not be visible")

	committed := catalogDoc{ID: entity.NewDocumentID(), Title: "kept"}
	sess, err = store.StartSession(ctx)
	require.NoError(t, err)
	_, err = store.Insert(ctx, sess, "books", committed)
	require.NoError(t, err)
	require.NoError(t, sess.Commit(ctx))
	sess.End(ctx)

	require.NoError(t, store.FindByID(ctx, nil, "books", committed.ID, &got))
	assert.Equal(t, "kept", got.Title)
}

func TestIntegration_MongoMissingDocumentCounts(t *testing.T) {
	ctx := context.Background()

	mongoContainer, uri := startMongoContainer(ctx, t)
	defer mongoContainer.Terminate(ctx)

	store := connectMongo(ctx, t, uri)
	defer store.Close(ctx)

	absent := entity.NewDocumentID()

	modified, err := store.UpdateFields(ctx, nil, "books", absent, map[string]any{"rating": 1})
	require.NoError(t, err)
	assert.Zero(t, modified)

	deleted, err := store.DeleteByID(ctx, nil, "books", absent)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
