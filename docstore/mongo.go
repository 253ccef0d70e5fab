package docstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/booknet/bookgraph/errors"
	"github.com/booknet/bookgraph/metric"
	"github.com/booknet/bookgraph/pkg/retry"
)

// MongoStore implements Store against a MongoDB replica set. Sessions map
// to server-side multi-document transactions, which require a replica set
// or sharded deployment.
type MongoStore struct {
	client  *mongo.Client
	db      *mongo.Database
	logger  *slog.Logger
	metrics *metric.Metrics
}

// SetMetrics attaches per-operation latency recording. Optional; a nil
// receiver field disables observation.
func (s *MongoStore) SetMetrics(m *metric.Metrics) {
	s.metrics = m
}

func (s *MongoStore) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStoreOperation("document", operation, time.Since(start))
	}
}

// Connect creates a MongoDB client and verifies connectivity, retrying
// with backoff so the process survives a store that is still starting up.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*MongoStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.WrapInvalid(err, "MongoStore", "Connect", "create client")
	}

	err = retry.Do(ctx, retry.Connect(), func() error {
		return client.Ping(ctx, nil)
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.WrapTransient(errors.ErrStoreUnavailable, "MongoStore", "Connect",
			fmt.Sprintf("ping %s", cfg.URI))
	}

	logger.Info("connected to document store", "database", cfg.Database)

	return &MongoStore{
		client: client,
		db:     client.Database(cfg.Database),
		logger: logger,
	}, nil
}

// StartSession opens a client session and starts a transaction on it.
func (s *MongoStore) StartSession(ctx context.Context) (Session, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return nil, errors.WrapTransient(err, "MongoStore", "StartSession", "start session")
	}

	if err := sess.StartTransaction(); err != nil {
		sess.EndSession(ctx)
		return nil, errors.WrapTransient(err, "MongoStore", "StartSession", "start transaction")
	}

	return &mongoSession{sess: sess}, nil
}

// opCtx binds ctx to the session's transaction when a session is supplied.
func (s *MongoStore) opCtx(ctx context.Context, sess Session) (context.Context, error) {
	if sess == nil {
		return ctx, nil
	}
	ms, ok := sess.(*mongoSession)
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrSessionClosed, "MongoStore", "opCtx",
			fmt.Sprintf("foreign session type %T", sess))
	}
	return mongo.NewSessionContext(ctx, ms.sess), nil
}

func (s *MongoStore) Insert(ctx context.Context, sess Session, collection string, doc any) (string, error) {
	defer s.observe("insert", time.Now())

	opCtx, err := s.opCtx(ctx, sess)
	if err != nil {
		return "", err
	}

	res, err := s.db.Collection(collection).InsertOne(opCtx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", errors.WrapConflict(errors.ErrDuplicateKey, "MongoStore", "Insert",
				fmt.Sprintf("duplicate document in %s", collection))
		}
		return "", errors.WrapTransient(err, "MongoStore", "Insert", "insert document")
	}

	return insertedID(res.InsertedID), nil
}

func (s *MongoStore) InsertMany(ctx context.Context, sess Session, collection string, docs []any) ([]string, error) {
	defer s.observe("insert_many", time.Now())

	opCtx, err := s.opCtx(ctx, sess)
	if err != nil {
		return nil, err
	}

	res, err := s.db.Collection(collection).InsertMany(opCtx, docs)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, errors.WrapConflict(errors.ErrDuplicateKey, "MongoStore", "InsertMany",
				fmt.Sprintf("duplicate document in %s", collection))
		}
		return nil, errors.WrapTransient(err, "MongoStore", "InsertMany", "insert batch")
	}

	ids := make([]string, len(res.InsertedIDs))
	for i, raw := range res.InsertedIDs {
		ids[i] = insertedID(raw)
	}
	return ids, nil
}

func (s *MongoStore) FindByID(ctx context.Context, sess Session, collection, id string, out any) error {
	defer s.observe("find_by_id", time.Now())

	opCtx, err := s.opCtx(ctx, sess)
	if err != nil {
		return err
	}

	err = s.db.Collection(collection).FindOne(opCtx, bson.M{"_id": id}).Decode(out)
	if err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return errors.WrapInvalid(errors.ErrNotFound, "MongoStore", "FindByID",
				fmt.Sprintf("no document %s in %s", id, collection))
		}
		return errors.WrapTransient(err, "MongoStore", "FindByID", "find document")
	}
	return nil
}

func (s *MongoStore) FindByFilter(
	ctx context.Context, collection string, filter map[string]any, skip, limit int64, out any,
) error {
	defer s.observe("find_by_filter", time.Now())

	findOpts := options.Find().SetSkip(skip)
	if limit > 0 {
		findOpts = findOpts.SetLimit(limit)
	}

	cursor, err := s.db.Collection(collection).Find(ctx, bson.M(filter), findOpts)
	if err != nil {
		return errors.WrapTransient(err, "MongoStore", "FindByFilter", "run query")
	}

	if err := cursor.All(ctx, out); err != nil {
		return errors.WrapTransient(err, "MongoStore", "FindByFilter", "decode results")
	}
	return nil
}

func (s *MongoStore) UpdateFields(
	ctx context.Context, sess Session, collection, id string, fields map[string]any,
) (int64, error) {
	defer s.observe("update_fields", time.Now())

	return s.update(ctx, sess, collection, id, bson.M{"$set": bson.M(fields)}, "UpdateFields")
}

func (s *MongoStore) ApplyUpdate(
	ctx context.Context, sess Session, collection, id string, update any,
) (int64, error) {
	defer s.observe("apply_update", time.Now())

	return s.update(ctx, sess, collection, id, update, "ApplyUpdate")
}

func (s *MongoStore) update(
	ctx context.Context, sess Session, collection, id string, update any, method string,
) (int64, error) {
	opCtx, err := s.opCtx(ctx, sess)
	if err != nil {
		return 0, err
	}

	res, err := s.db.Collection(collection).UpdateOne(opCtx, bson.M{"_id": id}, update)
	if err != nil {
		return 0, errors.WrapTransient(err, "MongoStore", method, "update document")
	}
	// Missing document is a zero count, not an error.
	return res.ModifiedCount, nil
}

func (s *MongoStore) Replace(ctx context.Context, sess Session, collection, id string, doc any) (int64, error) {
	defer s.observe("replace", time.Now())

	opCtx, err := s.opCtx(ctx, sess)
	if err != nil {
		return 0, err
	}

	res, err := s.db.Collection(collection).ReplaceOne(opCtx, bson.M{"_id": id}, doc)
	if err != nil {
		return 0, errors.WrapTransient(err, "MongoStore", "Replace", "replace document")
	}
	return res.MatchedCount, nil
}

func (s *MongoStore) DeleteByID(ctx context.Context, sess Session, collection, id string) (int64, error) {
	defer s.observe("delete_by_id", time.Now())

	opCtx, err := s.opCtx(ctx, sess)
	if err != nil {
		return 0, err
	}

	res, err := s.db.Collection(collection).DeleteOne(opCtx, bson.M{"_id": id})
	if err != nil {
		return 0, errors.WrapTransient(err, "MongoStore", "DeleteByID", "delete document")
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) DeleteByIDs(ctx context.Context, sess Session, collection string, ids []string) (int64, error) {
	defer s.observe("delete_by_ids", time.Now())

	opCtx, err := s.opCtx(ctx, sess)
	if err != nil {
		return 0, err
	}

	res, err := s.db.Collection(collection).DeleteMany(opCtx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, errors.WrapTransient(err, "MongoStore", "DeleteByIDs", "delete batch")
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	defer s.observe("ping", time.Now())

	if err := s.client.Ping(ctx, nil); err != nil {
		return errors.WrapTransient(err, "MongoStore", "Ping", "ping server")
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return errors.WrapTransient(err, "MongoStore", "Close", "disconnect client")
	}
	return nil
}

// insertedID normalizes the driver's inserted id to the string form used
// throughout the repository. Caller-supplied ids come back as strings;
// store-generated ones as ObjectIDs.
func insertedID(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case bson.ObjectID:
		return v.Hex()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// mongoSession wraps one client session with an open transaction.
type mongoSession struct {
	sess *mongo.Session
}

func (m *mongoSession) Commit(ctx context.Context) error {
	if err := m.sess.CommitTransaction(ctx); err != nil {
		return errors.WrapTransient(err, "Session", "Commit", "commit transaction")
	}
	return nil
}

func (m *mongoSession) Abort(ctx context.Context) error {
	if err := m.sess.AbortTransaction(ctx); err != nil {
		return errors.WrapTransient(err, "Session", "Abort", "abort transaction")
	}
	return nil
}

func (m *mongoSession) End(ctx context.Context) {
	m.sess.EndSession(ctx)
}
