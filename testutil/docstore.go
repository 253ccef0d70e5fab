package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/booknet/bookgraph/docstore"
	"github.com/booknet/bookgraph/errors"
)

// FakeDocStore is an in-memory docstore.Store for coordinator and service
// tests. Documents are held as JSON so decode targets behave like the real
// driver's. Error fields inject failures at specific phases; Calls counts
// operations by method name.
type FakeDocStore struct {
	mu          sync.Mutex
	collections map[string]map[string]json.RawMessage

	FailStartSession error
	FailInsert       error
	FailFind         error
	FailUpdate       error
	FailDelete       error
	CommitErr        error

	Calls map[string]int
}

// NewFakeDocStore creates an empty in-memory document store.
func NewFakeDocStore() *FakeDocStore {
	return &FakeDocStore{
		collections: make(map[string]map[string]json.RawMessage),
		Calls:       make(map[string]int),
	}
}

// Seed stores a document directly, bypassing sessions and failure injection.
func (f *FakeDocStore) Seed(collection string, doc any) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, raw := encodeDoc(doc)
	f.coll(f.collections, collection)[id] = raw
	return id
}

// Document returns the raw stored document, or nil when absent.
func (f *FakeDocStore) Document(collection, id string) json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.coll(f.collections, collection)[id]
}

// Count returns the number of documents in a collection.
func (f *FakeDocStore) Count(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.coll(f.collections, collection))
}

func (f *FakeDocStore) coll(
	set map[string]map[string]json.RawMessage, name string,
) map[string]json.RawMessage {
	c, ok := set[name]
	if !ok {
		c = make(map[string]json.RawMessage)
		set[name] = c
	}
	return c
}

func (f *FakeDocStore) record(method string) {
	f.Calls[method]++
}

// StartSession opens a session over a deep copy of the store. Staged
// operations observe their own writes and replace the live data on Commit.
func (f *FakeDocStore) StartSession(_ context.Context) (docstore.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("StartSession")

	if f.FailStartSession != nil {
		return nil, f.FailStartSession
	}

	staged := make(map[string]map[string]json.RawMessage, len(f.collections))
	for name, c := range f.collections {
		copied := make(map[string]json.RawMessage, len(c))
		for id, raw := range c {
			copied[id] = raw
		}
		staged[name] = copied
	}

	return &FakeSession{store: f, staged: staged}, nil
}

// target resolves the collection set an operation runs against: the
// session's staged copy when a session is supplied, the live data otherwise.
func (f *FakeDocStore) target(sess docstore.Session) (map[string]map[string]json.RawMessage, error) {
	if sess == nil {
		return f.collections, nil
	}
	fs, ok := sess.(*FakeSession)
	if !ok {
		return nil, fmt.Errorf("foreign session type %T", sess)
	}
	if fs.closed {
		return nil, errors.ErrSessionClosed
	}
	return fs.staged, nil
}

func (f *FakeDocStore) Insert(_ context.Context, sess docstore.Session, collection string, doc any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Insert")

	if f.FailInsert != nil {
		return "", f.FailInsert
	}

	set, err := f.target(sess)
	if err != nil {
		return "", err
	}

	id, raw := encodeDoc(doc)
	c := f.coll(set, collection)
	if _, exists := c[id]; exists {
		return "", errors.WrapConflict(errors.ErrDuplicateKey, "FakeDocStore", "Insert", "duplicate id")
	}
	c[id] = raw
	return id, nil
}

func (f *FakeDocStore) InsertMany(
	ctx context.Context, sess docstore.Session, collection string, docs []any,
) ([]string, error) {
	f.mu.Lock()
	f.record("InsertMany")
	failed := f.FailInsert
	f.mu.Unlock()

	if failed != nil {
		return nil, failed
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		id, err := f.Insert(ctx, sess, collection, doc)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *FakeDocStore) FindByID(
	_ context.Context, sess docstore.Session, collection, id string, out any,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FindByID")

	if f.FailFind != nil {
		return f.FailFind
	}

	set, err := f.target(sess)
	if err != nil {
		return err
	}

	raw, ok := f.coll(set, collection)[id]
	if !ok {
		return errors.WrapInvalid(errors.ErrNotFound, "FakeDocStore", "FindByID", "no document")
	}
	return json.Unmarshal(raw, out)
}

func (f *FakeDocStore) FindByFilter(
	_ context.Context, collection string, filter map[string]any, skip, limit int64, out any,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FindByFilter")

	if f.FailFind != nil {
		return f.FailFind
	}

	var matched []json.RawMessage
	for _, raw := range f.coll(f.collections, collection) {
		if matchesFilter(raw, filter) {
			matched = append(matched, raw)
		}
	}

	if skip > 0 {
		if skip >= int64(len(matched)) {
			matched = nil
		} else {
			matched = matched[skip:]
		}
	}
	if limit > 0 && int64(len(matched)) > limit {
		matched = matched[:limit]
	}

	combined, err := json.Marshal(matched)
	if err != nil {
		return err
	}
	return json.Unmarshal(combined, out)
}

func (f *FakeDocStore) UpdateFields(
	_ context.Context, sess docstore.Session, collection, id string, fields map[string]any,
) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateFields")

	if f.FailUpdate != nil {
		return 0, f.FailUpdate
	}

	set, err := f.target(sess)
	if err != nil {
		return 0, err
	}

	c := f.coll(set, collection)
	raw, ok := c[id]
	if !ok {
		return 0, nil
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return 0, err
	}
	for k, v := range fields {
		m[k] = v
	}
	updated, err := json.Marshal(m)
	if err != nil {
		return 0, err
	}
	c[id] = updated
	return 1, nil
}

// ApplyUpdate supports the push and pull operators used for author book
// embeds: {"$push": {field: value}} and {"$pull": {field: matcher}}.
func (f *FakeDocStore) ApplyUpdate(
	_ context.Context, sess docstore.Session, collection, id string, update any,
) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ApplyUpdate")

	if f.FailUpdate != nil {
		return 0, f.FailUpdate
	}

	set, err := f.target(sess)
	if err != nil {
		return 0, err
	}

	c := f.coll(set, collection)
	raw, ok := c[id]
	if !ok {
		return 0, nil
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return 0, err
	}

	ops, err := toJSONMap(update)
	if err != nil {
		return 0, err
	}

	for op, spec := range ops {
		fields, ok := spec.(map[string]any)
		if !ok {
			return 0, fmt.Errorf("malformed %s spec", op)
		}
		for field, value := range fields {
			switch op {
			case "$set":
				m[field] = value
			case "$push":
				arr, _ := m[field].([]any)
				m[field] = append(arr, value)
			case "$pull":
				arr, _ := m[field].([]any)
				var kept []any
				for _, item := range arr {
					if !pullMatches(item, value) {
						kept = append(kept, item)
					}
				}
				m[field] = kept
			default:
				return 0, fmt.Errorf("unsupported update operator %s", op)
			}
		}
	}

	updated, err := json.Marshal(m)
	if err != nil {
		return 0, err
	}
	c[id] = updated
	return 1, nil
}

func (f *FakeDocStore) Replace(
	_ context.Context, sess docstore.Session, collection, id string, doc any,
) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Replace")

	if f.FailUpdate != nil {
		return 0, f.FailUpdate
	}

	set, err := f.target(sess)
	if err != nil {
		return 0, err
	}

	c := f.coll(set, collection)
	if _, ok := c[id]; !ok {
		return 0, nil
	}

	_, raw := encodeDocWithID(doc, id)
	c[id] = raw
	return 1, nil
}

func (f *FakeDocStore) DeleteByID(
	_ context.Context, sess docstore.Session, collection, id string,
) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteByID")

	if f.FailDelete != nil {
		return 0, f.FailDelete
	}

	set, err := f.target(sess)
	if err != nil {
		return 0, err
	}

	c := f.coll(set, collection)
	if _, ok := c[id]; !ok {
		return 0, nil
	}
	delete(c, id)
	return 1, nil
}

func (f *FakeDocStore) DeleteByIDs(
	_ context.Context, sess docstore.Session, collection string, ids []string,
) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteByIDs")

	if f.FailDelete != nil {
		return 0, f.FailDelete
	}

	set, err := f.target(sess)
	if err != nil {
		return 0, err
	}

	c := f.coll(set, collection)
	var deleted int64
	for _, id := range ids {
		if _, ok := c[id]; ok {
			delete(c, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *FakeDocStore) Ping(_ context.Context) error {
	return nil
}

func (f *FakeDocStore) Close(_ context.Context) error {
	return nil
}

// FakeSession stages operations against a copy of the store and applies
// them atomically on Commit.
type FakeSession struct {
	store  *FakeDocStore
	staged map[string]map[string]json.RawMessage
	closed bool
	Ended  bool
}

func (s *FakeSession) Commit(_ context.Context) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if s.closed {
		return errors.ErrSessionClosed
	}
	s.closed = true

	if s.store.CommitErr != nil {
		return s.store.CommitErr
	}

	s.store.collections = s.staged
	return nil
}

func (s *FakeSession) Abort(_ context.Context) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if s.closed {
		return errors.ErrSessionClosed
	}
	s.closed = true
	return nil
}

func (s *FakeSession) End(_ context.Context) {
	s.closed = true
	s.Ended = true
}

// encodeDoc serializes a document and resolves its id, generating one when
// the document carries none.
func encodeDoc(doc any) (string, json.RawMessage) {
	m, err := toJSONMap(doc)
	if err != nil {
		panic(err)
	}

	id, _ := m["id"].(string)
	if id == "" {
		id = bson.NewObjectID().Hex()
	}
	return encodeDocWithID(doc, id)
}

// encodeDocWithID serializes a document forcing the given id.
func encodeDocWithID(doc any, id string) (string, json.RawMessage) {
	m, err := toJSONMap(doc)
	if err != nil {
		panic(err)
	}
	m["id"] = id

	raw, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	return id, raw
}

func toJSONMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func matchesFilter(raw json.RawMessage, filter map[string]any) bool {
	if len(filter) == 0 {
		return true
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	return matchesMap(m, filter)
}

// pullMatches mirrors the $pull condition: a map matcher matches embedded
// documents by field equality, any other value matches scalars by equality.
func pullMatches(item, condition any) bool {
	if matcher, ok := condition.(map[string]any); ok {
		return matchesMap(item, matcher)
	}
	return fmt.Sprintf("%v", item) == fmt.Sprintf("%v", condition)
}

func matchesMap(item any, matcher map[string]any) bool {
	m, ok := item.(map[string]any)
	if !ok {
		return false
	}
	for k, want := range matcher {
		if fmt.Sprintf("%v", m[k]) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}
