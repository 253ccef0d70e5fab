package service

import (
	"context"
	"log/slog"

	"github.com/booknet/bookgraph/docstore"
	"github.com/booknet/bookgraph/dualwrite"
	"github.com/booknet/bookgraph/entity"
	"github.com/booknet/bookgraph/graphstore"
)

// ReaderService manages readers across both stores. The reader document
// carries the shelf and rating state; the graph carries the shelf and
// rating relationships so they can be traversed from either end.
type ReaderService struct {
	docs   docstore.Store
	coord  *dualwrite.Coordinator
	spec   entity.Spec
	cache  cacheSide
	logger *slog.Logger
}

// NewReader creates the reader service.
func NewReader(d Deps) *ReaderService {
	return &ReaderService{
		docs:   d.Docs,
		coord:  d.Coord,
		spec:   entity.MustSpec(entity.KindReader),
		cache:  newCacheSide(d, entity.KindReader),
		logger: d.Logger.With("service", "reader"),
	}
}

// Create stores a new reader and mirrors its node into the graph. The
// assigned id is returned. The id is assigned client side so the stored
// _id stays a string and matches the string filters used elsewhere.
func (s *ReaderService) Create(ctx context.Context, r entity.Reader) (string, error) {
	r.ID = entity.NewDocumentID()
	props := r.GraphProps()
	graph := func(ids []string) *graphstore.Statement {
		return s.spec.InsertStatement(ids[0], props)
	}

	res, err := s.coord.Apply(ctx, dualwrite.Insert(s.spec.Kind, s.spec.Collection, r, graph))
	if err != nil {
		return "", err
	}

	r.ID = res.IDs[0]
	s.cache.put(s.cache.itemKey(r.ID), r)
	s.cache.evict(s.cache.listKey())
	return r.ID, nil
}

// Get returns one reader, cache first.
func (s *ReaderService) Get(ctx context.Context, id string) (entity.Reader, error) {
	var r entity.Reader
	if err := entity.ValidateDocumentID(id); err != nil {
		return r, err
	}

	ck := s.cache.itemKey(id)
	if s.cache.get(ck, &r) {
		return r, nil
	}

	if err := s.docs.FindByID(ctx, nil, s.spec.Collection, id, &r); err != nil {
		return r, err
	}
	s.cache.put(ck, r)
	return r, nil
}

// List returns a page of readers, cache first.
func (s *ReaderService) List(ctx context.Context) ([]entity.Reader, error) {
	lk := s.cache.listKey()
	var readers []entity.Reader
	if s.cache.get(lk, &readers) {
		return readers, nil
	}

	if err := s.docs.FindByFilter(ctx, s.spec.Collection, map[string]any{}, 0, defaultListLimit, &readers); err != nil {
		return nil, err
	}
	s.cache.put(lk, readers)
	return readers, nil
}

// UpdateName renames a reader in both stores.
func (s *ReaderService) UpdateName(ctx context.Context, id, name string) error {
	graph := func(_ []string) *graphstore.Statement {
		return s.spec.UpdateStatement(id, map[string]any{"name": name})
	}
	return s.update(ctx, id, dualwrite.Update(s.spec.Kind, s.spec.Collection, id,
		map[string]any{"name": name}, graph))
}

// AddToShelf appends a book to the reader's shelf and links the shelf edge
// in the graph.
func (s *ReaderService) AddToShelf(ctx context.Context, id, bookID string) error {
	graph := func(_ []string) *graphstore.Statement {
		return entity.ShelfAddStatement(id, bookID)
	}
	return s.update(ctx, id, dualwrite.UpdateRaw(s.spec.Kind, s.spec.Collection, id,
		map[string]any{"$push": map[string]any{"shelf": bookID}}, graph))
}

// RemoveFromShelf removes a book from the reader's shelf and drops the
// shelf edge.
func (s *ReaderService) RemoveFromShelf(ctx context.Context, id, bookID string) error {
	graph := func(_ []string) *graphstore.Statement {
		return entity.ShelfRemoveStatement(id, bookID)
	}
	return s.update(ctx, id, dualwrite.UpdateRaw(s.spec.Kind, s.spec.Collection, id,
		map[string]any{"$pull": map[string]any{"shelf": bookID}}, graph))
}

// Rate records the reader's score for a book on the document and as a
// RATED edge in the graph.
func (s *ReaderService) Rate(ctx context.Context, id, bookID string, score int) error {
	graph := func(_ []string) *graphstore.Statement {
		return entity.RateStatement(id, bookID, score)
	}
	rating := entity.Rating{BookID: bookID, Score: score}
	return s.update(ctx, id, dualwrite.UpdateRaw(s.spec.Kind, s.spec.Collection, id,
		map[string]any{"$push": map[string]any{"ratings": rating}}, graph))
}

// Delete removes a reader from both stores.
func (s *ReaderService) Delete(ctx context.Context, id string) error {
	if err := entity.ValidateDocumentID(id); err != nil {
		return err
	}

	graph := func(_ []string) *graphstore.Statement {
		return s.spec.DeleteStatement(id)
	}
	_, err := s.coord.Apply(ctx, dualwrite.Delete(s.spec.Kind, s.spec.Collection, id, graph))

	s.cache.evict(s.cache.itemKey(id), s.cache.listKey())
	return err
}

func (s *ReaderService) update(ctx context.Context, id string, m dualwrite.Mutation) error {
	if err := entity.ValidateDocumentID(id); err != nil {
		return err
	}

	if _, err := s.coord.Apply(ctx, m); err != nil {
		return err
	}

	s.cache.evict(s.cache.listKey())
	var fresh entity.Reader
	s.cache.refreshItem(ctx, s.docs, s.spec.Collection, id, s.cache.itemKey(id), &fresh)
	return nil
}
