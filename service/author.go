package service

import (
	"context"
	"log/slog"

	"github.com/booknet/bookgraph/docstore"
	"github.com/booknet/bookgraph/dualwrite"
	"github.com/booknet/bookgraph/entity"
	"github.com/booknet/bookgraph/graphstore"
)

// AuthorService manages authors across both stores. The author document is
// the full record; the graph mirrors the id and name for authorship
// traversal. Description, image and the embedded book references live on
// the document only.
type AuthorService struct {
	docs   docstore.Store
	coord  *dualwrite.Coordinator
	spec   entity.Spec
	cache  cacheSide
	logger *slog.Logger
}

// NewAuthor creates the author service.
func NewAuthor(d Deps) *AuthorService {
	return &AuthorService{
		docs:   d.Docs,
		coord:  d.Coord,
		spec:   entity.MustSpec(entity.KindAuthor),
		cache:  newCacheSide(d, entity.KindAuthor),
		logger: d.Logger.With("service", "author"),
	}
}

// Create stores a new author and mirrors its node into the graph. The
// assigned id is returned.
//
// The id is assigned here as an ObjectID hex string rather than left to
// the driver: a driver-generated _id is ObjectID-typed and would never
// match the string ids used in filters and graph keys.
func (s *AuthorService) Create(ctx context.Context, a entity.Author) (string, error) {
	a.ID = entity.NewDocumentID()
	props := a.GraphProps()
	graph := func(ids []string) *graphstore.Statement {
		return s.spec.InsertStatement(ids[0], props)
	}

	res, err := s.coord.Apply(ctx, dualwrite.Insert(s.spec.Kind, s.spec.Collection, a, graph))
	if err != nil {
		return "", err
	}

	a.ID = res.IDs[0]
	s.cache.put(s.cache.itemKey(a.ID), a)
	s.cache.evict(s.cache.listKey())
	return a.ID, nil
}

// CreateMany stores a batch of authors in one document write and one
// multi-row graph statement. The assigned ids are returned in input order.
func (s *AuthorService) CreateMany(ctx context.Context, authors []entity.Author) ([]string, error) {
	docs := make([]any, len(authors))
	for i, a := range authors {
		a.ID = entity.NewDocumentID()
		docs[i] = a
	}

	graph := func(ids []string) *graphstore.Statement {
		rows := make([]map[string]any, len(authors))
		for i, a := range authors {
			a.ID = ids[i]
			rows[i] = a.GraphRow()
		}
		return s.spec.InsertManyStatement(rows)
	}

	res, err := s.coord.Apply(ctx, dualwrite.InsertMany(s.spec.Kind, s.spec.Collection, docs, graph))
	if err != nil {
		return nil, err
	}

	s.cache.evict(s.cache.listKey())
	return res.IDs, nil
}

// Get returns one author, cache first.
func (s *AuthorService) Get(ctx context.Context, id string) (entity.Author, error) {
	var a entity.Author
	if err := entity.ValidateDocumentID(id); err != nil {
		return a, err
	}

	ck := s.cache.itemKey(id)
	if s.cache.get(ck, &a) {
		return a, nil
	}

	if err := s.docs.FindByID(ctx, nil, s.spec.Collection, id, &a); err != nil {
		return a, err
	}
	s.cache.put(ck, a)
	return a, nil
}

// List returns a page of authors, cache first.
func (s *AuthorService) List(ctx context.Context) ([]entity.Author, error) {
	lk := s.cache.listKey()
	var authors []entity.Author
	if s.cache.get(lk, &authors) {
		return authors, nil
	}

	if err := s.docs.FindByFilter(ctx, s.spec.Collection, map[string]any{}, 0, defaultListLimit, &authors); err != nil {
		return nil, err
	}
	s.cache.put(lk, authors)
	return authors, nil
}

// UpdateName renames an author in both stores.
func (s *AuthorService) UpdateName(ctx context.Context, id, name string) error {
	graph := func(_ []string) *graphstore.Statement {
		return s.spec.UpdateStatement(id, map[string]any{"name": name})
	}
	return s.update(ctx, id, dualwrite.Update(s.spec.Kind, s.spec.Collection, id,
		map[string]any{"name": name}, graph))
}

// UpdateDescription updates the author biography. Document only.
func (s *AuthorService) UpdateDescription(ctx context.Context, id, description string) error {
	return s.update(ctx, id, dualwrite.Update(s.spec.Kind, s.spec.Collection, id,
		map[string]any{"description": description}, nil))
}

// UpdateImageURL updates the author portrait link. Document only.
func (s *AuthorService) UpdateImageURL(ctx context.Context, id, imageURL string) error {
	return s.update(ctx, id, dualwrite.Update(s.spec.Kind, s.spec.Collection, id,
		map[string]any{"image_url": imageURL}, nil))
}

// AddBook appends a book reference to the author document.
func (s *AuthorService) AddBook(ctx context.Context, id string, book entity.BookRef) error {
	return s.update(ctx, id, dualwrite.UpdateRaw(s.spec.Kind, s.spec.Collection, id,
		map[string]any{"$push": map[string]any{"books": book}}, nil))
}

// RemoveBook removes a book reference from the author document.
func (s *AuthorService) RemoveBook(ctx context.Context, id, bookID string) error {
	return s.update(ctx, id, dualwrite.UpdateRaw(s.spec.Kind, s.spec.Collection, id,
		map[string]any{"$pull": map[string]any{"books": map[string]any{"id": bookID}}}, nil))
}

// Delete removes an author from both stores.
func (s *AuthorService) Delete(ctx context.Context, id string) error {
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

// DeleteMany removes a batch of authors in one document write and one
// multi-row graph statement.
func (s *AuthorService) DeleteMany(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if err := entity.ValidateDocumentID(id); err != nil {
			return err
		}
	}

	graph := func(_ []string) *graphstore.Statement {
		return s.spec.DeleteManyStatement(ids)
	}
	_, err := s.coord.Apply(ctx, dualwrite.DeleteMany(s.spec.Kind, s.spec.Collection, ids, graph))

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.cache.itemKey(id))
	}
	keys = append(keys, s.cache.listKey())
	s.cache.evict(keys...)
	return err
}

func (s *AuthorService) update(ctx context.Context, id string, m dualwrite.Mutation) error {
	if err := entity.ValidateDocumentID(id); err != nil {
		return err
	}

	if _, err := s.coord.Apply(ctx, m); err != nil {
		return err
	}

	s.cache.evict(s.cache.listKey())
	var fresh entity.Author
	s.cache.refreshItem(ctx, s.docs, s.spec.Collection, id, s.cache.itemKey(id), &fresh)
	return nil
}
