package service

import (
	"context"
	"log/slog"

	"github.com/booknet/bookgraph/docstore"
	"github.com/booknet/bookgraph/dualwrite"
	"github.com/booknet/bookgraph/entity"
	"github.com/booknet/bookgraph/graphstore"
)

// metadataCore drives one metadata kind against the shared metadata
// collection: coordinator writes, cache-aside reads, cache invalidation in
// lock-step with mutations. The typed services below are thin façades over
// it.
type metadataCore struct {
	docs   docstore.Store
	coord  *dualwrite.Coordinator
	spec   entity.Spec
	cache  cacheSide
	logger *slog.Logger
}

func newMetadataCore(d Deps, kind entity.Kind) metadataCore {
	return metadataCore{
		docs:   d.Docs,
		coord:  d.Coord,
		spec:   entity.MustSpec(kind),
		cache:  newCacheSide(d, kind),
		logger: d.Logger.With("service", string(kind)),
	}
}

func (m metadataCore) create(ctx context.Context, doc entity.Meta, graphProps map[string]any) error {
	key := doc.MetaKey()
	if err := entity.ValidateMetaKey(key); err != nil {
		return err
	}

	var graph dualwrite.GraphFunc
	if m.spec.ParticipatesInGraph {
		graph = func(_ []string) *graphstore.Statement {
			return m.spec.InsertStatement(key, graphProps)
		}
	}

	if _, err := m.coord.Apply(ctx, dualwrite.Insert(m.spec.Kind, m.spec.Collection, doc, graph)); err != nil {
		return err
	}

	m.cache.put(m.cache.itemKey(key), doc)
	m.cache.evict(m.cache.listKey())
	return nil
}

func (m metadataCore) get(ctx context.Context, key string, out any) error {
	if err := entity.ValidateMetaKey(key); err != nil {
		return err
	}

	ck := m.cache.itemKey(key)
	if m.cache.get(ck, out) {
		return nil
	}

	if err := m.docs.FindByID(ctx, nil, m.spec.Collection, entity.MetadataID(m.spec.Kind, key), out); err != nil {
		return err
	}
	m.cache.put(ck, out)
	return nil
}

func (m metadataCore) update(
	ctx context.Context, key string, fields, graphProps map[string]any, fresh any,
) error {
	if err := entity.ValidateMetaKey(key); err != nil {
		return err
	}

	var graph dualwrite.GraphFunc
	if m.spec.ParticipatesInGraph && len(graphProps) > 0 {
		graph = func(_ []string) *graphstore.Statement {
			return m.spec.UpdateStatement(key, graphProps)
		}
	}

	id := entity.MetadataID(m.spec.Kind, key)
	if _, err := m.coord.Apply(ctx, dualwrite.Update(m.spec.Kind, m.spec.Collection, id, fields, graph)); err != nil {
		return err
	}

	m.cache.evict(m.cache.listKey())
	m.cache.refreshItem(ctx, m.docs, m.spec.Collection, id, m.cache.itemKey(key), fresh)
	return nil
}

func (m metadataCore) delete(ctx context.Context, key string) error {
	if err := entity.ValidateMetaKey(key); err != nil {
		return err
	}

	var graph dualwrite.GraphFunc
	if m.spec.ParticipatesInGraph {
		graph = func(_ []string) *graphstore.Statement {
			return m.spec.DeleteStatement(key)
		}
	}

	id := entity.MetadataID(m.spec.Kind, key)
	_, err := m.coord.Apply(ctx, dualwrite.Delete(m.spec.Kind, m.spec.Collection, id, graph))

	// Evicted even on not-found so the cache converges with the stores.
	m.cache.evict(m.cache.itemKey(key), m.cache.listKey())
	return err
}

func (m metadataCore) list(ctx context.Context, out any) error {
	lk := m.cache.listKey()
	if m.cache.get(lk, out) {
		return nil
	}

	filter := map[string]any{"kind": string(m.spec.Kind)}
	if err := m.docs.FindByFilter(ctx, m.spec.Collection, filter, 0, defaultListLimit, out); err != nil {
		return err
	}
	m.cache.put(lk, out)
	return nil
}

// GenreService manages genres, the only metadata kind mirrored into the
// graph.
type GenreService struct {
	core metadataCore
}

// NewGenre creates the genre service.
func NewGenre(d Deps) *GenreService {
	return &GenreService{core: newMetadataCore(d, entity.KindGenre)}
}

func (s *GenreService) Create(ctx context.Context, g entity.Genre) error {
	g.ID = entity.MetadataID(entity.KindGenre, g.Name)
	g.Kind = entity.KindGenre
	return s.core.create(ctx, g, g.GraphProps())
}

func (s *GenreService) Get(ctx context.Context, name string) (entity.Genre, error) {
	var g entity.Genre
	err := s.core.get(ctx, name, &g)
	return g, err
}

func (s *GenreService) Update(ctx context.Context, name, description string) error {
	fields := map[string]any{"description": description}
	var fresh entity.Genre
	return s.core.update(ctx, name, fields, fields, &fresh)
}

func (s *GenreService) Delete(ctx context.Context, name string) error {
	return s.core.delete(ctx, name)
}

func (s *GenreService) List(ctx context.Context) ([]entity.Genre, error) {
	var genres []entity.Genre
	err := s.core.list(ctx, &genres)
	return genres, err
}

// LanguageService manages catalog languages. Document store only.
type LanguageService struct {
	core metadataCore
}

// NewLanguage creates the language service.
func NewLanguage(d Deps) *LanguageService {
	return &LanguageService{core: newMetadataCore(d, entity.KindLanguage)}
}

func (s *LanguageService) Create(ctx context.Context, l entity.Language) error {
	l.ID = entity.MetadataID(entity.KindLanguage, l.Code)
	l.Kind = entity.KindLanguage
	return s.core.create(ctx, l, nil)
}

func (s *LanguageService) Get(ctx context.Context, code string) (entity.Language, error) {
	var l entity.Language
	err := s.core.get(ctx, code, &l)
	return l, err
}

func (s *LanguageService) Update(ctx context.Context, code, name string) error {
	var fresh entity.Language
	return s.core.update(ctx, code, map[string]any{"name": name}, nil, &fresh)
}

func (s *LanguageService) Delete(ctx context.Context, code string) error {
	return s.core.delete(ctx, code)
}

func (s *LanguageService) List(ctx context.Context) ([]entity.Language, error) {
	var languages []entity.Language
	err := s.core.list(ctx, &languages)
	return languages, err
}

// PublisherService manages publishers. Document store only.
type PublisherService struct {
	core metadataCore
}

// NewPublisher creates the publisher service.
func NewPublisher(d Deps) *PublisherService {
	return &PublisherService{core: newMetadataCore(d, entity.KindPublisher)}
}

func (s *PublisherService) Create(ctx context.Context, p entity.Publisher) error {
	p.ID = entity.MetadataID(entity.KindPublisher, p.Name)
	p.Kind = entity.KindPublisher
	return s.core.create(ctx, p, nil)
}

func (s *PublisherService) Get(ctx context.Context, name string) (entity.Publisher, error) {
	var p entity.Publisher
	err := s.core.get(ctx, name, &p)
	return p, err
}

func (s *PublisherService) Update(ctx context.Context, name, website string) error {
	var fresh entity.Publisher
	return s.core.update(ctx, name, map[string]any{"website": website}, nil, &fresh)
}

func (s *PublisherService) Delete(ctx context.Context, name string) error {
	return s.core.delete(ctx, name)
}

func (s *PublisherService) List(ctx context.Context) ([]entity.Publisher, error) {
	var publishers []entity.Publisher
	err := s.core.list(ctx, &publishers)
	return publishers, err
}

// SourceService manages acquisition sources. Document store only.
type SourceService struct {
	core metadataCore
}

// NewSource creates the source service.
func NewSource(d Deps) *SourceService {
	return &SourceService{core: newMetadataCore(d, entity.KindSource)}
}

func (s *SourceService) Create(ctx context.Context, src entity.Source) error {
	src.ID = entity.MetadataID(entity.KindSource, src.Name)
	src.Kind = entity.KindSource
	return s.core.create(ctx, src, nil)
}

func (s *SourceService) Get(ctx context.Context, name string) (entity.Source, error) {
	var src entity.Source
	err := s.core.get(ctx, name, &src)
	return src, err
}

func (s *SourceService) Update(ctx context.Context, name, website string) error {
	var fresh entity.Source
	return s.core.update(ctx, name, map[string]any{"website": website}, nil, &fresh)
}

func (s *SourceService) Delete(ctx context.Context, name string) error {
	return s.core.delete(ctx, name)
}

func (s *SourceService) List(ctx context.Context) ([]entity.Source, error) {
	var sources []entity.Source
	err := s.core.list(ctx, &sources)
	return sources, err
}
