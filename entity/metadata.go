package entity

import (
	"fmt"
	"strings"

	"github.com/booknet/bookgraph/errors"
)

// Collection names in the document store.
const (
	CollectionMetadata = "metadata"
	CollectionAuthors  = "authors"
	CollectionReaders  = "readers"
)

// Meta is implemented by the metadata entity family. All metadata kinds
// share one document collection with ids of the form "<kind>:<key>".
type Meta interface {
	MetaKind() Kind
	MetaKey() string
}

// MetadataID builds the document id for a metadata entity.
func MetadataID(kind Kind, key string) string {
	return fmt.Sprintf("%s:%s", kind, key)
}

// ValidateMetaKey checks a caller-supplied metadata key before any store
// call. Keys become part of the document id, so the separator is reserved.
func ValidateMetaKey(key string) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidKey, "entity", "ValidateMetaKey", "key cannot be empty")
	}
	if strings.Contains(key, ":") {
		return errors.WrapInvalid(errors.ErrInvalidKey, "entity", "ValidateMetaKey",
			fmt.Sprintf("key %q contains reserved separator", key))
	}
	return nil
}

// Genre is a book genre. Genres are mirrored into the graph so books can be
// traversed by genre membership.
//
// All metadata documents carry their kind as a discriminator field so
// per-kind listings can filter the shared collection.
type Genre struct {
	ID          string `bson:"_id,omitempty" json:"id,omitempty"`
	Kind        Kind   `bson:"kind" json:"kind"`
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description" json:"description"`
}

func (g Genre) MetaKind() Kind  { return KindGenre }
func (g Genre) MetaKey() string { return g.Name }

// GraphProps returns the fields mirrored onto the genre node.
func (g Genre) GraphProps() map[string]any {
	return map[string]any{"description": g.Description}
}

// Language is a catalog language. Document store only.
type Language struct {
	ID   string `bson:"_id,omitempty" json:"id,omitempty"`
	Kind Kind   `bson:"kind" json:"kind"`
	Code string `bson:"code" json:"code"`
	Name string `bson:"name" json:"name"`
}

func (l Language) MetaKind() Kind  { return KindLanguage }
func (l Language) MetaKey() string { return l.Code }

// Publisher is a book publisher. Document store only.
type Publisher struct {
	ID      string `bson:"_id,omitempty" json:"id,omitempty"`
	Kind    Kind   `bson:"kind" json:"kind"`
	Name    string `bson:"name" json:"name"`
	Website string `bson:"website" json:"website"`
}

func (p Publisher) MetaKind() Kind  { return KindPublisher }
func (p Publisher) MetaKey() string { return p.Name }

// Source is an acquisition source for catalog records. Document store only.
type Source struct {
	ID      string `bson:"_id,omitempty" json:"id,omitempty"`
	Kind    Kind   `bson:"kind" json:"kind"`
	Name    string `bson:"name" json:"name"`
	Website string `bson:"website" json:"website"`
}

func (s Source) MetaKind() Kind  { return KindSource }
func (s Source) MetaKey() string { return s.Name }
