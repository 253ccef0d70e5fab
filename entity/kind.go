package entity

import (
	"fmt"

	"github.com/booknet/bookgraph/errors"
	"github.com/booknet/bookgraph/graphstore"
)

// Kind identifies an entity kind. Graph participation and query shapes are
// a per-kind policy resolved through SpecFor, never a per-instance property.
type Kind string

const (
	KindGenre     Kind = "genre"
	KindLanguage  Kind = "language"
	KindPublisher Kind = "publisher"
	KindSource    Kind = "source"
	KindAuthor    Kind = "author"
	KindReader    Kind = "reader"
)

// Spec is the per-kind persistence policy: which collection holds the
// documents, whether the kind is mirrored into the graph, and how its graph
// statements are shaped.
type Spec struct {
	Kind                Kind
	Collection          string
	ParticipatesInGraph bool

	// Label and KeyProperty describe the graph node for kinds that
	// participate in the graph; empty otherwise.
	Label       string
	KeyProperty string
}

var specs = map[Kind]Spec{
	KindGenre: {
		Kind:                KindGenre,
		Collection:          CollectionMetadata,
		ParticipatesInGraph: true,
		Label:               "Genre",
		KeyProperty:         "name",
	},
	KindLanguage: {
		Kind:       KindLanguage,
		Collection: CollectionMetadata,
	},
	KindPublisher: {
		Kind:       KindPublisher,
		Collection: CollectionMetadata,
	},
	KindSource: {
		Kind:       KindSource,
		Collection: CollectionMetadata,
	},
	KindAuthor: {
		Kind:                KindAuthor,
		Collection:          CollectionAuthors,
		ParticipatesInGraph: true,
		Label:               "Author",
		KeyProperty:         "author_id",
	},
	KindReader: {
		Kind:                KindReader,
		Collection:          CollectionReaders,
		ParticipatesInGraph: true,
		Label:               "Reader",
		KeyProperty:         "reader_id",
	},
}

// SpecFor resolves the persistence policy for a kind.
func SpecFor(kind Kind) (Spec, error) {
	spec, ok := specs[kind]
	if !ok {
		return Spec{}, errors.WrapInvalid(errors.ErrInvalidKey, "entity", "SpecFor",
			fmt.Sprintf("unknown entity kind %q", kind))
	}
	return spec, nil
}

// MustSpec resolves the persistence policy for a kind known at compile time.
// It panics on unknown kinds and is intended for service constructors.
func MustSpec(kind Kind) Spec {
	spec, err := SpecFor(kind)
	if err != nil {
		panic(err)
	}
	return spec
}

// InsertStatement builds the node-creation statement for one entity. The
// key property is set from key; props carries the mirrored fields.
func (s Spec) InsertStatement(key string, props map[string]any) *graphstore.Statement {
	all := make(map[string]any, len(props)+1)
	for k, v := range props {
		all[k] = v
	}
	all[s.KeyProperty] = key

	return &graphstore.Statement{
		Query:  fmt.Sprintf("CREATE (n:%s) SET n = $props", s.Label),
		Params: map[string]any{"props": all},
	}
}

// UpdateStatement builds a count-returning statement that updates the
// mirrored fields of an existing node. Zero matches means the node the
// operation assumes is missing.
func (s Spec) UpdateStatement(key string, props map[string]any) *graphstore.Statement {
	return &graphstore.Statement{
		Query: fmt.Sprintf(
			"MATCH (n:%s {%s: $key}) SET n += $props RETURN count(n) AS matched",
			s.Label, s.KeyProperty),
		Params: map[string]any{"key": key, "props": props},
		Expect: 1,
	}
}

// DeleteStatement builds a count-returning statement that removes a node
// and all of its relationships.
func (s Spec) DeleteStatement(key string) *graphstore.Statement {
	return &graphstore.Statement{
		Query: fmt.Sprintf(
			"MATCH (n:%s {%s: $key}) DETACH DELETE n RETURN count(n) AS matched",
			s.Label, s.KeyProperty),
		Params: map[string]any{"key": key},
		Expect: 1,
	}
}

// InsertManyStatement builds a single multi-row creation statement. Each
// row must already include the key property.
func (s Spec) InsertManyStatement(rows []map[string]any) *graphstore.Statement {
	return &graphstore.Statement{
		Query:  fmt.Sprintf("UNWIND $rows AS row CREATE (n:%s) SET n = row", s.Label),
		Params: map[string]any{"rows": rows},
	}
}

// DeleteManyStatement builds a single multi-row, count-returning deletion
// statement over the given keys.
func (s Spec) DeleteManyStatement(keys []string) *graphstore.Statement {
	return &graphstore.Statement{
		Query: fmt.Sprintf(
			"UNWIND $keys AS key MATCH (n:%s {%s: key}) DETACH DELETE n RETURN count(n) AS matched",
			s.Label, s.KeyProperty),
		Params: map[string]any{"keys": keys},
		Expect: int64(len(keys)),
	}
}
