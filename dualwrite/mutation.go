package dualwrite

import (
	"fmt"

	"github.com/booknet/bookgraph/entity"
	"github.com/booknet/bookgraph/errors"
	"github.com/booknet/bookgraph/graphstore"
)

// Op is the logical operation a mutation performs against the document
// store.
type Op string

const (
	OpInsert     Op = "insert"
	OpInsertMany Op = "insert_many"
	OpUpdate     Op = "update"
	OpDelete     Op = "delete"
	OpDeleteMany Op = "delete_many"
)

// GraphFunc builds the graph statement for a mutation once the document ids
// are known. Insert ids are store-assigned, so the statement cannot be
// built until the document side has been staged.
type GraphFunc func(ids []string) *graphstore.Statement

// Mutation is one logical write. Graph is nil for kinds that do not
// participate in the graph; the coordinator then degenerates to a
// document-only pass-through.
type Mutation struct {
	Kind       entity.Kind
	Op         Op
	Collection string

	// Docs carries the payloads for insert operations.
	Docs []any

	// IDs carries the target ids for update and delete operations.
	IDs []string

	// Fields carries the field set for update operations. UpdateDoc, when
	// set, takes precedence and is applied as an operator-style update.
	Fields    map[string]any
	UpdateDoc any

	Graph GraphFunc
}

// Insert builds a single-document insert mutation.
func Insert(kind entity.Kind, collection string, doc any, graph GraphFunc) Mutation {
	return Mutation{Kind: kind, Op: OpInsert, Collection: collection, Docs: []any{doc}, Graph: graph}
}

// InsertMany builds a batch insert mutation. The document batch is staged
// in one call and the graph side must be a single multi-row statement.
func InsertMany(kind entity.Kind, collection string, docs []any, graph GraphFunc) Mutation {
	return Mutation{Kind: kind, Op: OpInsertMany, Collection: collection, Docs: docs, Graph: graph}
}

// Update builds a field-set update mutation.
func Update(kind entity.Kind, collection, id string, fields map[string]any, graph GraphFunc) Mutation {
	return Mutation{Kind: kind, Op: OpUpdate, Collection: collection, IDs: []string{id}, Fields: fields, Graph: graph}
}

// UpdateRaw builds an operator-style update mutation (push, pull).
func UpdateRaw(kind entity.Kind, collection, id string, update any, graph GraphFunc) Mutation {
	return Mutation{Kind: kind, Op: OpUpdate, Collection: collection, IDs: []string{id}, UpdateDoc: update, Graph: graph}
}

// Delete builds a single-document delete mutation.
func Delete(kind entity.Kind, collection, id string, graph GraphFunc) Mutation {
	return Mutation{Kind: kind, Op: OpDelete, Collection: collection, IDs: []string{id}, Graph: graph}
}

// DeleteMany builds a batch delete mutation.
func DeleteMany(kind entity.Kind, collection string, ids []string, graph GraphFunc) Mutation {
	return Mutation{Kind: kind, Op: OpDeleteMany, Collection: collection, IDs: ids, Graph: graph}
}

// validate checks the mutation shape before any store is touched.
func (m Mutation) validate() error {
	if m.Collection == "" {
		return errors.WrapInvalid(errors.ErrInvalidKey, "Coordinator", "Apply", "mutation has no collection")
	}

	switch m.Op {
	case OpInsert:
		if len(m.Docs) != 1 {
			return errors.WrapInvalid(errors.ErrInvalidKey, "Coordinator", "Apply",
				fmt.Sprintf("insert requires exactly one document, got %d", len(m.Docs)))
		}
	case OpInsertMany:
		if len(m.Docs) == 0 {
			return errors.WrapInvalid(errors.ErrInvalidKey, "Coordinator", "Apply",
				"insert_many requires at least one document")
		}
	case OpUpdate:
		if len(m.IDs) != 1 {
			return errors.WrapInvalid(errors.ErrInvalidKey, "Coordinator", "Apply",
				fmt.Sprintf("update requires exactly one id, got %d", len(m.IDs)))
		}
		if len(m.Fields) == 0 && m.UpdateDoc == nil {
			return errors.WrapInvalid(errors.ErrInvalidKey, "Coordinator", "Apply",
				"update requires fields or an update document")
		}
	case OpDelete:
		if len(m.IDs) != 1 {
			return errors.WrapInvalid(errors.ErrInvalidKey, "Coordinator", "Apply",
				fmt.Sprintf("delete requires exactly one id, got %d", len(m.IDs)))
		}
	case OpDeleteMany:
		if len(m.IDs) == 0 {
			return errors.WrapInvalid(errors.ErrInvalidKey, "Coordinator", "Apply",
				"delete_many requires at least one id")
		}
	default:
		return errors.WrapInvalid(errors.ErrInvalidKey, "Coordinator", "Apply",
			fmt.Sprintf("unknown operation %q", m.Op))
	}

	return nil
}

// key returns the representative entity key for logs and failure reports.
func (m Mutation) key() string {
	if len(m.IDs) > 0 {
		return m.IDs[0]
	}
	return ""
}

// Result reports the effect of one applied mutation.
type Result struct {
	// WriteID correlates the mutation across logs, metrics and failure
	// reports.
	WriteID string

	// IDs holds the document ids touched by the mutation. For inserts
	// these are the assigned ids in input order.
	IDs []string

	Modified int64
	Deleted  int64
}
