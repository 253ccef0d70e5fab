package entity

import (
	"fmt"

	"github.com/booknet/bookgraph/graphstore"
)

// Reader is a catalog user. The document holds the full record including
// the shelf and rating state; the graph mirrors the identity fields and
// carries the shelf and rating relationships to book nodes.
type Reader struct {
	ID      string   `bson:"_id,omitempty" json:"id,omitempty"`
	Name    string   `bson:"name" json:"name"`
	Email   string   `bson:"email" json:"email"`
	Shelf   []string `bson:"shelf" json:"shelf"`
	Ratings []Rating `bson:"ratings" json:"ratings"`
}

// Rating is one reader's score for one book.
type Rating struct {
	BookID string `bson:"book_id" json:"book_id"`
	Score  int    `bson:"score" json:"score"`
}

// GraphProps returns the fields mirrored onto the reader node.
func (r Reader) GraphProps() map[string]any {
	return map[string]any{"name": r.Name}
}

// ShelfAddStatement links a reader to a book on their shelf. The book node
// is merged so shelf edges do not depend on a book entity existing in the
// graph yet; presence is checked on the reader only.
func ShelfAddStatement(readerID, bookID string) *graphstore.Statement {
	return &graphstore.Statement{
		Query: "MATCH (r:Reader {reader_id: $reader_id}) " +
			"MERGE (b:Book {book_id: $book_id}) " +
			"MERGE (r)-[:ADDED_TO_SHELF]->(b) " +
			"RETURN count(r) AS matched",
		Params: map[string]any{"reader_id": readerID, "book_id": bookID},
		Expect: 1,
	}
}

// ShelfRemoveStatement removes a shelf edge. Deleting an edge that does not
// exist is a no-op; only the reader's presence is asserted.
func ShelfRemoveStatement(readerID, bookID string) *graphstore.Statement {
	return &graphstore.Statement{
		Query: "MATCH (r:Reader {reader_id: $reader_id}) " +
			"OPTIONAL MATCH (r)-[e:ADDED_TO_SHELF]->(:Book {book_id: $book_id}) " +
			"DELETE e " +
			"RETURN count(r) AS matched",
		Params: map[string]any{"reader_id": readerID, "book_id": bookID},
		Expect: 1,
	}
}

// RateStatement sets the reader's rating of a book, creating or updating
// the RATED edge.
func RateStatement(readerID, bookID string, score int) *graphstore.Statement {
	return &graphstore.Statement{
		Query: "MATCH (r:Reader {reader_id: $reader_id}) " +
			"MERGE (b:Book {book_id: $book_id}) " +
			"MERGE (r)-[e:RATED]->(b) " +
			"SET e.score = $score " +
			"RETURN count(r) AS matched",
		Params: map[string]any{"reader_id": readerID, "book_id": bookID, "score": score},
		Expect: 1,
	}
}

// String implements fmt.Stringer for log output.
func (r Reader) String() string {
	return fmt.Sprintf("Reader(%s, %s)", r.ID, r.Name)
}
