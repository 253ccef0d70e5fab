package entity

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/booknet/bookgraph/errors"
)

// Author is a catalog author. The document holds the full record including
// the embedded book references; the graph mirrors only the identity fields
// used for authorship traversal.
type Author struct {
	ID          string    `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description" json:"description"`
	ImageURL    string    `bson:"image_url" json:"image_url"`
	Books       []BookRef `bson:"books" json:"books"`
}

// BookRef is an embedded reference to a book written by the author,
// maintained document-side with push/pull updates.
type BookRef struct {
	ID    string `bson:"id" json:"id"`
	Title string `bson:"title" json:"title"`
}

// GraphProps returns the fields mirrored onto the author node.
func (a Author) GraphProps() map[string]any {
	return map[string]any{"name": a.Name}
}

// GraphRow returns one row of a multi-row author creation statement.
func (a Author) GraphRow() map[string]any {
	return map[string]any{"author_id": a.ID, "name": a.Name}
}

// NewDocumentID generates a document id for store-keyed entities such as
// authors and readers.
func NewDocumentID() string {
	return bson.NewObjectID().Hex()
}

// ValidateDocumentID checks a caller-supplied id before any store call.
func ValidateDocumentID(id string) error {
	if _, err := bson.ObjectIDFromHex(id); err != nil {
		return errors.WrapInvalid(errors.ErrInvalidID, "entity", "ValidateDocumentID",
			fmt.Sprintf("malformed id %q", id))
	}
	return nil
}
