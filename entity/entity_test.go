package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestSpecFor(t *testing.T) {
	tests := []struct {
		kind       Kind
		collection string
		graph      bool
	}{
		{KindGenre, CollectionMetadata, true},
		{KindLanguage, CollectionMetadata, false},
		{KindPublisher, CollectionMetadata, false},
		{KindSource, CollectionMetadata, false},
		{KindAuthor, CollectionAuthors, true},
		{KindReader, CollectionReaders, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			spec, err := SpecFor(tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.collection, spec.Collection)
			assert.Equal(t, tt.graph, spec.ParticipatesInGraph)
			if tt.graph {
				assert.NotEmpty(t, spec.Label)
				assert.NotEmpty(t, spec.KeyProperty)
			}
		})
	}

	_, err := SpecFor(Kind("book"))
	assert.Error(t, err)
}

func TestSpec_InsertStatement(t *testing.T) {
	spec := MustSpec(KindGenre)

	stmt := spec.InsertStatement("fantasy", map[string]any{"description": "dragons"})

	assert.Equal(t, "CREATE (n:Genre) SET n = $props", stmt.Query)
	assert.Equal(t, int64(0), stmt.Expect)

	props, ok := stmt.Params["props"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "fantasy", props["name"])
	assert.Equal(t, "dragons", props["description"])
}

func TestSpec_UpdateStatement(t *testing.T) {
	spec := MustSpec(KindAuthor)

	stmt := spec.UpdateStatement("abc123", map[string]any{"name": "New Name"})

	assert.Contains(t, stmt.Query, "MATCH (n:Author {author_id: $key})")
	assert.Contains(t, stmt.Query, "RETURN count(n) AS matched")
	assert.Equal(t, int64(1), stmt.Expect)
	assert.Equal(t, "abc123", stmt.Params["key"])
}

func TestSpec_DeleteStatement(t *testing.T) {
	spec := MustSpec(KindGenre)

	stmt := spec.DeleteStatement("fantasy")

	assert.Contains(t, stmt.Query, "DETACH DELETE n")
	assert.Contains(t, stmt.Query, "RETURN count(n) AS matched")
	assert.Equal(t, int64(1), stmt.Expect)
}

func TestSpec_DeleteManyStatement(t *testing.T) {
	spec := MustSpec(KindAuthor)

	stmt := spec.DeleteManyStatement([]string{"a", "b", "c"})

	assert.Contains(t, stmt.Query, "UNWIND $keys AS key")
	assert.Equal(t, int64(3), stmt.Expect)
	assert.Equal(t, []string{"a", "b", "c"}, stmt.Params["keys"])
}

func TestMetadataID(t *testing.T) {
	assert.Equal(t, "genre:fantasy", MetadataID(KindGenre, "fantasy"))
	assert.Equal(t, "language:en", MetadataID(KindLanguage, "en"))
}

func TestValidateMetaKey(t *testing.T) {
	assert.NoError(t, ValidateMetaKey("fantasy"))
	assert.Error(t, ValidateMetaKey(""))
	assert.Error(t, ValidateMetaKey("sci:fi"))
}

func TestValidateDocumentID(t *testing.T) {
	assert.NoError(t, ValidateDocumentID(NewDocumentID()))
	assert.Error(t, ValidateDocumentID("not-an-object-id"))
	assert.Error(t, ValidateDocumentID(""))
}

// A document that reaches the store must carry a string _id. With omitempty
// on the tag, an unset id would make the driver generate an ObjectID-typed
// _id that string filters can never match.
func TestDocumentIDMarshalsAsBSONString(t *testing.T) {
	a := Author{ID: NewDocumentID(), Name: "Ursula K. Le Guin"}

	raw, err := bson.Marshal(a)
	require.NoError(t, err)

	val, err := bson.Raw(raw).LookupErr("_id")
	require.NoError(t, err)
	assert.Equal(t, bson.TypeString, val.Type)
	assert.Equal(t, a.ID, val.StringValue())
	assert.NoError(t, ValidateDocumentID(val.StringValue()))
}

func TestReaderStatements(t *testing.T) {
	add := ShelfAddStatement("r1", "b1")
	assert.Contains(t, add.Query, "MERGE (r)-[:ADDED_TO_SHELF]->(b)")
	assert.Equal(t, int64(1), add.Expect)

	remove := ShelfRemoveStatement("r1", "b1")
	assert.Contains(t, remove.Query, "OPTIONAL MATCH")
	assert.Equal(t, int64(1), remove.Expect)

	rate := RateStatement("r1", "b1", 4)
	assert.Contains(t, rate.Query, "SET e.score = $score")
	assert.Equal(t, 4, rate.Params["score"])
}
