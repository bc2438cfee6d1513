package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_Deterministic(t *testing.T) {
	rows := []Row{
		{"id": 1, "name": "alice"},
		{"id": 2, "name": "bob"},
	}

	h1, err := New(rows).Hash()
	require.NoError(t, err)
	h2, err := New(rows).Hash()
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestHash_ColumnOrderInvariant(t *testing.T) {
	a, err := FromColumns(
		[]string{"id", "name", "score"},
		[][]any{{1, "alice", 0.9}, {2, "bob", 0.4}},
	)
	require.NoError(t, err)

	b, err := FromColumns(
		[]string{"score", "id", "name"},
		[][]any{{0.9, 1, "alice"}, {0.4, 2, "bob"}},
	)
	require.NoError(t, err)

	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
}

func TestHash_RowOrderSignificant(t *testing.T) {
	a := New([]Row{{"id": 1}, {"id": 2}})
	b := New([]Row{{"id": 2}, {"id": 1}})

	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb)
}

func TestHash_ContentSensitive(t *testing.T) {
	base := New([]Row{{"id": 1, "name": "alice"}})
	changed := New([]Row{{"id": 1, "name": "alicia"}})

	hBase, err := base.Hash()
	require.NoError(t, err)
	hChanged, err := changed.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, hBase, hChanged)
}

func TestHash_EmptyTable(t *testing.T) {
	h, err := New(nil).Hash()
	require.NoError(t, err)
	assert.Len(t, h, 64)

	h2, err := New([]Row{}).Hash()
	require.NoError(t, err)
	assert.Equal(t, h, h2)
}

func TestCanonicalJSON_NoHTMLEscaping(t *testing.T) {
	tbl := New([]Row{{"q": "a<b>&c"}})
	data, err := tbl.CanonicalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), "a<b>&c")
}

func TestFromColumns_RowLengthMismatch(t *testing.T) {
	_, err := FromColumns([]string{"a", "b"}, [][]any{{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 0")
}

func TestColumns_SortedUnion(t *testing.T) {
	tbl := New([]Row{
		{"b": 1, "a": 2},
		{"c": 3},
	})
	assert.Equal(t, []string{"a", "b", "c"}, tbl.Columns())
	assert.Equal(t, 3, tbl.ColumnCount())
}

func TestSchema(t *testing.T) {
	tbl := New([]Row{
		{"id": nil, "name": "alice", "score": 0.5},
		{"id": 7, "name": "bob", "score": nil},
	})
	schema := tbl.Schema()
	assert.Equal(t, "int", schema["id"])
	assert.Equal(t, "string", schema["name"])
	assert.Equal(t, "float64", schema["score"])
}

func TestColumn_MissingCellsAreNil(t *testing.T) {
	tbl := New([]Row{{"a": 1}, {"b": 2}})
	vals := tbl.Column("a")
	require.Len(t, vals, 2)
	assert.Equal(t, 1, vals[0])
	assert.Nil(t, vals[1])
}
