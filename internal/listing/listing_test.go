package listing

import (
	"errors"
	"testing"

	"github.com/matthieukhl/freshmart/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fields = map[string]string{
	"createdAt": "created_at",
	"price":     "price",
	"name":      "name",
}

var byNewest = Sort{Column: "created_at", Descending: true}

func TestParseSort(t *testing.T) {
	tests := []struct {
		raw  string
		want Sort
	}{
		{raw: "", want: byNewest},
		{raw: "price", want: Sort{Column: "price"}},
		{raw: "-price", want: Sort{Column: "price", Descending: true}},
		{raw: "price:desc", want: Sort{Column: "price", Descending: true}},
		{raw: "price:asc", want: Sort{Column: "price"}},
		{raw: "name:DESC", want: Sort{Column: "name", Descending: true}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseSort(tt.raw, fields, byNewest)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSortRejectsUnknownInput(t *testing.T) {
	for _, raw := range []string{"password", "-id; DROP TABLE orders", "price:sideways"} {
		_, err := ParseSort(raw, fields, byNewest)
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, types.ErrValidation), raw)
	}
}

func TestSortSQL(t *testing.T) {
	assert.Equal(t, "created_at DESC", byNewest.SQL())
	assert.Equal(t, "price ASC", Sort{Column: "price"}.SQL())
}

func TestParsePage(t *testing.T) {
	p, err := ParsePage("", "")
	require.NoError(t, err)
	assert.Equal(t, Page{Number: 1, Limit: 20}, p)
	assert.Equal(t, 0, p.Offset())

	p, err = ParsePage("3", "10")
	require.NoError(t, err)
	assert.Equal(t, 20, p.Offset())

	p, err = ParsePage("1", "5000")
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, p.Limit)

	for _, bad := range [][2]string{{"0", ""}, {"x", ""}, {"", "-1"}, {"", "ten"}} {
		_, err := ParsePage(bad[0], bad[1])
		assert.True(t, errors.Is(err, types.ErrValidation), bad)
	}
}

func TestNewResult(t *testing.T) {
	res := NewResult([]string{"a", "b"}, 41, Page{Number: 2, Limit: 20})
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 41, res.Total)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 3, res.Pages)

	empty := NewResult[string](nil, 0, Page{Number: 1, Limit: 20})
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.Pages)
}

func TestWhere(t *testing.T) {
	var w Where
	assert.Equal(t, "", w.SQL())
	assert.Empty(t, w.Args())

	w.Add("category = ?", "dairy")
	w.Add("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", Contains("Milk"), Contains("Milk"))

	assert.Equal(t, " WHERE category = ? AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", w.SQL())
	assert.Equal(t, []any{"dairy", "%milk%", "%milk%"}, w.Args())
}

func TestContainsEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%100\% juice%`, Contains("100% Juice"))
	assert.Equal(t, `%a\_b%`, Contains("a_b"))
}
