package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestResult builds a small three-row result for cursor tests.
func newTestResult() *ResultSet {
	return &ResultSet{
		Columns: []Column{
			{Name: "id", DatabaseType: "INTEGER", Kind: KindInt},
			{Name: "name", DatabaseType: "VARCHAR", Kind: KindString},
		},
		Rows: [][]any{
			{int64(1), "alpha"},
			{int64(2), "beta"},
			{int64(3), "gamma"},
		},
	}
}

// TestResultSetNext verifies forward-only row consumption.
func TestResultSetNext(t *testing.T) {
	rs := newTestResult()

	row, ok := rs.Next()
	require.True(t, ok)
	assert.Equal(t, int64(1), row[0])

	row, ok = rs.Next()
	require.True(t, ok)
	assert.Equal(t, "beta", row[1])

	_, ok = rs.Next()
	require.True(t, ok)

	row, ok = rs.Next()
	assert.False(t, ok, "exhausted cursor must report no more rows")
	assert.Nil(t, row)
}

// TestResultSetFetch verifies batched consumption and exhaustion.
func TestResultSetFetch(t *testing.T) {
	rs := newTestResult()

	batch := rs.Fetch(2)
	require.Len(t, batch, 2)
	assert.Equal(t, "alpha", batch[0][1])

	batch = rs.Fetch(10)
	require.Len(t, batch, 1, "Fetch past the end returns only what remains")

	assert.Empty(t, rs.Fetch(5))
	assert.Empty(t, rs.Fetch(-1))
}

// TestResultSetFetchAll verifies that FetchAll drains whatever Next left.
func TestResultSetFetchAll(t *testing.T) {
	rs := newTestResult()

	_, ok := rs.Next()
	require.True(t, ok)

	rest := rs.FetchAll()
	require.Len(t, rest, 2)
	assert.Equal(t, int64(2), rest[0][0])

	assert.Empty(t, rs.FetchAll())
	_, ok = rs.Next()
	assert.False(t, ok)
}

// TestResultSetValue covers the scalar-probe convenience.
func TestResultSetValue(t *testing.T) {
	scalar := &ResultSet{
		Columns: []Column{{Name: "col0", Kind: KindInt}},
		Rows:    [][]any{{int64(1)}},
	}
	v, ok := scalar.Value()
	require.True(t, ok)
	assert.Equal(t, int64(1), v)

	// A multi-row result has no single value.
	_, ok = newTestResult().Value()
	assert.False(t, ok)

	// Value must not advance the cursor.
	row, ok := scalar.Next()
	require.True(t, ok)
	assert.Equal(t, int64(1), row[0])
}

// TestColumnNames verifies ordered name extraction.
func TestColumnNames(t *testing.T) {
	rs := newTestResult()
	assert.Equal(t, []string{"id", "name"}, rs.ColumnNames())
	assert.Equal(t, 3, rs.RowCount())
}
