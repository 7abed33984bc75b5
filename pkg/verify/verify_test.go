package verify

import (
	"context"
	"io"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oraichain/duckdb-http/pkg/arrowio"
	"github.com/oraichain/duckdb-http/pkg/core"
)

// sliceReader serves pre-built record batches, one per Read call.
type sliceReader struct {
	schema  *arrow.Schema
	records []arrow.Record
}

func newSliceReader(columns []core.Column, batches ...[][]any) *sliceReader {
	r := &sliceReader{schema: arrowio.SchemaFromColumns(columns)}
	for _, rows := range batches {
		rs := &core.ResultSet{Columns: columns, Rows: rows}
		r.records = append(r.records, arrowio.RecordFromResultSet(nil, rs))
	}
	return r
}

func (r *sliceReader) Schema() *arrow.Schema { return r.schema }

func (r *sliceReader) Read(ctx context.Context) (arrow.Record, error) {
	if len(r.records) == 0 {
		return nil, io.EOF
	}
	rec := r.records[0]
	r.records = r.records[1:]
	return rec, nil
}

func (r *sliceReader) Close() error {
	for _, rec := range r.records {
		rec.Release()
	}
	r.records = nil
	return nil
}

func eventColumns() []core.Column {
	return []core.Column{
		{Name: "id", DatabaseType: "BIGINT", Kind: core.KindInt},
		{Name: "name", DatabaseType: "VARCHAR", Kind: core.KindString},
		{Name: "score", DatabaseType: "DOUBLE", Kind: core.KindFloat},
	}
}

func TestCompareClean(t *testing.T) {
	cols := eventColumns()
	source := newSliceReader(cols,
		[][]any{{int64(1), "signup", 1.5}, {int64(2), "login", 2.5}},
		[][]any{{int64(3), "purchase", 3.5}},
	)
	target := newSliceReader(cols,
		[][]any{{int64(3), "purchase", 3.5}, {int64(1), "signup", 1.5}, {int64(2), "login", 2.5}},
	)

	report, err := New(nil).Compare(context.Background(), source, target, Options{KeyColumns: []string{"id"}})
	require.NoError(t, err)

	assert.True(t, report.Clean())
	assert.Equal(t, int64(3), report.SourceRows)
	assert.Equal(t, int64(3), report.TargetRows)
	assert.Equal(t, []string{"id"}, report.KeyColumns)
	assert.Equal(t, []string{"name", "score"}, report.ComparedColumns)
}

func TestCompareMissingAndExtra(t *testing.T) {
	cols := eventColumns()
	source := newSliceReader(cols, [][]any{
		{int64(1), "signup", 1.5},
		{int64(2), "login", 2.5},
	})
	target := newSliceReader(cols, [][]any{
		{int64(1), "signup", 1.5},
		{int64(9), "refund", 9.5},
	})

	report, err := New(nil).Compare(context.Background(), source, target, Options{KeyColumns: []string{"id"}})
	require.NoError(t, err)

	assert.False(t, report.Clean())
	assert.Equal(t, int64(1), report.Missing)
	assert.Equal(t, int64(1), report.Extra)
	assert.Equal(t, int64(0), report.Mismatched)
}

func TestCompareMismatch(t *testing.T) {
	cols := eventColumns()
	source := newSliceReader(cols, [][]any{{int64(1), "signup", 1.5}})
	target := newSliceReader(cols, [][]any{{int64(1), "signup", 9.9}})

	report, err := New(nil).Compare(context.Background(), source, target, Options{KeyColumns: []string{"id"}})
	require.NoError(t, err)

	assert.Equal(t, int64(1), report.Mismatched)
	assert.Equal(t, int64(1), report.MismatchedColumns["score"])
	assert.Zero(t, report.MismatchedColumns["name"])
}

func TestCompareTolerance(t *testing.T) {
	cols := eventColumns()
	source := newSliceReader(cols, [][]any{{int64(1), "signup", 1.5}})
	target := newSliceReader(cols, [][]any{{int64(1), "signup", 1.5000001}})

	strict, err := New(nil).Compare(context.Background(),
		newSliceReader(cols, [][]any{{int64(1), "signup", 1.5}}),
		newSliceReader(cols, [][]any{{int64(1), "signup", 1.5000001}}),
		Options{KeyColumns: []string{"id"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), strict.Mismatched)

	loose, err := New(nil).Compare(context.Background(), source, target,
		Options{KeyColumns: []string{"id"}, Tolerance: 1e-3})
	require.NoError(t, err)
	assert.True(t, loose.Clean())
}

func TestCompareDefaultKeys(t *testing.T) {
	cols := eventColumns()
	// No key columns: the whole row is the identity, so reordering is fine.
	source := newSliceReader(cols, [][]any{
		{int64(1), "signup", 1.5},
		{int64(2), "login", 2.5},
	})
	target := newSliceReader(cols, [][]any{
		{int64(2), "login", 2.5},
		{int64(1), "signup", 1.5},
	})

	report, err := New(nil).Compare(context.Background(), source, target, Options{})
	require.NoError(t, err)

	assert.True(t, report.Clean())
	assert.Equal(t, []string{"id", "name", "score"}, report.KeyColumns)
	assert.Empty(t, report.ComparedColumns)
}

func TestCompareIgnoreColumns(t *testing.T) {
	cols := eventColumns()
	source := newSliceReader(cols, [][]any{{int64(1), "signup", 1.5}})
	target := newSliceReader(cols, [][]any{{int64(1), "signup", 777.0}})

	report, err := New(nil).Compare(context.Background(), source, target,
		Options{KeyColumns: []string{"id"}, IgnoreColumns: []string{"score"}})
	require.NoError(t, err)

	assert.True(t, report.Clean())
	assert.Equal(t, []string{"name"}, report.ComparedColumns)
}

func TestCompareDuplicateKeys(t *testing.T) {
	cols := eventColumns()
	source := newSliceReader(cols, [][]any{
		{int64(1), "signup", 1.5},
		{int64(1), "signup", 1.5},
	})
	target := newSliceReader(cols, [][]any{{int64(1), "signup", 1.5}})

	report, err := New(nil).Compare(context.Background(), source, target, Options{KeyColumns: []string{"id"}})
	require.NoError(t, err)

	// Duplicates pair off one to one, so the second source row is missing.
	assert.Equal(t, int64(1), report.Missing)
	assert.Equal(t, int64(0), report.Extra)
}

func TestCompareEmptyDatasets(t *testing.T) {
	cols := eventColumns()
	source := newSliceReader(cols)
	target := newSliceReader(cols)

	report, err := New(nil).Compare(context.Background(), source, target, Options{KeyColumns: []string{"id"}})
	require.NoError(t, err)

	assert.True(t, report.Clean())
	assert.Zero(t, report.SourceRows)
	assert.Zero(t, report.TargetRows)
}

func TestCompareUnknownKey(t *testing.T) {
	cols := eventColumns()
	source := newSliceReader(cols, [][]any{{int64(1), "signup", 1.5}})
	target := newSliceReader(cols, [][]any{{int64(1), "signup", 1.5}})

	_, err := New(nil).Compare(context.Background(), source, target, Options{KeyColumns: []string{"uuid"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uuid")
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name      string
		a, b      any
		tolerance float64
		want      bool
	}{
		{"both nil", nil, nil, 0, true},
		{"nil vs value", nil, int64(1), 0, false},
		{"strings", "a", "a", 0, true},
		{"bools", true, false, 0, false},
		{"int vs float same value", int64(3), 3.0, 0, true},
		{"int vs float different", int64(3), 3.5, 0, false},
		{"within tolerance", 1.0, 1.0005, 1e-3, true},
		{"outside tolerance", 1.0, 1.1, 1e-3, false},
		{"string vs number", "3", int64(3), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, valuesEqual(tt.a, tt.b, tt.tolerance))
		})
	}
}
