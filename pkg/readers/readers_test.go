package readers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oraichain/duckdb-http/pkg/arrowio"
	"github.com/oraichain/duckdb-http/pkg/core"
	"github.com/oraichain/duckdb-http/pkg/writers"
)

var sampleRows = [][]any{
	{int64(1), "ada", 9.5},
	{int64(2), "grace", 8.25},
}

// writeFixture exports the sample rows with the matching writer so the
// readers are tested against files this module itself produces.
func writeFixture(t *testing.T, typ, path string) {
	t.Helper()

	rs := &core.ResultSet{
		Columns: []core.Column{
			{Name: "id", DatabaseType: "BIGINT", Kind: core.KindInt},
			{Name: "name", DatabaseType: "VARCHAR", Kind: core.KindString},
			{Name: "score", DatabaseType: "DOUBLE", Kind: core.KindFloat},
		},
		Rows: sampleRows,
	}
	rec := arrowio.RecordFromResultSet(nil, rs)
	defer rec.Release()

	w, err := writers.DefaultFactory.Create(core.WriterConfig{Type: typ, Path: path})
	require.NoError(t, err)
	require.NoError(t, w.Write(context.Background(), rec))
	require.NoError(t, w.Close())
}

// readAllRows drains a reader and flattens every record into rows.
func readAllRows(t *testing.T, r core.DatasetReader) [][]any {
	t.Helper()

	var rows [][]any
	for {
		rec, err := r.Read(context.Background())
		if err == io.EOF {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, arrowio.RowsFromRecord(rec)...)
		rec.Release()
	}
}

func TestTypeFromPath(t *testing.T) {
	cases := map[string]string{
		"data.csv":      "csv",
		"data.PARQUET":  "parquet",
		"data.arrow":    "arrow",
		"data.ipc":      "arrow",
		"data.feather":  "arrow",
		"data.unknown":  "",
		"noextension":   "",
		"dir/data.csv":  "csv",
		"dir/data.json": "",
	}
	for path, want := range cases {
		assert.Equal(t, want, TypeFromPath(path), "path %s", path)
	}
}

func TestFactoryUnknownType(t *testing.T) {
	_, err := DefaultFactory.Create(core.ReaderConfig{Path: "data.xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported reader type")
}

func TestFactoryRequiresPath(t *testing.T) {
	for _, typ := range []string{"csv", "parquet", "arrow"} {
		_, err := DefaultFactory.Create(core.ReaderConfig{Type: typ})
		assert.Error(t, err, "type %s", typ)
	}
}

func TestCSVReaderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.csv")
	writeFixture(t, "csv", path)

	r, err := DefaultFactory.Create(core.ReaderConfig{Path: path})
	require.NoError(t, err)
	defer r.Close()

	rows := readAllRows(t, r)
	assert.Equal(t, sampleRows, rows)

	schema := r.Schema()
	require.NotNil(t, schema)
	assert.Equal(t, "id", schema.Field(0).Name)
	assert.Equal(t, arrow.PrimitiveTypes.Int64, schema.Field(0).Type)
}

func TestParquetReaderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.parquet")
	writeFixture(t, "parquet", path)

	r, err := DefaultFactory.Create(core.ReaderConfig{Path: path})
	require.NoError(t, err)
	defer r.Close()

	schema := r.Schema()
	require.NotNil(t, schema)
	require.Equal(t, 3, schema.NumFields())
	assert.Equal(t, arrow.PrimitiveTypes.Float64, schema.Field(2).Type)

	rows := readAllRows(t, r)
	assert.Equal(t, sampleRows, rows)
}

func TestArrowReaderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.arrow")
	writeFixture(t, "arrow", path)

	r, err := DefaultFactory.Create(core.ReaderConfig{Path: path})
	require.NoError(t, err)
	defer r.Close()

	rows := readAllRows(t, r)
	assert.Equal(t, sampleRows, rows)
}

// endpointFixture emulates just enough of the HTTP protocol for the
// endpoint reader: a ping route and a canned scan with a zero-row probe.
func endpointFixture(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()

	var mu sync.Mutex
	var statements []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte("OK"))
			return
		}
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		sql := string(body)

		mu.Lock()
		statements = append(statements, sql)
		mu.Unlock()

		if strings.Contains(sql, "LIMIT 0") {
			w.Write([]byte(`{"columns":["id","name","score"],"types":["BIGINT","VARCHAR","DOUBLE"],"data":[]}`))
			return
		}
		w.Write([]byte(`{"columns":["id","name","score"],"types":["BIGINT","VARCHAR","DOUBLE"],"data":[[1,"ada",9.5],[2,"grace",8.25]]}`))
	}))
	t.Cleanup(srv.Close)

	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), statements...)
	}
}

func TestEndpointReader(t *testing.T) {
	srv, statements := endpointFixture(t)

	r, err := DefaultFactory.Create(core.ReaderConfig{
		Type:  "endpoint",
		DSN:   srv.URL,
		Table: "events",
	})
	require.NoError(t, err)

	schema := r.Schema()
	require.NotNil(t, schema)
	require.Equal(t, 3, schema.NumFields())
	assert.Equal(t, arrow.PrimitiveTypes.Int64, schema.Field(0).Type)

	rows := readAllRows(t, r)
	assert.Equal(t, sampleRows, rows)
	require.NoError(t, r.Close())

	seen := statements()
	require.NotEmpty(t, seen)
	assert.Equal(t, "SELECT * FROM (SELECT * FROM events) LIMIT 0", seen[0])
	assert.Contains(t, seen, "SELECT * FROM events")
}

func TestEndpointReaderRequiresSource(t *testing.T) {
	_, err := NewEndpointReader(core.ReaderConfig{Table: "events"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn is required")

	_, err = NewEndpointReader(core.ReaderConfig{DSN: "http://localhost:9999"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "either query or table")
}
