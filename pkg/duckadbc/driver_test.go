package duckadbc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEndpoint answers the ping probe and maps SQL substrings to canned
// response bodies, like a DuckDB HTTP extension server in miniature.
type fakeEndpoint struct {
	srv       *httptest.Server
	mu        sync.Mutex
	responses map[string]string
	fallback  string
	code      int
	queries   []string
}

func newFakeEndpoint(t *testing.T) *fakeEndpoint {
	t.Helper()
	f := &fakeEndpoint{
		responses: map[string]string{},
		fallback:  `{"columns":["ok"],"data":[[1]]}`,
		code:      http.StatusOK,
	}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte("OK"))
			return
		}
		raw, _ := io.ReadAll(r.Body)
		sql := string(raw)
		f.mu.Lock()
		f.queries = append(f.queries, sql)
		code, body := f.code, f.fallback
		for frag, resp := range f.responses {
			if strings.Contains(sql, frag) {
				body = resp
				break
			}
		}
		f.mu.Unlock()
		w.WriteHeader(code)
		w.Write([]byte(body))
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeEndpoint) sqlLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func (f *fakeEndpoint) connect(t *testing.T) adbc.Connection {
	t.Helper()
	db, err := NewDriver(nil).NewDatabase(map[string]string{
		adbc.OptionKeyURI: f.srv.URL,
	})
	require.NoError(t, err)
	cnxn, err := db.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { cnxn.Close() })
	return cnxn
}

// TestOpenCloseWithoutStatement opens and closes a connection without a
// single statement hitting the wire.
func TestOpenCloseWithoutStatement(t *testing.T) {
	f := newFakeEndpoint(t)
	db, err := NewDriver(nil).NewDatabase(map[string]string{
		adbc.OptionKeyURI: f.srv.URL,
	})
	require.NoError(t, err)

	cnxn, err := db.Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, cnxn.Close())
	assert.Empty(t, f.sqlLog())

	err = cnxn.Close()
	var ae adbc.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, adbc.StatusInvalidState, ae.Code)
}

// TestOpenUnreachable classifies a dead endpoint as an IO failure at
// Open time.
func TestOpenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	db, err := NewDriver(nil).NewDatabase(map[string]string{
		adbc.OptionKeyURI: url,
	})
	require.NoError(t, err)

	_, err = db.Open(context.Background())
	var ae adbc.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, adbc.StatusIO, ae.Code)
}

// TestMissingURIRejected fails database setup before any dialing.
func TestMissingURIRejected(t *testing.T) {
	db, err := NewDriver(nil).NewDatabase(map[string]string{})
	require.NoError(t, err)
	_, err = db.Open(context.Background())
	var ae adbc.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, adbc.StatusInvalidArgument, ae.Code)
}

// TestUnknownDriverOptionRejected catches typos in the duckhttp option
// namespace.
func TestUnknownDriverOptionRejected(t *testing.T) {
	_, err := NewDriver(nil).NewDatabase(map[string]string{
		"duckhttp.api_keyy": "oops",
	})
	var ae adbc.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, adbc.StatusNotImplemented, ae.Code)
}

// TestExecuteQuerySelectOne covers the scalar smoke statement through
// the Arrow surface.
func TestExecuteQuerySelectOne(t *testing.T) {
	f := newFakeEndpoint(t)
	f.responses["SELECT 1"] = `{"columns":["1"],"types":["INTEGER"],"data":[[1]]}`
	cnxn := f.connect(t)

	stmt, err := cnxn.NewStatement()
	require.NoError(t, err)
	defer stmt.Close()
	require.NoError(t, stmt.SetSqlQuery("SELECT 1"))

	rdr, rows, err := stmt.ExecuteQuery(context.Background())
	require.NoError(t, err)
	defer rdr.Release()

	assert.Equal(t, int64(1), rows)
	require.True(t, rdr.Next())
	rec := rdr.Record()
	require.EqualValues(t, 1, rec.NumCols())
	require.EqualValues(t, 1, rec.NumRows())
	col, ok := rec.Column(0).(*array.Int64)
	require.True(t, ok, "got %T", rec.Column(0))
	assert.Equal(t, int64(1), col.Value(0))
	assert.False(t, rdr.Next())
}

// TestExecuteQueryErrorStatus maps a rejected statement onto
// InvalidArgument with the server's message attached.
func TestExecuteQueryErrorStatus(t *testing.T) {
	f := newFakeEndpoint(t)
	f.code = http.StatusBadRequest
	f.fallback = `{"error":"Binder Error: no such column"}`
	cnxn := f.connect(t)

	stmt, err := cnxn.NewStatement()
	require.NoError(t, err)
	defer stmt.Close()
	require.NoError(t, stmt.SetSqlQuery("SELECT nope FROM t"))

	_, _, err = stmt.ExecuteQuery(context.Background())
	var ae adbc.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, adbc.StatusInvalidArgument, ae.Code)
	assert.Contains(t, ae.Msg, "Binder Error")
}

// TestExecuteQueryMalformedBody maps an undecodable success response
// onto Internal.
func TestExecuteQueryMalformedBody(t *testing.T) {
	f := newFakeEndpoint(t)
	f.fallback = `{"columns": ["a"], "data": [[1`
	cnxn := f.connect(t)

	stmt, err := cnxn.NewStatement()
	require.NoError(t, err)
	defer stmt.Close()
	require.NoError(t, stmt.SetSqlQuery("SELECT a FROM t"))

	_, _, err = stmt.ExecuteQuery(context.Background())
	var ae adbc.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, adbc.StatusInternal, ae.Code)
}

// TestTransactionsNotImplemented pins Commit and Rollback to
// NotImplemented.
func TestTransactionsNotImplemented(t *testing.T) {
	f := newFakeEndpoint(t)
	cnxn := f.connect(t)

	for _, err := range []error{
		cnxn.Commit(context.Background()),
		cnxn.Rollback(context.Background()),
	} {
		var ae adbc.Error
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, adbc.StatusNotImplemented, ae.Code)
	}
}

// TestAutocommitToggle keeps the default enabled state settable and the
// disabled state rejected.
func TestAutocommitToggle(t *testing.T) {
	f := newFakeEndpoint(t)
	cnxn := f.connect(t)
	opts, ok := cnxn.(interface{ SetOption(string, string) error })
	require.True(t, ok)

	assert.NoError(t, opts.SetOption(adbc.OptionKeyAutoCommit, adbc.OptionValueEnabled))
	err := opts.SetOption(adbc.OptionKeyAutoCommit, adbc.OptionValueDisabled)
	var ae adbc.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, adbc.StatusNotImplemented, ae.Code)
}

// TestGetTableSchema introspects DESCRIBE output into an Arrow schema.
func TestGetTableSchema(t *testing.T) {
	f := newFakeEndpoint(t)
	f.responses[`DESCRIBE "users"`] = `{
		"columns": ["column_name", "column_type", "null", "key", "default", "extra"],
		"data": [
			["id", "BIGINT", "NO", "PRI", null, null],
			["name", "VARCHAR", "YES", null, null, null],
			["joined", "TIMESTAMP", "YES", null, null, null]
		]
	}`
	cnxn := f.connect(t)

	sc, err := cnxn.GetTableSchema(context.Background(), nil, nil, "users")
	require.NoError(t, err)
	require.Equal(t, 3, sc.NumFields())

	assert.Equal(t, "id", sc.Field(0).Name)
	assert.Equal(t, arrow.PrimitiveTypes.Int64, sc.Field(0).Type)
	assert.False(t, sc.Field(0).Nullable)

	assert.Equal(t, "name", sc.Field(1).Name)
	assert.Equal(t, arrow.BinaryTypes.String, sc.Field(1).Type)
	assert.True(t, sc.Field(1).Nullable)

	assert.Equal(t, "joined", sc.Field(2).Name)
	assert.Equal(t, arrow.FixedWidthTypes.Timestamp_us, sc.Field(2).Type)
}

// TestGetTableSchemaMissingTable reports NotFound when DESCRIBE yields
// nothing.
func TestGetTableSchemaMissingTable(t *testing.T) {
	f := newFakeEndpoint(t)
	f.responses["DESCRIBE"] = `{"columns":["column_name","column_type","null","key","default","extra"],"data":[]}`
	cnxn := f.connect(t)

	_, err := cnxn.GetTableSchema(context.Background(), nil, nil, "ghost")
	var ae adbc.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, adbc.StatusNotFound, ae.Code)
}

// TestGetTableTypes lists the two catalog table types.
func TestGetTableTypes(t *testing.T) {
	f := newFakeEndpoint(t)
	cnxn := f.connect(t)

	rdr, err := cnxn.GetTableTypes(context.Background())
	require.NoError(t, err)
	defer rdr.Release()

	require.True(t, rdr.Next())
	rec := rdr.Record()
	col := rec.Column(0).(*array.String)
	got := []string{}
	for i := 0; i < col.Len(); i++ {
		got = append(got, col.Value(i))
	}
	assert.ElementsMatch(t, []string{"BASE TABLE", "VIEW"}, got)
}

// TestGetInfo reports driver metadata plus the live server version.
func TestGetInfo(t *testing.T) {
	f := newFakeEndpoint(t)
	f.responses["version()"] = `{"columns":["version()"],"data":[["v1.2.1"]]}`
	cnxn := f.connect(t)

	rdr, err := cnxn.GetInfo(context.Background(), nil)
	require.NoError(t, err)
	defer rdr.Release()

	require.True(t, rdr.Next())
	rec := rdr.Record()
	codes := rec.Column(0).(*array.Uint32)
	seen := map[uint32]bool{}
	for i := 0; i < codes.Len(); i++ {
		seen[codes.Value(i)] = true
	}
	assert.True(t, seen[uint32(adbc.InfoDriverName)])
	assert.True(t, seen[uint32(adbc.InfoVendorName)])
	assert.True(t, seen[uint32(adbc.InfoVendorVersion)])
}

// TestStatementLifecycle rejects execution without a query and after
// close.
func TestStatementLifecycle(t *testing.T) {
	f := newFakeEndpoint(t)
	cnxn := f.connect(t)

	stmt, err := cnxn.NewStatement()
	require.NoError(t, err)

	_, _, err = stmt.ExecuteQuery(context.Background())
	var ae adbc.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, adbc.StatusInvalidState, ae.Code)

	require.NoError(t, stmt.SetSqlQuery("SELECT 1"))
	require.NoError(t, stmt.Prepare(context.Background()))
	require.NoError(t, stmt.Close())

	_, _, err = stmt.ExecuteQuery(context.Background())
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, adbc.StatusInvalidState, ae.Code)
}

// TestBindNotImplemented keeps the binding surface explicit.
func TestBindNotImplemented(t *testing.T) {
	f := newFakeEndpoint(t)
	cnxn := f.connect(t)

	stmt, err := cnxn.NewStatement()
	require.NoError(t, err)
	defer stmt.Close()

	err = stmt.Bind(context.Background(), nil)
	var ae adbc.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, adbc.StatusNotImplemented, ae.Code)

	_, err = stmt.GetParameterSchema()
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, adbc.StatusNotImplemented, ae.Code)
}

// TestAPIKeyOptionWins prefers the explicit option over the URI secret.
func TestAPIKeyOptionWins(t *testing.T) {
	var gotKey string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotKey = r.Header.Get("X-API-Key")
		mu.Unlock()
		w.Write([]byte(`{"columns":["ok"],"data":[[1]]}`))
	}))
	defer srv.Close()

	uri := strings.Replace(srv.URL, "http://", "duckhttp://:from-uri@", 1)
	db, err := NewDriver(nil).NewDatabase(map[string]string{
		adbc.OptionKeyURI: uri,
		OptionAPIKey:      "from-option",
	})
	require.NoError(t, err)

	cnxn, err := db.Open(context.Background())
	require.NoError(t, err)
	defer cnxn.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "from-option", gotKey)
}

// TestExecuteUpdate surfaces the single-cell count shape.
func TestExecuteUpdate(t *testing.T) {
	f := newFakeEndpoint(t)
	f.responses["DELETE"] = `{"columns":["Count"],"data":[[7]]}`
	cnxn := f.connect(t)

	stmt, err := cnxn.NewStatement()
	require.NoError(t, err)
	defer stmt.Close()
	require.NoError(t, stmt.SetSqlQuery("DELETE FROM t WHERE stale"))

	n, err := stmt.ExecuteUpdate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
