// Package duckhttp is a database/sql driver for DuckDB instances exposed
// through the HTTP extension server. It registers under the name
// "duckhttp":
//
//	import _ "github.com/oraichain/duckdb-http/pkg/duckhttp"
//
//	db, err := sql.Open("duckhttp", "duckhttp://:secret@localhost:9999/mydb")
//
// Every statement is one HTTP request; the protocol is stateless, so the
// driver exposes no transactions and database/sql's pool provides the
// one-handle-per-goroutine discipline the adapter expects.
package duckhttp

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/oraichain/duckdb-http/internal/sqlargs"
	"github.com/oraichain/duckdb-http/pkg/client"
	"github.com/oraichain/duckdb-http/pkg/core"
)

// DriverName is the name registered with database/sql.
const DriverName = "duckhttp"

func init() {
	sql.Register(DriverName, &Driver{})
}

// Compile-time interface checks.
var (
	_ driver.Driver                         = (*Driver)(nil)
	_ driver.DriverContext                  = (*Driver)(nil)
	_ driver.Connector                      = (*connector)(nil)
	_ driver.Conn                           = (*conn)(nil)
	_ driver.Pinger                         = (*conn)(nil)
	_ driver.QueryerContext                 = (*conn)(nil)
	_ driver.ExecerContext                  = (*conn)(nil)
	_ driver.ConnBeginTx                    = (*conn)(nil)
	_ driver.Stmt                           = (*stmt)(nil)
	_ driver.StmtQueryContext               = (*stmt)(nil)
	_ driver.StmtExecContext                = (*stmt)(nil)
	_ driver.Rows                           = (*rows)(nil)
	_ driver.RowsColumnTypeDatabaseTypeName = (*rows)(nil)
	_ driver.RowsColumnTypeScanType         = (*rows)(nil)
	_ driver.RowsColumnTypeNullable         = (*rows)(nil)
)

// Driver implements driver.Driver and driver.DriverContext.
type Driver struct{}

// Open opens a connection directly from a connection string.
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	c, err := d.OpenConnector(dsn)
	if err != nil {
		return nil, err
	}
	return c.Connect(context.Background())
}

// OpenConnector validates the connection string once and returns a
// connector database/sql can reuse for the whole pool.
func (d *Driver) OpenConnector(dsn string) (driver.Connector, error) {
	endpoint, opts, err := client.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	return &connector{drv: d, endpoint: endpoint, opts: opts}, nil
}

type connector struct {
	drv      *Driver
	endpoint string
	opts     []client.Option
}

// Connect opens the transport handle and probes reachability without
// issuing a SQL statement. An unreachable endpoint or rejected credential
// surfaces here as a ConnectionError, never later as a fetch error.
func (c *connector) Connect(ctx context.Context) (driver.Conn, error) {
	cl, err := client.New(c.endpoint, c.opts...)
	if err != nil {
		return nil, err
	}
	if err := cl.Ping(ctx); err != nil {
		cl.Close()
		return nil, err
	}
	return &conn{cl: cl}, nil
}

func (c *connector) Driver() driver.Driver { return c.drv }

// conn is one logical connection. It holds no statement state; it is not
// safe for concurrent use, which matches database/sql's usage contract.
type conn struct {
	cl     *client.Client
	closed bool
}

// Prepare returns a client-side statement; the server has no prepared
// statement facility, so preparation is deferred to execution.
func (c *conn) Prepare(query string) (driver.Stmt, error) {
	if c.closed {
		return nil, driver.ErrBadConn
	}
	return &stmt{c: c, query: query}, nil
}

// Close releases the transport handle. It is idempotent.
func (c *conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.cl.Close()
}

// Begin is unsupported: one request per statement, no sessions.
func (c *conn) Begin() (driver.Tx, error) {
	return nil, errTransactions
}

// BeginTx is unsupported for the same reason as Begin.
func (c *conn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	return nil, errTransactions
}

var errTransactions = errors.New("duckhttp: transactions are not supported over the stateless HTTP protocol")

// Ping probes the endpoint without issuing a SQL statement.
func (c *conn) Ping(ctx context.Context) error {
	if c.closed {
		return driver.ErrBadConn
	}
	return c.cl.Ping(ctx)
}

// QueryContext executes one statement and returns its rows.
func (c *conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if c.closed {
		return nil, driver.ErrBadConn
	}
	sqlText, err := bindArgs(query, args)
	if err != nil {
		return nil, err
	}
	rs, err := c.cl.Query(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	return &rows{rs: rs}, nil
}

// ExecContext executes one statement, discarding rows.
func (c *conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if c.closed {
		return nil, driver.ErrBadConn
	}
	sqlText, err := bindArgs(query, args)
	if err != nil {
		return nil, err
	}
	n, err := c.cl.Exec(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	return execResult(n), nil
}

// bindArgs interpolates driver arguments into the statement text. Named
// parameters are rejected; the wire protocol carries plain positional
// SQL.
func bindArgs(query string, args []driver.NamedValue) (string, error) {
	if len(args) == 0 {
		return query, nil
	}
	values := make([]any, len(args))
	for i, a := range args {
		if a.Name != "" {
			return "", fmt.Errorf("duckhttp: named parameter %q is not supported", a.Name)
		}
		values[i] = a.Value
	}
	return sqlargs.Interpolate(query, values)
}

// stmt defers everything to execution time; NumInput is unknown because
// placeholder counting happens during interpolation.
type stmt struct {
	c     *conn
	query string
}

func (s *stmt) Close() error  { return nil }
func (s *stmt) NumInput() int { return -1 }

func (s *stmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), namedValues(args))
}

func (s *stmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), namedValues(args))
}

func (s *stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	return s.c.ExecContext(ctx, s.query, args)
}

func (s *stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	return s.c.QueryContext(ctx, s.query, args)
}

func namedValues(args []driver.Value) []driver.NamedValue {
	named := make([]driver.NamedValue, len(args))
	for i, v := range args {
		named[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return named
}

// execResult is the affected-row count of a statement; the server
// assigns no insert ids.
type execResult int64

func (r execResult) LastInsertId() (int64, error) {
	return 0, errors.New("duckhttp: last insert id is not reported by the server")
}

func (r execResult) RowsAffected() (int64, error) { return int64(r), nil }

// rows adapts a decoded ResultSet to the driver's row cursor.
type rows struct {
	rs *core.ResultSet
}

func (r *rows) Columns() []string {
	return r.rs.ColumnNames()
}

// Close drops the remaining rows; the response was already consumed.
func (r *rows) Close() error {
	r.rs.FetchAll()
	return nil
}

func (r *rows) Next(dest []driver.Value) error {
	row, ok := r.rs.Next()
	if !ok {
		return io.EOF
	}
	for i := range dest {
		var v any
		if i < len(row) {
			v = row[i]
		}
		dest[i] = driverValue(v, r.rs.Columns[i].Kind)
	}
	return nil
}

// ColumnTypeDatabaseTypeName reports the declared DuckDB type when the
// response carried one.
func (r *rows) ColumnTypeDatabaseTypeName(index int) string {
	return r.rs.Columns[index].DatabaseType
}

// ColumnTypeScanType suggests Go scan targets per column kind.
func (r *rows) ColumnTypeScanType(index int) reflect.Type {
	switch r.rs.Columns[index].Kind {
	case core.KindInt:
		return reflect.TypeOf(int64(0))
	case core.KindFloat:
		return reflect.TypeOf(float64(0))
	case core.KindBool:
		return reflect.TypeOf(false)
	case core.KindDate, core.KindTimestamp:
		return reflect.TypeOf(time.Time{})
	case core.KindBytes:
		return reflect.TypeOf([]byte(nil))
	default:
		return reflect.TypeOf("")
	}
}

// ColumnTypeNullable is always (true, true): the wire format cannot
// prove a column non-nullable.
func (r *rows) ColumnTypeNullable(index int) (nullable, ok bool) {
	return true, true
}

// driverValue coerces a decoded cell into one of driver.Value's allowed
// types, honoring the column kind for temporals and blobs.
func driverValue(v any, kind core.TypeKind) driver.Value {
	if v == nil {
		return nil
	}
	switch kind {
	case core.KindDate, core.KindTimestamp:
		if s, ok := v.(string); ok {
			if t, ok := parseTemporal(s); ok {
				return t
			}
		}
	case core.KindBytes:
		if s, ok := v.(string); ok {
			return []byte(s)
		}
	}

	switch x := v.(type) {
	case int64, float64, bool, string, []byte, time.Time:
		return x
	default:
		// Structured values (LIST, STRUCT) travel as their JSON text.
		if b, err := json.Marshal(x); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", x)
	}
}

var temporalLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTemporal(s string) (time.Time, bool) {
	for _, layout := range temporalLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
