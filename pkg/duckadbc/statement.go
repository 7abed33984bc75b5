package duckadbc

import (
	"context"
	"fmt"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/oraichain/duckdb-http/pkg/arrowio"
	"github.com/oraichain/duckdb-http/pkg/client"
	"github.com/oraichain/duckdb-http/pkg/core"
)

var _ adbc.Statement = (*statement)(nil)

// statement carries one SQL string at a time. Prepare is a no-op: the
// server compiles on execution, every time.
type statement struct {
	mem   memory.Allocator
	cl    *client.Client
	query string
}

func (s *statement) Close() error {
	if s.cl == nil {
		return adbc.Error{Code: adbc.StatusInvalidState, Msg: "statement already closed"}
	}
	s.cl = nil
	return nil
}

func (s *statement) SetOption(key, value string) error {
	return adbc.Error{
		Code: adbc.StatusNotImplemented,
		Msg:  fmt.Sprintf("unknown statement option %q", key),
	}
}

// SetSqlQuery replaces the statement text.
func (s *statement) SetSqlQuery(query string) error {
	if s.cl == nil {
		return adbc.Error{Code: adbc.StatusInvalidState, Msg: "statement is closed"}
	}
	s.query = query
	return nil
}

// ExecuteQuery runs the statement and returns its rows as a single Arrow
// record batch.
func (s *statement) ExecuteQuery(ctx context.Context) (array.RecordReader, int64, error) {
	rs, err := s.run(ctx)
	if err != nil {
		return nil, -1, err
	}
	rec := arrowio.RecordFromResultSet(s.mem, rs)
	return arrowio.NewSingleRecordReader(rec), int64(rs.RowCount()), nil
}

// ExecuteUpdate runs the statement and reports affected rows when the
// server answers with its single-cell count shape.
func (s *statement) ExecuteUpdate(ctx context.Context) (int64, error) {
	if s.cl == nil {
		return -1, adbc.Error{Code: adbc.StatusInvalidState, Msg: "statement is closed"}
	}
	if s.query == "" {
		return -1, adbc.Error{Code: adbc.StatusInvalidState, Msg: "no query set"}
	}
	n, err := s.cl.Exec(ctx, s.query)
	if err != nil {
		return -1, toAdbcError(err)
	}
	return n, nil
}

// Prepare succeeds without doing anything; there is no server-side
// prepared state to create.
func (s *statement) Prepare(ctx context.Context) error {
	if s.query == "" {
		return adbc.Error{Code: adbc.StatusInvalidState, Msg: "no query set"}
	}
	return nil
}

func (s *statement) SetSubstraitPlan(plan []byte) error {
	return adbc.Error{
		Code: adbc.StatusNotImplemented,
		Msg:  "Substrait plans are not supported",
	}
}

func (s *statement) Bind(ctx context.Context, values arrow.Record) error {
	return adbc.Error{
		Code: adbc.StatusNotImplemented,
		Msg:  "parameter binding is not supported; interpolate values into the SQL text",
	}
}

func (s *statement) BindStream(ctx context.Context, stream array.RecordReader) error {
	return adbc.Error{
		Code: adbc.StatusNotImplemented,
		Msg:  "parameter binding is not supported; interpolate values into the SQL text",
	}
}

func (s *statement) GetParameterSchema() (*arrow.Schema, error) {
	return nil, adbc.Error{
		Code: adbc.StatusNotImplemented,
		Msg:  "parameter binding is not supported",
	}
}

func (s *statement) ExecutePartitions(ctx context.Context) (*arrow.Schema, adbc.Partitions, int64, error) {
	return nil, adbc.Partitions{}, -1, adbc.Error{
		Code: adbc.StatusNotImplemented,
		Msg:  "partitioned execution is not supported",
	}
}

func (s *statement) run(ctx context.Context) (*core.ResultSet, error) {
	if s.cl == nil {
		return nil, adbc.Error{Code: adbc.StatusInvalidState, Msg: "statement is closed"}
	}
	if s.query == "" {
		return nil, adbc.Error{Code: adbc.StatusInvalidState, Msg: "no query set"}
	}
	out, err := s.cl.Query(ctx, s.query)
	if err != nil {
		return nil, toAdbcError(err)
	}
	return out, nil
}
