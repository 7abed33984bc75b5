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
	"github.com/oraichain/duckdb-http/pkg/schema"
	"github.com/oraichain/duckdb-http/version"
)

var _ adbc.Connection = (*connection)(nil)

// connection is one ADBC connection over a shared-nothing HTTP handle.
// It is not safe for concurrent use; open one connection per goroutine.
type connection struct {
	mem memory.Allocator
	cl  *client.Client
}

// NewStatement returns an empty statement bound to this connection.
func (c *connection) NewStatement() (adbc.Statement, error) {
	if c.cl == nil {
		return nil, adbc.Error{Code: adbc.StatusInvalidState, Msg: "connection is closed"}
	}
	return &statement{mem: c.mem, cl: c.cl}, nil
}

// Close releases the transport handle. Closing twice is an error, per
// the ADBC lifecycle.
func (c *connection) Close() error {
	if c.cl == nil {
		return adbc.Error{Code: adbc.StatusInvalidState, Msg: "connection already closed"}
	}
	err := c.cl.Close()
	c.cl = nil
	return err
}

// Commit fails: every statement commits on the server as it executes.
func (c *connection) Commit(ctx context.Context) error {
	return adbc.Error{
		Code: adbc.StatusNotImplemented,
		Msg:  "transactions are not supported over the stateless HTTP protocol",
	}
}

// Rollback fails for the same reason as Commit.
func (c *connection) Rollback(ctx context.Context) error {
	return adbc.Error{
		Code: adbc.StatusNotImplemented,
		Msg:  "transactions are not supported over the stateless HTTP protocol",
	}
}

// SetOption accepts re-enabling autocommit (the only mode that exists)
// and rejects everything else.
func (c *connection) SetOption(key, value string) error {
	if key == adbc.OptionKeyAutoCommit {
		if value == adbc.OptionValueEnabled {
			return nil
		}
		return adbc.Error{
			Code: adbc.StatusNotImplemented,
			Msg:  "autocommit cannot be disabled over the stateless HTTP protocol",
		}
	}
	return adbc.Error{
		Code: adbc.StatusNotImplemented,
		Msg:  fmt.Sprintf("unknown connection option %q", key),
	}
}

// getInfoSchema is the standard GetInfo result shape: a code and a
// dense-union value. Only string values are produced here; the remaining
// union children stay empty.
var getInfoSchema = arrow.NewSchema([]arrow.Field{
	{Name: "info_name", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "info_value", Type: arrow.DenseUnionOf(
		[]arrow.Field{
			{Name: "string_value", Type: arrow.BinaryTypes.String, Nullable: true},
			{Name: "bool_value", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
			{Name: "int64_value", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
			{Name: "int32_bitmask", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
			{Name: "string_list", Type: arrow.ListOf(arrow.BinaryTypes.String), Nullable: true},
			{Name: "int32_to_int32_list_map", Type: arrow.MapOf(
				arrow.PrimitiveTypes.Int32, arrow.ListOf(arrow.PrimitiveTypes.Int32),
			), Nullable: true},
		},
		[]arrow.UnionTypeCode{0, 1, 2, 3, 4, 5},
	), Nullable: true},
}, nil)

// GetInfo reports driver and vendor metadata. The vendor version comes
// from a live SELECT version() and is omitted when the server cannot
// answer it.
func (c *connection) GetInfo(ctx context.Context, infoCodes []adbc.InfoCode) (array.RecordReader, error) {
	if c.cl == nil {
		return nil, adbc.Error{Code: adbc.StatusInvalidState, Msg: "connection is closed"}
	}
	if len(infoCodes) == 0 {
		infoCodes = []adbc.InfoCode{
			adbc.InfoVendorName, adbc.InfoVendorVersion,
			adbc.InfoDriverName, adbc.InfoDriverVersion, adbc.InfoDriverArrowVersion,
		}
	}

	bldr := array.NewRecordBuilder(c.mem, getInfoSchema)
	defer bldr.Release()
	nameBldr := bldr.Field(0).(*array.Uint32Builder)
	valueBldr := bldr.Field(1).(*array.DenseUnionBuilder)
	strBldr := valueBldr.Child(0).(*array.StringBuilder)

	appendStr := func(code adbc.InfoCode, value string) {
		nameBldr.Append(uint32(code))
		valueBldr.Append(0)
		strBldr.Append(value)
	}

	for _, code := range infoCodes {
		switch code {
		case adbc.InfoVendorName:
			appendStr(code, "DuckDB (HTTP)")
		case adbc.InfoVendorVersion:
			if v := c.vendorVersion(ctx); v != "" {
				appendStr(code, v)
			}
		case adbc.InfoDriverName:
			appendStr(code, driverName)
		case adbc.InfoDriverVersion:
			appendStr(code, version.GetVersion())
		case adbc.InfoDriverArrowVersion:
			appendStr(code, "v18")
		}
	}

	rec := bldr.NewRecord()
	return arrowio.NewSingleRecordReader(rec), nil
}

func (c *connection) vendorVersion(ctx context.Context) string {
	rs, err := c.cl.Query(ctx, "SELECT version()")
	if err != nil {
		return ""
	}
	if v, ok := rs.Value(); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetObjects is not provided; use GetTableSchema and GetTableTypes, or
// query duckdb_tables() directly.
func (c *connection) GetObjects(ctx context.Context, depth adbc.ObjectDepth, catalog, dbSchema, tableName, columnName *string, tableType []string) (array.RecordReader, error) {
	return nil, adbc.Error{
		Code: adbc.StatusNotImplemented,
		Msg:  "GetObjects is not implemented; use GetTableSchema or query duckdb_tables()",
	}
}

// GetTableSchema introspects one table into an Arrow schema.
func (c *connection) GetTableSchema(ctx context.Context, catalog, dbSchema *string, tableName string) (*arrow.Schema, error) {
	if c.cl == nil {
		return nil, adbc.Error{Code: adbc.StatusInvalidState, Msg: "connection is closed"}
	}
	db := c.cl.Database()
	if catalog != nil {
		db = *catalog
	}
	schemaName := ""
	if dbSchema != nil {
		schemaName = *dbSchema
	}

	intr := schema.NewIntrospector(c.cl, db)
	cols, err := intr.Columns(ctx, schemaName, tableName)
	if err != nil {
		return nil, toAdbcError(err)
	}
	if len(cols) == 0 {
		return nil, adbc.Error{
			Code: adbc.StatusNotFound,
			Msg:  fmt.Sprintf("table %q has no columns or does not exist", tableName),
		}
	}

	fields := make([]arrow.Field, len(cols))
	plain := make([]core.Column, len(cols))
	for i, ci := range cols {
		plain[i] = core.Column{Name: ci.Name, DatabaseType: ci.DatabaseType, Kind: ci.Kind}
	}
	base := arrowio.SchemaFromColumns(plain)
	for i := range fields {
		fields[i] = base.Field(i)
		fields[i].Nullable = cols[i].Nullable
	}
	return arrow.NewSchema(fields, nil), nil
}

var tableTypesSchema = arrow.NewSchema([]arrow.Field{
	{Name: "table_type", Type: arrow.BinaryTypes.String},
}, nil)

// GetTableTypes lists the table types the catalog functions distinguish.
func (c *connection) GetTableTypes(ctx context.Context) (array.RecordReader, error) {
	bldr := array.NewRecordBuilder(c.mem, tableTypesSchema)
	defer bldr.Release()
	tb := bldr.Field(0).(*array.StringBuilder)
	tb.Append("BASE TABLE")
	tb.Append("VIEW")
	rec := bldr.NewRecord()
	return arrowio.NewSingleRecordReader(rec), nil
}

// ReadPartition is not supported: results never split into partitions.
func (c *connection) ReadPartition(ctx context.Context, serializedPartition []byte) (array.RecordReader, error) {
	return nil, adbc.Error{
		Code: adbc.StatusNotImplemented,
		Msg:  "partitioned results are not supported",
	}
}
