// Package arrowio bridges the adapter's plain result sets and Apache
// Arrow: building records from decoded JSON rows, and flattening records
// back into rows. It backs the ADBC driver and the file export writers.
package arrowio

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/oraichain/duckdb-http/pkg/core"
)

// timestampLayouts are tried in order when a timestamp arrives as text.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// SchemaFromColumns maps result columns onto an Arrow schema. All fields
// are nullable: the wire format cannot prove otherwise.
func SchemaFromColumns(cols []core.Column) *arrow.Schema {
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = arrow.Field{
			Name:     c.Name,
			Type:     kindToArrowType(c.Kind),
			Nullable: true,
		}
	}
	return arrow.NewSchema(fields, nil)
}

func kindToArrowType(kind core.TypeKind) arrow.DataType {
	switch kind {
	case core.KindInt:
		return arrow.PrimitiveTypes.Int64
	case core.KindFloat:
		return arrow.PrimitiveTypes.Float64
	case core.KindBool:
		return arrow.FixedWidthTypes.Boolean
	case core.KindDate:
		return arrow.FixedWidthTypes.Date32
	case core.KindTimestamp:
		return arrow.FixedWidthTypes.Timestamp_us
	case core.KindBytes:
		return arrow.BinaryTypes.Binary
	default:
		return arrow.BinaryTypes.String
	}
}

// RecordFromResultSet builds one Arrow record holding every row of rs.
// JSON's loose scalar typing is tolerated: integral floats fill integer
// columns, numeric strings fill numeric columns, and cells that cannot be
// coerced become NULLs. The caller owns the returned record.
func RecordFromResultSet(mem memory.Allocator, rs *core.ResultSet) arrow.Record {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	schema := SchemaFromColumns(rs.Columns)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for _, row := range rs.Rows {
		for i, col := range rs.Columns {
			var v any
			if i < len(row) {
				v = row[i]
			}
			appendValue(b.Field(i), col.Kind, v)
		}
	}
	return b.NewRecord()
}

// appendValue coerces one cell into the builder for its column kind.
func appendValue(fb array.Builder, kind core.TypeKind, v any) {
	if v == nil {
		fb.AppendNull()
		return
	}

	switch kind {
	case core.KindInt:
		b := fb.(*array.Int64Builder)
		if n, ok := toInt64(v); ok {
			b.Append(n)
		} else {
			b.AppendNull()
		}
	case core.KindFloat:
		b := fb.(*array.Float64Builder)
		if f, ok := toFloat64(v); ok {
			b.Append(f)
		} else {
			b.AppendNull()
		}
	case core.KindBool:
		b := fb.(*array.BooleanBuilder)
		if x, ok := v.(bool); ok {
			b.Append(x)
		} else {
			b.AppendNull()
		}
	case core.KindDate:
		b := fb.(*array.Date32Builder)
		if t, ok := toTime(v); ok {
			b.Append(arrow.Date32FromTime(t))
		} else {
			b.AppendNull()
		}
	case core.KindTimestamp:
		b := fb.(*array.TimestampBuilder)
		if t, ok := toTime(v); ok {
			ts, err := arrow.TimestampFromTime(t, arrow.Microsecond)
			if err != nil {
				b.AppendNull()
			} else {
				b.Append(ts)
			}
		} else {
			b.AppendNull()
		}
	case core.KindBytes:
		b := fb.(*array.BinaryBuilder)
		switch x := v.(type) {
		case []byte:
			b.Append(x)
		case string:
			b.Append([]byte(x))
		default:
			b.AppendNull()
		}
	default:
		fb.(*array.StringBuilder).Append(stringify(v))
	}
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case float64:
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toTime(v any) (time.Time, bool) {
	if t, ok := v.(time.Time); ok {
		return t, true
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// RowsFromRecord flattens an Arrow record into JSON-friendly rows:
// integers as int64, floats as float64, temporals as their DuckDB text
// form, unsupported array types as NULL.
func RowsFromRecord(rec arrow.Record) [][]any {
	numRows := int(rec.NumRows())
	numCols := int(rec.NumCols())

	rows := make([][]any, numRows)
	for i := 0; i < numRows; i++ {
		row := make([]any, numCols)
		for j := 0; j < numCols; j++ {
			row[j] = cellValue(rec.Column(j), i)
		}
		rows[i] = row
	}
	return rows
}

func cellValue(col arrow.Array, i int) any {
	if col.IsNull(i) {
		return nil
	}

	switch arr := col.(type) {
	case *array.Int8:
		return int64(arr.Value(i))
	case *array.Int16:
		return int64(arr.Value(i))
	case *array.Int32:
		return int64(arr.Value(i))
	case *array.Int64:
		return arr.Value(i)
	case *array.Uint8:
		return int64(arr.Value(i))
	case *array.Uint16:
		return int64(arr.Value(i))
	case *array.Uint32:
		return int64(arr.Value(i))
	case *array.Uint64:
		return int64(arr.Value(i))
	case *array.Float32:
		return float64(arr.Value(i))
	case *array.Float64:
		return arr.Value(i)
	case *array.Boolean:
		return arr.Value(i)
	case *array.String:
		return arr.Value(i)
	case *array.LargeString:
		return arr.Value(i)
	case *array.Binary:
		return string(arr.Value(i))
	case *array.Date32:
		return arr.Value(i).ToTime().Format("2006-01-02")
	case *array.Date64:
		return arr.Value(i).ToTime().Format("2006-01-02")
	case *array.Timestamp:
		unit := arr.DataType().(*arrow.TimestampType).Unit
		return arr.Value(i).ToTime(unit).Format("2006-01-02 15:04:05.999999")
	default:
		return nil
	}
}

// ColumnsFromSchema reverses SchemaFromColumns for fixture tables loaded
// from Arrow-typed files.
func ColumnsFromSchema(schema *arrow.Schema) []core.Column {
	cols := make([]core.Column, schema.NumFields())
	for i, f := range schema.Fields() {
		cols[i] = core.Column{
			Name:         f.Name,
			DatabaseType: declaredTypeFor(f.Type),
			Kind:         kindOfArrowType(f.Type),
		}
	}
	return cols
}

func kindOfArrowType(dt arrow.DataType) core.TypeKind {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return core.KindInt
	case arrow.FLOAT32, arrow.FLOAT64:
		return core.KindFloat
	case arrow.BOOL:
		return core.KindBool
	case arrow.DATE32, arrow.DATE64:
		return core.KindDate
	case arrow.TIMESTAMP:
		return core.KindTimestamp
	case arrow.BINARY, arrow.LARGE_BINARY:
		return core.KindBytes
	default:
		return core.KindString
	}
}

func declaredTypeFor(dt arrow.DataType) string {
	switch kindOfArrowType(dt) {
	case core.KindInt:
		return "BIGINT"
	case core.KindFloat:
		return "DOUBLE"
	case core.KindBool:
		return "BOOLEAN"
	case core.KindDate:
		return "DATE"
	case core.KindTimestamp:
		return "TIMESTAMP"
	case core.KindBytes:
		return "BLOB"
	default:
		return "VARCHAR"
	}
}
