package mockserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/oraichain/duckdb-http/pkg/core"
)

// Shape selects the wire form query results are encoded in. Real
// extension builds differ in how they answer; serving every shape lets
// the decoder's whole ladder be exercised against one server.
type Shape string

const (
	// ShapeCanonical is {"columns": [...], "types": [...], "rows": N,
	// "data": [[...], ...]}.
	ShapeCanonical Shape = "canonical"

	// ShapeMeta is {"meta": [{"name": ..., "type": ...}], "data": [...]}.
	ShapeMeta Shape = "meta"

	// ShapeObject is a single row as one JSON object. Results with more
	// than one row fall back to canonical.
	ShapeObject Shape = "object"

	// ShapeNDJSON is one JSON object per line.
	ShapeNDJSON Shape = "ndjson"

	// ShapeArrays is a bare JSON array of row arrays.
	ShapeArrays Shape = "arrays"
)

// ParseShape validates a shape name. Empty selects canonical.
func ParseShape(s string) (Shape, error) {
	switch shape := Shape(strings.ToLower(strings.TrimSpace(s))); shape {
	case "":
		return ShapeCanonical, nil
	case ShapeCanonical, ShapeMeta, ShapeObject, ShapeNDJSON, ShapeArrays:
		return shape, nil
	default:
		return "", fmt.Errorf("unknown response shape %q", s)
	}
}

type canonicalResponse struct {
	Columns []string `json:"columns"`
	Types   []string `json:"types"`
	Rows    int      `json:"rows"`
	Data    [][]any  `json:"data"`
}

type metaColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type metaResponse struct {
	Meta []metaColumn `json:"meta"`
	Data [][]any      `json:"data"`
	Rows int          `json:"rows"`
}

// encodeResult renders a result in the given shape, returning the body
// and its content type.
func encodeResult(shape Shape, rs *core.ResultSet) ([]byte, string, error) {
	switch shape {
	case ShapeMeta:
		meta := make([]metaColumn, len(rs.Columns))
		for i, col := range rs.Columns {
			meta[i] = metaColumn{Name: col.Name, Type: col.DatabaseType}
		}
		body, err := json.Marshal(metaResponse{Meta: meta, Data: dataRows(rs), Rows: rs.RowCount()})
		return body, fiber.MIMEApplicationJSON, err

	case ShapeObject:
		if rs.RowCount() != 1 {
			return encodeResult(ShapeCanonical, rs)
		}
		body, err := encodeObjectRow(rs.Columns, rs.Rows[0])
		return body, fiber.MIMEApplicationJSON, err

	case ShapeNDJSON:
		var buf bytes.Buffer
		for _, row := range rs.Rows {
			line, err := encodeObjectRow(rs.Columns, row)
			if err != nil {
				return nil, "", err
			}
			buf.Write(line)
			buf.WriteByte('\n')
		}
		return buf.Bytes(), "application/x-ndjson", nil

	case ShapeArrays:
		body, err := json.Marshal(dataRows(rs))
		return body, fiber.MIMEApplicationJSON, err

	default:
		names := make([]string, len(rs.Columns))
		types := make([]string, len(rs.Columns))
		for i, col := range rs.Columns {
			names[i] = col.Name
			types[i] = col.DatabaseType
		}
		body, err := json.Marshal(canonicalResponse{
			Columns: names,
			Types:   types,
			Rows:    rs.RowCount(),
			Data:    dataRows(rs),
		})
		return body, fiber.MIMEApplicationJSON, err
	}
}

// encodeObjectRow marshals one row as an object whose keys keep column
// order; encoding/json would sort a map's keys.
func encodeObjectRow(cols []core.Column, row []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range cols {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var v any
		if i < len(row) {
			v = row[i]
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// dataRows never returns nil: an empty result must encode as [], not
// null.
func dataRows(rs *core.ResultSet) [][]any {
	rows := make([][]any, 0, len(rs.Rows))
	rows = append(rows, rs.Rows...)
	return rows
}
