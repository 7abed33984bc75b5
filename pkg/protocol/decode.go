package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/oraichain/duckdb-http/pkg/core"
)

// DecodeResult decodes one response body into a ResultSet. The extension
// server answers in several shapes depending on build and statement; the
// ladder below is tried in order, first match wins:
//
//  1. object with "columns" and "data" (optionally "types", "rows")
//  2. object with "meta" ([{name,type}, ...]) and "data"
//  3. any other single object: one row, keys become columns
//  4. newline-delimited objects (NDJSON): columns from the first line
//  5. array of arrays: column names synthesized col0..colN
//
// An empty body decodes to an empty result. Any body that matches none of
// the shapes is an error, and no partial rows are returned.
func DecodeResult(body []byte) (*core.ResultSet, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &core.ResultSet{}, nil
	}

	top, err := parseTopLevel(trimmed)
	if err == nil {
		return buildResult(top)
	}

	// A body that is not one JSON document may still be NDJSON.
	if rs, ndErr := decodeNDJSON(trimmed); ndErr == nil {
		return rs, nil
	}

	return nil, fmt.Errorf("protocol: malformed response body: %w", err)
}

// orderedObject is a JSON object that remembers key order, so that object
// shaped rows produce deterministically ordered columns.
type orderedObject struct {
	keys   []string
	values map[string]any
}

func (o *orderedObject) has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// parseTopLevel parses exactly one JSON document, preserving top-level
// object key order. Trailing content after the document is an error.
func parseTopLevel(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	v, err := parseNext(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing content after JSON document")
	}
	return v, nil
}

// parseNext parses the next JSON value from dec. Objects come back as
// *orderedObject, arrays as []any, scalars normalized.
func parseNext(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch d := tok.(type) {
	case json.Delim:
		switch d {
		case '{':
			return parseObject(dec)
		case '[':
			return parseArray(dec)
		default:
			return nil, fmt.Errorf("unexpected %q", d)
		}
	default:
		return normalizeToken(tok), nil
	}
}

func parseObject(dec *json.Decoder) (*orderedObject, error) {
	obj := &orderedObject{values: make(map[string]any)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string")
		}
		v, err := parseNext(dec)
		if err != nil {
			return nil, err
		}
		if !obj.has(key) {
			obj.keys = append(obj.keys, key)
		}
		obj.values[key] = v
	}
	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func parseArray(dec *json.Decoder) ([]any, error) {
	items := []any{}
	for dec.More() {
		v, err := parseNext(dec)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	// Consume the closing bracket.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return items, nil
}

// normalizeToken maps json.Number to int64 when exact, else float64.
func normalizeToken(tok json.Token) any {
	if n, ok := tok.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	}
	return tok
}

// buildResult dispatches a parsed document to the matching shape builder.
func buildResult(top any) (*core.ResultSet, error) {
	switch v := top.(type) {
	case *orderedObject:
		switch {
		case v.has("columns") && v.has("data"):
			return buildCanonical(v)
		case v.has("meta") && v.has("data"):
			return buildMeta(v)
		default:
			return buildSingleObject(v), nil
		}
	case []any:
		return buildArray(v)
	default:
		// A bare scalar still answers a statement.
		rs := &core.ResultSet{
			Columns: []core.Column{{Name: SynthesizeColumnName(0)}},
			Rows:    [][]any{{v}},
		}
		inferKinds(rs)
		return rs, nil
	}
}

// buildCanonical handles {"columns": [...], "types": [...], "data": [...]}.
func buildCanonical(obj *orderedObject) (*core.ResultSet, error) {
	names, err := stringSlice(obj.values["columns"])
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	columns := make([]core.Column, len(names))
	for i, name := range names {
		columns[i] = core.Column{Name: name}
	}
	if obj.has("types") {
		types, err := stringSlice(obj.values["types"])
		if err != nil {
			return nil, fmt.Errorf("types: %w", err)
		}
		for i := range columns {
			if i < len(types) {
				columns[i].DatabaseType = types[i]
				columns[i].Kind = core.KindOf(types[i])
			}
		}
	}

	rows, err := buildRows(obj.values["data"], columns)
	if err != nil {
		return nil, err
	}

	rs := &core.ResultSet{Columns: columns, Rows: rows}
	if !obj.has("types") {
		inferKinds(rs)
	}
	return rs, nil
}

// buildMeta handles {"meta": [{"name":..., "type":...}], "data": [...]}.
func buildMeta(obj *orderedObject) (*core.ResultSet, error) {
	metas, ok := obj.values["meta"].([]any)
	if !ok {
		return nil, fmt.Errorf("meta is not an array")
	}

	columns := make([]core.Column, 0, len(metas))
	for _, m := range metas {
		mo, ok := m.(*orderedObject)
		if !ok {
			return nil, fmt.Errorf("meta entry is not an object")
		}
		name, _ := mo.values["name"].(string)
		typ, _ := mo.values["type"].(string)
		if name == "" {
			name = SynthesizeColumnName(len(columns))
		}
		columns = append(columns, core.Column{
			Name:         name,
			DatabaseType: typ,
			Kind:         core.KindOf(typ),
		})
	}

	rows, err := buildRows(obj.values["data"], columns)
	if err != nil {
		return nil, err
	}
	return &core.ResultSet{Columns: columns, Rows: rows}, nil
}

// buildSingleObject treats a plain object as a one-row result.
func buildSingleObject(obj *orderedObject) *core.ResultSet {
	columns := make([]core.Column, len(obj.keys))
	row := make([]any, len(obj.keys))
	for i, key := range obj.keys {
		columns[i] = core.Column{Name: key}
		row[i] = flatten(obj.values[key])
	}
	rs := &core.ResultSet{Columns: columns, Rows: [][]any{row}}
	inferKinds(rs)
	return rs
}

// buildArray handles top-level arrays: rows as arrays, rows as objects, or
// a bare list of scalars.
func buildArray(items []any) (*core.ResultSet, error) {
	if len(items) == 0 {
		return &core.ResultSet{}, nil
	}

	switch first := items[0].(type) {
	case []any:
		columns := make([]core.Column, len(first))
		for i := range columns {
			columns[i] = core.Column{Name: SynthesizeColumnName(i)}
		}
		rows := make([][]any, 0, len(items))
		for _, item := range items {
			arr, ok := item.([]any)
			if !ok {
				return nil, fmt.Errorf("mixed row shapes in array response")
			}
			rows = append(rows, fitRow(arr, len(columns)))
		}
		rs := &core.ResultSet{Columns: columns, Rows: rows}
		inferKinds(rs)
		return rs, nil

	case *orderedObject:
		columns := make([]core.Column, len(first.keys))
		for i, key := range first.keys {
			columns[i] = core.Column{Name: key}
		}
		rows := make([][]any, 0, len(items))
		for _, item := range items {
			obj, ok := item.(*orderedObject)
			if !ok {
				return nil, fmt.Errorf("mixed row shapes in array response")
			}
			row := make([]any, len(columns))
			for i, col := range columns {
				row[i] = flatten(obj.values[col.Name])
			}
			rows = append(rows, row)
		}
		rs := &core.ResultSet{Columns: columns, Rows: rows}
		inferKinds(rs)
		return rs, nil

	default:
		rows := make([][]any, 0, len(items))
		for _, item := range items {
			rows = append(rows, []any{flatten(item)})
		}
		rs := &core.ResultSet{
			Columns: []core.Column{{Name: SynthesizeColumnName(0)}},
			Rows:    rows,
		}
		inferKinds(rs)
		return rs, nil
	}
}

// decodeNDJSON decodes newline-delimited JSON objects. Columns come from
// the first line; later lines may omit keys, which become NULLs.
func decodeNDJSON(body []byte) (*core.ResultSet, error) {
	var columns []core.Column
	var rows [][]any

	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		top, err := parseTopLevel([]byte(line))
		if err != nil {
			return nil, err
		}
		obj, ok := top.(*orderedObject)
		if !ok {
			return nil, fmt.Errorf("NDJSON line is not an object")
		}
		if columns == nil {
			columns = make([]core.Column, len(obj.keys))
			for i, key := range obj.keys {
				columns[i] = core.Column{Name: key}
			}
		}
		row := make([]any, len(columns))
		for i, col := range columns {
			row[i] = flatten(obj.values[col.Name])
		}
		rows = append(rows, row)
	}

	if columns == nil {
		return nil, fmt.Errorf("no NDJSON content")
	}
	rs := &core.ResultSet{Columns: columns, Rows: rows}
	inferKinds(rs)
	return rs, nil
}

// buildRows converts the "data" member into row slices sized to columns.
// Both positional rows (arrays) and keyed rows (objects) are accepted.
func buildRows(data any, columns []core.Column) ([][]any, error) {
	if data == nil {
		return [][]any{}, nil
	}
	items, ok := data.([]any)
	if !ok {
		return nil, fmt.Errorf("data is not an array")
	}

	rows := make([][]any, 0, len(items))
	for _, item := range items {
		switch row := item.(type) {
		case []any:
			rows = append(rows, fitRow(row, len(columns)))
		case *orderedObject:
			fitted := make([]any, len(columns))
			for i, col := range columns {
				fitted[i] = flatten(row.values[col.Name])
			}
			rows = append(rows, fitted)
		default:
			return nil, fmt.Errorf("data row is neither array nor object")
		}
	}
	return rows, nil
}

// fitRow pads or truncates a positional row to width, flattening nested
// values.
func fitRow(row []any, width int) []any {
	fitted := make([]any, width)
	for i := 0; i < width && i < len(row); i++ {
		fitted[i] = flatten(row[i])
	}
	return fitted
}

// flatten converts parse-internal containers back to plain Go values.
func flatten(v any) any {
	switch x := v.(type) {
	case *orderedObject:
		m := make(map[string]any, len(x.keys))
		for _, k := range x.keys {
			m[k] = flatten(x.values[k])
		}
		return m
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = flatten(e)
		}
		return out
	default:
		return v
	}
}

// inferKinds fills in column kinds from row values when the response
// carried no type metadata.
func inferKinds(rs *core.ResultSet) {
	for i := range rs.Columns {
		if rs.Columns[i].Kind != "" {
			continue
		}
		rs.Columns[i].Kind = core.KindString
		for _, row := range rs.Rows {
			if i >= len(row) || row[i] == nil {
				continue
			}
			switch row[i].(type) {
			case int64:
				rs.Columns[i].Kind = core.KindInt
			case float64:
				rs.Columns[i].Kind = core.KindFloat
			case bool:
				rs.Columns[i].Kind = core.KindBool
			}
			break
		}
	}
}

// stringSlice coerces a parsed JSON array into []string.
func stringSlice(v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("not an array")
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("element %d is not a string", i)
		}
		out[i] = s
	}
	return out, nil
}
