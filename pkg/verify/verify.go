// Package verify compares two datasets row by row, keyed by one or more
// columns. Its main use is checking that a table served by an endpoint
// still matches the fixture file it was loaded from, so it works on the
// decoded Go values the wire protocol produces rather than on raw Arrow
// buffers.
package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oraichain/duckdb-http/pkg/arrowio"
	"github.com/oraichain/duckdb-http/pkg/core"
)

// Options controls how rows are matched and compared.
type Options struct {
	// KeyColumns identify a row across both datasets. When empty, every
	// column the datasets share becomes part of the key and the check
	// degrades to set equality.
	KeyColumns []string

	// IgnoreColumns are excluded from both matching and comparison.
	IgnoreColumns []string

	// Tolerance is the maximum absolute difference under which two
	// numeric values still count as equal. Zero means exact.
	Tolerance float64
}

// Report summarizes a comparison.
type Report struct {
	SourceRows int64 `json:"source_rows"`
	TargetRows int64 `json:"target_rows"`

	// Missing counts source rows with no matching target row.
	Missing int64 `json:"missing"`

	// Extra counts target rows no source row claimed.
	Extra int64 `json:"extra"`

	// Mismatched counts matched rows that differ in at least one
	// compared column.
	Mismatched int64 `json:"mismatched"`

	// MismatchedColumns breaks Mismatched down by column name.
	MismatchedColumns map[string]int64 `json:"mismatched_columns,omitempty"`

	KeyColumns      []string      `json:"key_columns"`
	ComparedColumns []string      `json:"compared_columns"`
	Duration        time.Duration `json:"duration"`
}

// Clean reports whether the datasets matched exactly.
func (r *Report) Clean() bool {
	return r.Missing == 0 && r.Extra == 0 && r.Mismatched == 0
}

// Verifier compares datasets produced by any core.DatasetReader pair,
// typically a file reader and an endpoint reader.
type Verifier struct {
	log *zap.Logger
}

// New creates a verifier. A nil logger disables logging.
func New(log *zap.Logger) *Verifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Verifier{log: log}
}

// dataset is a fully drained reader: column order plus decoded rows.
type dataset struct {
	columns []string
	pos     map[string]int
	rows    [][]any
}

func (d *dataset) has(name string) bool {
	_, ok := d.col(name)
	return ok
}

// col resolves a column name, tolerating case differences.
func (d *dataset) col(name string) (int, bool) {
	if i, ok := d.pos[name]; ok {
		return i, true
	}
	for col, i := range d.pos {
		if strings.EqualFold(col, name) {
			return i, true
		}
	}
	return 0, false
}

// positions resolves a list of column names to row indexes.
func (d *dataset) positions(names []string) ([]int, error) {
	out := make([]int, len(names))
	for i, name := range names {
		idx, ok := d.col(name)
		if !ok {
			return nil, fmt.Errorf("no column %q", name)
		}
		out[i] = idx
	}
	return out, nil
}

// Compare drains both readers and matches their rows. The source is the
// reference; rows only it has are missing, rows only the target has are
// extra. Neither reader is closed.
func (v *Verifier) Compare(ctx context.Context, source, target core.DatasetReader, opts Options) (*Report, error) {
	start := time.Now()

	var src, tgt *dataset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if src, err = drain(gctx, source); err != nil {
			return fmt.Errorf("failed to read source: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if tgt, err = drain(gctx, target); err != nil {
			return fmt.Errorf("failed to read target: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	keys := opts.KeyColumns
	if len(keys) == 0 {
		keys = sharedColumns(src, tgt, opts.IgnoreColumns)
		if len(keys) == 0 {
			return nil, errors.New("datasets share no columns to match on")
		}
	}
	srcKey, err := src.positions(keys)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	tgtKey, err := tgt.positions(keys)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}

	compared := make([]string, 0, len(src.columns))
	for _, name := range sharedColumns(src, tgt, opts.IgnoreColumns) {
		if !containsFold(keys, name) {
			compared = append(compared, name)
		}
	}
	srcCmp, _ := src.positions(compared)
	tgtCmp, _ := tgt.positions(compared)

	report := &Report{
		SourceRows:        int64(len(src.rows)),
		TargetRows:        int64(len(tgt.rows)),
		MismatchedColumns: make(map[string]int64),
		KeyColumns:        keys,
		ComparedColumns:   compared,
	}

	// Duplicate keys pair off one to one; whatever remains unclaimed on
	// the target side counts as extra.
	index := make(map[string][]int, len(tgt.rows))
	for i := range tgt.rows {
		k := rowKey(tgt.rows[i], tgtKey)
		index[k] = append(index[k], i)
	}

	remaining := int64(len(tgt.rows))
	for i := range src.rows {
		k := rowKey(src.rows[i], srcKey)
		candidates := index[k]
		if len(candidates) == 0 {
			report.Missing++
			continue
		}
		j := candidates[0]
		index[k] = candidates[1:]
		remaining--

		changed := false
		for c, col := range compared {
			a := src.rows[i][srcCmp[c]]
			b := tgt.rows[j][tgtCmp[c]]
			if !valuesEqual(a, b, opts.Tolerance) {
				report.MismatchedColumns[col]++
				changed = true
			}
		}
		if changed {
			report.Mismatched++
		}
	}
	report.Extra = remaining
	report.Duration = time.Since(start)

	v.log.Debug("verification finished",
		zap.Int64("source_rows", report.SourceRows),
		zap.Int64("target_rows", report.TargetRows),
		zap.Int64("missing", report.Missing),
		zap.Int64("extra", report.Extra),
		zap.Int64("mismatched", report.Mismatched),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// drain pulls every record from the reader and flattens it to Go values.
func drain(ctx context.Context, r core.DatasetReader) (*dataset, error) {
	var ds *dataset
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec, err := r.Read(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if ds == nil {
			ds = datasetFor(rec.Schema())
		}
		ds.rows = append(ds.rows, arrowio.RowsFromRecord(rec)...)
		rec.Release()
	}
	if ds == nil {
		// Empty reader. Some readers only learn their schema from the
		// first batch, so the column list may be empty too.
		if s := r.Schema(); s != nil {
			return datasetFor(s), nil
		}
		return &dataset{pos: map[string]int{}}, nil
	}
	return ds, nil
}

func datasetFor(schema *arrow.Schema) *dataset {
	ds := &dataset{
		columns: make([]string, schema.NumFields()),
		pos:     make(map[string]int, schema.NumFields()),
	}
	for i, f := range schema.Fields() {
		ds.columns[i] = f.Name
		ds.pos[f.Name] = i
	}
	return ds
}

func sharedColumns(src, tgt *dataset, ignore []string) []string {
	out := make([]string, 0, len(src.columns))
	for _, name := range src.columns {
		if containsFold(ignore, name) {
			continue
		}
		if tgt.has(name) {
			out = append(out, name)
		}
	}
	return out
}

// rowKey builds a composite lookup key from the given positions.
// Integral numbers format the same whether they arrived as int64 or
// float64 so cross-format comparisons still match.
func rowKey(row []any, positions []int) string {
	var b strings.Builder
	for i, p := range positions {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(keyPart(row[p]))
	}
	return b.String()
}

func keyPart(v any) string {
	if v == nil {
		return "\x00"
	}
	if f, ok := asFloat(v); ok {
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return strconv.FormatInt(int64(f), 10)
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}

// valuesEqual compares two decoded cell values. Numbers compare across
// int64 and float64 because JSON and columnar files disagree about which
// one a whole number is.
func valuesEqual(a, b any, tolerance float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	}
	if fa, ok := asFloat(a); ok {
		fb, ok := asFloat(b)
		if !ok {
			return false
		}
		if tolerance > 0 {
			return math.Abs(fa-fb) <= tolerance
		}
		return fa == fb
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	return 0, false
}

func containsFold(list []string, name string) bool {
	for _, item := range list {
		if strings.EqualFold(item, name) {
			return true
		}
	}
	return false
}
