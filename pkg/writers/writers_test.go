package writers

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oraichain/duckdb-http/pkg/arrowio"
	"github.com/oraichain/duckdb-http/pkg/core"
)

func sampleRecord() arrow.Record {
	rs := &core.ResultSet{
		Columns: []core.Column{
			{Name: "id", DatabaseType: "BIGINT", Kind: core.KindInt},
			{Name: "name", DatabaseType: "VARCHAR", Kind: core.KindString},
			{Name: "score", DatabaseType: "DOUBLE", Kind: core.KindFloat},
		},
		Rows: [][]any{
			{int64(1), "ada", 9.5},
			{int64(2), "grace", 8.25},
		},
	}
	return arrowio.RecordFromResultSet(nil, rs)
}

func writeSample(t *testing.T, typ, path string) {
	t.Helper()
	w, err := DefaultFactory.Create(core.WriterConfig{Type: typ, Path: path})
	require.NoError(t, err)

	rec := sampleRecord()
	defer rec.Release()
	require.NoError(t, w.Write(context.Background(), rec))
	require.NoError(t, w.Close())
}

// TestFactoryUnknownType rejects writer types nothing registered.
func TestFactoryUnknownType(t *testing.T) {
	_, err := DefaultFactory.Create(core.WriterConfig{Type: "xml", Path: "out.xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported writer type")
}

// TestFactoryRequiresPath applies to every built-in writer.
func TestFactoryRequiresPath(t *testing.T) {
	for _, typ := range DefaultFactory.Types() {
		_, err := DefaultFactory.Create(core.WriterConfig{Type: typ})
		assert.Error(t, err, "type %s", typ)
	}
}

// TestJSONWriter produces one array of row objects across multiple
// Write calls.
func TestJSONWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	w, err := DefaultFactory.Create(core.WriterConfig{Type: "json", Path: path})
	require.NoError(t, err)
	rec := sampleRecord()
	defer rec.Release()
	require.NoError(t, w.Write(context.Background(), rec))
	require.NoError(t, w.Write(context.Background(), rec))
	require.NoError(t, w.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(raw, &rows))
	require.Len(t, rows, 4)
	assert.Equal(t, "ada", rows[0]["name"])
	assert.Equal(t, float64(1), rows[0]["id"])
	assert.Equal(t, 8.25, rows[1]["score"])
}

// TestNDJSONWriter produces one parsable object per line.
func TestNDJSONWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")
	writeSample(t, "ndjson", path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		var row map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &row))
		assert.Len(t, row, 3)
	}
}

// TestCSVWriter produces a headered CSV.
func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	writeSample(t, "csv", path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,name,score", lines[0])
	assert.Contains(t, lines[1], "ada")
	assert.Contains(t, lines[2], "grace")
}

// TestParquetWriter produces a file with the Parquet magic at both ends.
func TestParquetWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parquet")
	writeSample(t, "parquet", path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(raw), 8)
	assert.Equal(t, "PAR1", string(raw[:4]))
	assert.Equal(t, "PAR1", string(raw[len(raw)-4:]))
}

// TestArrowWriterRoundTrip reads the IPC file back and checks the rows
// survived.
func TestArrowWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.arrow")
	writeSample(t, "arrow", path)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	reader, err := ipc.NewFileReader(file)
	require.NoError(t, err)
	defer reader.Close()

	require.Equal(t, 1, reader.NumRecords())
	rec, err := reader.Record(0)
	require.NoError(t, err)
	require.EqualValues(t, 2, rec.NumRows())

	names := rec.Column(1).(*array.String)
	assert.Equal(t, "ada", names.Value(0))
	assert.Equal(t, "grace", names.Value(1))
}
