package sqlargs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInterpolate covers placeholder substitution across the literal
// types the adapter accepts.
func TestInterpolate(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)

	tests := []struct {
		name  string
		query string
		args  []any
		want  string
	}{
		{
			name:  "no placeholders",
			query: "SELECT 1",
			args:  nil,
			want:  "SELECT 1",
		},
		{
			name:  "mixed scalar types",
			query: "SELECT * FROM t WHERE a = ? AND b = ? AND c = ?",
			args:  []any{int64(7), "x", true},
			want:  "SELECT * FROM t WHERE a = 7 AND b = 'x' AND c = TRUE",
		},
		{
			name:  "null and float",
			query: "INSERT INTO t VALUES (?, ?)",
			args:  []any{nil, 2.5},
			want:  "INSERT INTO t VALUES (NULL, 2.5)",
		},
		{
			name:  "string quoting doubles embedded quotes",
			query: "SELECT ?",
			args:  []any{"it's"},
			want:  "SELECT 'it''s'",
		},
		{
			name:  "timestamp literal",
			query: "SELECT ?",
			args:  []any{ts},
			want:  "SELECT TIMESTAMP '2024-03-01 12:30:45'",
		},
		{
			name:  "midnight renders as date",
			query: "SELECT ?",
			args:  []any{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
			want:  "SELECT DATE '2024-03-01'",
		},
		{
			name:  "question mark inside string literal is data",
			query: "SELECT '?' , ?",
			args:  []any{int64(1)},
			want:  "SELECT '?' , 1",
		},
		{
			name:  "question mark inside comments is ignored",
			query: "SELECT ? -- what?\n/* really? */",
			args:  []any{int64(2)},
			want:  "SELECT 2 -- what?\n/* really? */",
		},
		{
			name:  "quoted identifier is untouched",
			query: `SELECT "a?b" FROM t WHERE x = ?`,
			args:  []any{int64(3)},
			want:  `SELECT "a?b" FROM t WHERE x = 3`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Interpolate(tt.query, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestInterpolateArgumentMismatch verifies count checking in both
// directions.
func TestInterpolateArgumentMismatch(t *testing.T) {
	_, err := Interpolate("SELECT ? + ?", []any{int64(1)})
	assert.Error(t, err)

	_, err = Interpolate("SELECT ?", []any{int64(1), int64(2)})
	assert.Error(t, err)

	_, err = Interpolate("SELECT ?", nil)
	assert.Error(t, err)
}

// TestLiteralBlob checks the escaped-blob rendering byte for byte.
func TestLiteralBlob(t *testing.T) {
	got, err := Literal([]byte{0x00, 0xAB, 0x41})
	require.NoError(t, err)
	assert.Equal(t, `'\x00\xAB\x41'::BLOB`, got)
}

// TestLiteralUnsupported rejects values with no literal spelling.
func TestLiteralUnsupported(t *testing.T) {
	_, err := Literal(struct{}{})
	assert.Error(t, err)

	_, err = Literal(map[string]int{"a": 1})
	assert.Error(t, err)
}
