// Package protocol owns the wire contract with the DuckDB HTTP extension
// server: request conventions and the decoding of its loosely specified
// response bodies into result sets.
//
// The server accepts one statement per request, POSTed as raw SQL text,
// and answers with JSON whose shape varies by server build and statement
// kind. DecodeResult normalizes every known shape into a core.ResultSet.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Request conventions of the extension server.
const (
	// HeaderAPIKey carries the access secret.
	HeaderAPIKey = "X-API-Key"

	// HeaderRequestID correlates client logs with server logs.
	HeaderRequestID = "X-Request-Id"

	// ContentTypeSQL is the content type of the POSTed statement body.
	ContentTypeSQL = "text/plain"

	// QueryPath is the statement endpoint, relative to the base URL.
	QueryPath = "/"

	// PingPath is the reachability probe, relative to the base URL.
	PingPath = "/ping"
)

// maxErrorExcerpt bounds how much of a non-JSON error body is surfaced.
const maxErrorExcerpt = 200

// ServerMessage extracts the human-readable error message from an error
// response body. JSON bodies are searched for the conventional message
// keys; anything else is returned as a bounded excerpt.
func ServerMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err == nil {
		for _, key := range []string{"error", "message", "detail"} {
			if v, ok := obj[key]; ok {
				if s, ok := v.(string); ok && s != "" {
					return s
				}
			}
		}
	}

	s := string(trimmed)
	if len(s) > maxErrorExcerpt {
		s = truncateUTF8(s, maxErrorExcerpt) + "..."
	}
	return s
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// SynthesizeColumnName names the i-th column of a response that carries
// no column metadata.
func SynthesizeColumnName(i int) string {
	return fmt.Sprintf("col%d", i)
}
