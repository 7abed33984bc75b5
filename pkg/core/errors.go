package core

import (
	"errors"
	"fmt"
)

// ConnectionError reports that the endpoint could not be reached or that it
// rejected the credential. It is raised at connect time and by transport
// failures during a request; it is never raised for a server-side query
// failure.
type ConnectionError struct {
	// Endpoint is the base URL the adapter was talking to.
	Endpoint string

	// Err is the underlying transport or authentication failure.
	Err error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("duckdb-http: cannot connect to %s", e.Endpoint)
	}
	return fmt.Sprintf("duckdb-http: cannot connect to %s: %v", e.Endpoint, e.Err)
}

// Unwrap returns the underlying failure.
func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError reports a failed statement: a non-success HTTP status, an
// error-carrying response body, or a body the adapter could not decode.
// No partial rows accompany a QueryError.
type QueryError struct {
	// SQL is the statement that failed, truncated for readability.
	SQL string

	// StatusCode is the HTTP status of the response, or 0 when the body
	// was malformed on a success status.
	StatusCode int

	// Message is the server-reported error message, when the body carried
	// one.
	Message string

	// Err is the underlying decode failure, if any.
	Err error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.StatusCode != 0 && msg != "":
		return fmt.Sprintf("duckdb-http: query failed (HTTP %d): %s", e.StatusCode, msg)
	case e.StatusCode != 0:
		return fmt.Sprintf("duckdb-http: query failed (HTTP %d)", e.StatusCode)
	case msg != "":
		return fmt.Sprintf("duckdb-http: query failed: %s", msg)
	default:
		return "duckdb-http: query failed"
	}
}

// Unwrap returns the underlying decode failure.
func (e *QueryError) Unwrap() error { return e.Err }

// NewConnectionError wraps err as a ConnectionError against endpoint.
func NewConnectionError(endpoint string, err error) *ConnectionError {
	return &ConnectionError{Endpoint: endpoint, Err: err}
}

// NewQueryError builds a QueryError for the given statement.
func NewQueryError(sql string, status int, message string, err error) *QueryError {
	return &QueryError{SQL: TruncateSQL(sql), StatusCode: status, Message: message, Err: err}
}

// IsConnectionError reports whether err is, or wraps, a ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsQueryError reports whether err is, or wraps, a QueryError.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}

// maxSQLInError bounds how much statement text errors and logs carry.
const maxSQLInError = 120

// TruncateSQL shortens a statement for inclusion in errors and logs.
func TruncateSQL(sql string) string {
	if len(sql) <= maxSQLInError {
		return sql
	}
	return sql[:maxSQLInError] + "..."
}
