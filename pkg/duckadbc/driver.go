// Package duckadbc implements a native Go ADBC driver backed by the
// DuckDB HTTP extension protocol. It speaks the same one-POST-per-statement
// wire format as the client package and surfaces results as Arrow record
// batches:
//
//	db, err := duckadbc.NewDriver(nil).NewDatabase(map[string]string{
//		adbc.OptionKeyURI:     "duckhttp://:secret@localhost:9999",
//		duckadbc.OptionDatabase: "analytics",
//	})
//
// The protocol is stateless, so transactions and parameter binding are
// reported as unsupported rather than emulated.
package duckadbc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/oraichain/duckdb-http/pkg/client"
	"github.com/oraichain/duckdb-http/pkg/core"
)

// Driver option keys beyond the standard adbc.OptionKey* set.
const (
	// OptionAPIKey is the shared secret sent as X-API-Key.
	OptionAPIKey = "duckhttp.api_key"
	// OptionDatabase is the target database name.
	OptionDatabase = "duckhttp.database"
	// OptionTimeout bounds each HTTP request; a Go duration string or a
	// plain number of seconds.
	OptionTimeout = "duckhttp.timeout"
)

const driverName = "duckdb-http"

var (
	_ adbc.Driver   = (*Driver)(nil)
	_ adbc.Database = (*database)(nil)
)

// Driver builds databases for duckhttp endpoints.
type Driver struct {
	mem memory.Allocator
}

// NewDriver returns an ADBC driver. A nil allocator falls back to the
// Go allocator.
func NewDriver(mem memory.Allocator) *Driver {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &Driver{mem: mem}
}

// NewDatabase validates the option map and returns a database handle. No
// network traffic happens until Open.
func (d *Driver) NewDatabase(opts map[string]string) (adbc.Database, error) {
	db := &database{mem: d.mem, opts: make(map[string]string, len(opts))}
	if err := db.SetOptions(opts); err != nil {
		return nil, err
	}
	return db, nil
}

// NewDatabaseWithContext is NewDatabase; there is nothing to dial yet.
func (d *Driver) NewDatabaseWithContext(ctx context.Context, opts map[string]string) (adbc.Database, error) {
	return d.NewDatabase(opts)
}

type database struct {
	mem  memory.Allocator
	opts map[string]string
}

// SetOptions merges recognized options into the handle.
func (db *database) SetOptions(opts map[string]string) error {
	for k, v := range opts {
		switch k {
		case adbc.OptionKeyURI, OptionAPIKey, OptionDatabase, OptionTimeout,
			adbc.OptionKeyUsername, adbc.OptionKeyPassword:
			db.opts[k] = v
		default:
			if strings.HasPrefix(k, "duckhttp.") {
				return adbc.Error{
					Code: adbc.StatusNotImplemented,
					Msg:  fmt.Sprintf("unknown option %q", k),
				}
			}
			// Foreign-namespace options are tolerated so generic
			// managers can pass their defaults through.
			db.opts[k] = v
		}
	}
	return nil
}

// Open connects to the endpoint: it builds the HTTP handle and probes
// reachability and credentials without issuing a statement.
func (db *database) Open(ctx context.Context) (adbc.Connection, error) {
	uri := db.opts[adbc.OptionKeyURI]
	if uri == "" {
		return nil, adbc.Error{
			Code: adbc.StatusInvalidArgument,
			Msg:  "uri option is required",
		}
	}

	endpoint, opts, err := client.ParseDSN(uri)
	if err != nil {
		return nil, adbc.Error{
			Code: adbc.StatusInvalidArgument,
			Msg:  fmt.Sprintf("invalid uri: %s", err),
		}
	}

	// Explicit options win over anything embedded in the URI.
	if key := db.opts[OptionAPIKey]; key != "" {
		opts = append(opts, client.WithAPIKey(key))
	} else if pw := db.opts[adbc.OptionKeyPassword]; pw != "" {
		opts = append(opts, client.WithAPIKey(pw))
	}
	if name := db.opts[OptionDatabase]; name != "" {
		opts = append(opts, client.WithDatabase(name))
	}
	if raw := db.opts[OptionTimeout]; raw != "" {
		d, err := parseTimeout(raw)
		if err != nil {
			return nil, adbc.Error{
				Code: adbc.StatusInvalidArgument,
				Msg:  fmt.Sprintf("invalid timeout %q: %s", raw, err),
			}
		}
		opts = append(opts, client.WithTimeout(d))
	}

	cl, err := client.New(endpoint, opts...)
	if err != nil {
		return nil, adbc.Error{Code: adbc.StatusInvalidArgument, Msg: err.Error()}
	}
	if err := cl.Ping(ctx); err != nil {
		cl.Close()
		return nil, toAdbcError(err)
	}
	return &connection{mem: db.mem, cl: cl}, nil
}

// Close releases the handle; databases hold no resources of their own.
func (db *database) Close() error { return nil }

func parseTimeout(raw string) (time.Duration, error) {
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return 0, fmt.Errorf("want a duration or a number of seconds")
}

// toAdbcError maps the adapter's two error kinds onto ADBC status codes:
// transport and credential failures are IO, rejected statements are
// InvalidArgument, undecodable responses are Internal.
func toAdbcError(err error) error {
	if err == nil {
		return nil
	}
	var ce *core.ConnectionError
	if errors.As(err, &ce) {
		return adbc.Error{Code: adbc.StatusIO, Msg: ce.Error()}
	}
	var qe *core.QueryError
	if errors.As(err, &qe) {
		code := adbc.StatusInternal
		if qe.StatusCode >= 400 && qe.StatusCode < 500 {
			code = adbc.StatusInvalidArgument
		}
		return adbc.Error{Code: code, Msg: qe.Error()}
	}
	return adbc.Error{Code: adbc.StatusUnknown, Msg: err.Error()}
}
