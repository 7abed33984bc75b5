// Package readers loads tabular data into Arrow records from columnar
// files (CSV, Parquet, Arrow IPC) or from a live endpoint through the
// duckhttp database/sql driver. The mock server uses it to register
// fixture tables; the CLI uses it to round-trip exported files.
package readers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/oraichain/duckdb-http/pkg/core"
)

// Creator is a function that creates a reader from a configuration.
type Creator func(config core.ReaderConfig) (core.DatasetReader, error)

// Factory creates a reader based on the given configuration.
type Factory struct {
	// registered readers by type
	readers map[string]Creator
}

// NewFactory creates a new reader factory.
func NewFactory() *Factory {
	return &Factory{
		readers: make(map[string]Creator),
	}
}

// Register registers a creator for a reader type.
func (f *Factory) Register(typ string, creator Creator) {
	f.readers[typ] = creator
}

// Create creates a reader based on the given configuration, inferring
// the type from the path extension when unset.
func (f *Factory) Create(config core.ReaderConfig) (core.DatasetReader, error) {
	typ := config.Type
	if typ == "" {
		typ = TypeFromPath(config.Path)
	}
	creator, ok := f.readers[typ]
	if !ok {
		return nil, fmt.Errorf("unsupported reader type: %s", typ)
	}
	return creator(config)
}

// Types returns the registered reader types.
func (f *Factory) Types() []string {
	types := make([]string, 0, len(f.readers))
	for typ := range f.readers {
		types = append(types, typ)
	}
	return types
}

// TypeFromPath infers a reader type from a file extension.
func TypeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	case ".parquet":
		return "parquet"
	case ".arrow", ".ipc", ".feather":
		return "arrow"
	default:
		return ""
	}
}

// DefaultFactory is the default reader factory with built-in reader types.
var DefaultFactory = NewFactory()

// init registers built-in reader types.
func init() {
	DefaultFactory.Register("csv", NewCSVReader)
	DefaultFactory.Register("parquet", NewParquetReader)
	DefaultFactory.Register("arrow", NewArrowReader)
	DefaultFactory.Register("endpoint", NewEndpointReader)
}
