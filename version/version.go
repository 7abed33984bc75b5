// Package version carries build metadata shared by the CLI, the client
// and the mock endpoint.
package version

// Overridable at build time:
//
//	go build -ldflags "-X github.com/oraichain/duckdb-http/version.Version=v1.2.0"
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

func GetVersion() string {
	return Version
}

func GetBuildDate() string {
	return BuildDate
}

// UserAgent identifies outbound HTTP requests from this module.
func UserAgent() string {
	return "duckdb-http/" + Version
}
