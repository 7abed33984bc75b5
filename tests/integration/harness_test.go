// Package integration exercises the whole stack over real TCP: a mock
// endpoint on a random port, queried through the database/sql driver and
// the ADBC driver the way an application would.
package integration

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/oraichain/duckdb-http/mockserver"
)

const testAPIKey = "integration-secret"

// startEndpoint runs a mock endpoint on a random port and returns its URL
// plus a shutdown function. The API key defaults to testAPIKey.
func startEndpoint(t *testing.T, options mockserver.Options) (string, func()) {
	t.Helper()

	if options.APIKey == "" {
		options.APIKey = testAPIKey
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}

	server := mockserver.NewServer(options)
	go func() {
		_ = server.GetApp().Listener(ln)
	}()

	url := "http://" + ln.Addr().String()
	waitReachable(t, url+"/ping")

	return url, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}

// deadEndpoint reserves a port and immediately releases it, yielding an
// address nothing listens on.
func deadEndpoint(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	url := "http://" + ln.Addr().String()
	ln.Close()
	return url
}

func endpointDSN(url string) string {
	return url + "?api_key=" + testAPIKey
}

func waitReachable(t *testing.T, url string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("Endpoint at %s never became reachable", url)
}
