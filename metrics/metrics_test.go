package metrics

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/oraichain/duckdb-http/pkg/core"
)

// TestSessionReportSerialization ensures that SessionReport survives a
// JSON round trip.
func TestSessionReportSerialization(t *testing.T) {
	original := SessionReport{
		Metadata: EndpointMetadata{
			Endpoint:      "http://localhost:9999",
			Database:      "analytics",
			ServerVersion: "v1.2.1",
			StartTime:     time.Now(),
			EndTime:       time.Now().Add(10 * time.Second),
			Duration:      10 * time.Second,
		},
		Stats: SessionStats{
			Queries:      12,
			Failures:     1,
			Rows:         4096,
			BytesIn:      1 << 20,
			TotalLatency: 600 * time.Millisecond,
			MinLatency:   10 * time.Millisecond,
			MaxLatency:   200 * time.Millisecond,
		},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Failed to serialize SessionReport: %v", err)
	}

	var loaded SessionReport
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Failed to deserialize SessionReport: %v", err)
	}

	if loaded.Stats.Queries != original.Stats.Queries {
		t.Errorf("Expected Queries %d, got %d", original.Stats.Queries, loaded.Stats.Queries)
	}
	if loaded.Metadata.Endpoint != original.Metadata.Endpoint {
		t.Errorf("Expected Endpoint %s, got %s", original.Metadata.Endpoint, loaded.Metadata.Endpoint)
	}
}

// TestJSONStatsStore ensures that reports are correctly written to and
// read from a file.
func TestJSONStatsStore(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "stats.json")

	store := &JSONStatsStore{FilePath: testFile}
	report := SessionReport{
		Metadata: EndpointMetadata{Endpoint: "http://localhost:9999"},
		Stats:    SessionStats{Queries: 3, Rows: 42},
	}

	if err := store.Save(report); err != nil {
		t.Fatalf("Failed to save session report: %v", err)
	}

	data, err := os.ReadFile(testFile)
	if err != nil {
		t.Fatalf("Failed to read back session report: %v", err)
	}

	var loaded SessionReport
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Failed to deserialize saved report: %v", err)
	}

	if loaded.Stats.Rows != report.Stats.Rows {
		t.Errorf("Expected %d rows, got %d", report.Stats.Rows, loaded.Stats.Rows)
	}
}

// TestSaveWithContext ensures that context cancellation is respected
// when saving a report.
func TestSaveWithContext(t *testing.T) {
	store := &JSONStatsStore{FilePath: filepath.Join(t.TempDir(), "stats.json")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.SaveWithContext(ctx, SessionReport{}); err == nil {
		t.Fatalf("Expected context cancellation error, got nil")
	}
}

// TestCollector folds statement stats into session totals.
func TestCollector(t *testing.T) {
	col := NewCollector()
	col.Record(core.QueryStats{Duration: 20 * time.Millisecond, Rows: 10, BytesIn: 100})
	col.Record(core.QueryStats{Duration: 5 * time.Millisecond, Rows: 1, BytesIn: 10, Failed: true})
	col.Record(core.QueryStats{Duration: 50 * time.Millisecond, Rows: 4, BytesIn: 40})

	stats := col.Snapshot()
	if stats.Queries != 3 {
		t.Errorf("Expected 3 queries, got %d", stats.Queries)
	}
	if stats.Failures != 1 {
		t.Errorf("Expected 1 failure, got %d", stats.Failures)
	}
	if stats.Rows != 15 {
		t.Errorf("Expected 15 rows, got %d", stats.Rows)
	}
	if stats.BytesIn != 150 {
		t.Errorf("Expected 150 bytes, got %d", stats.BytesIn)
	}
	if stats.MinLatency != 5*time.Millisecond {
		t.Errorf("Expected min latency 5ms, got %v", stats.MinLatency)
	}
	if stats.MaxLatency != 50*time.Millisecond {
		t.Errorf("Expected max latency 50ms, got %v", stats.MaxLatency)
	}
	if stats.MeanLatency() != 25*time.Millisecond {
		t.Errorf("Expected mean latency 25ms, got %v", stats.MeanLatency())
	}
}

// TestCollectorConcurrent hammers one collector from many goroutines.
func TestCollectorConcurrent(t *testing.T) {
	col := NewCollector()

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				col.Record(core.QueryStats{Duration: time.Millisecond, Rows: 1})
			}
		}()
	}
	wg.Wait()

	stats := col.Snapshot()
	if stats.Queries != 1000 {
		t.Errorf("Expected 1000 queries, got %d", stats.Queries)
	}
	if stats.Rows != 1000 {
		t.Errorf("Expected 1000 rows, got %d", stats.Rows)
	}
}

// TestHealthReportFailedChecks lists only the failing checks.
func TestHealthReportFailedChecks(t *testing.T) {
	report := HealthReport{
		Checks: []CheckResult{
			{Name: "ping", Passed: true},
			{Name: "query", Passed: false},
			{Name: "catalog", Passed: false},
		},
	}

	failed := report.FailedChecks()
	if len(failed) != 2 {
		t.Fatalf("Expected 2 failed checks, got %d", len(failed))
	}
	if failed[0] != "query" || failed[1] != "catalog" {
		t.Errorf("Unexpected failed checks: %v", failed)
	}
}
