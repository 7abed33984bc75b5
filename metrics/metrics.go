package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/oraichain/duckdb-http/pkg/core"
)

// -----------------------------
// Domain Types & Metadata
// -----------------------------

// EndpointMetadata captures high-level context for a session against one
// endpoint.
type EndpointMetadata struct {
	Endpoint      string        `json:"endpoint"`
	Database      string        `json:"database,omitempty"`
	ServerVersion string        `json:"server_version,omitempty"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	Duration      time.Duration `json:"duration"`
}

// -----------------------------
// Health Check Types
// -----------------------------

// CheckResult holds the outcome of one doctor check.
type CheckResult struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Duration time.Duration `json:"duration"`
	Detail   string        `json:"detail,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// HealthReport aggregates doctor check results.
type HealthReport struct {
	Metadata EndpointMetadata `json:"metadata"`
	Checks   []CheckResult    `json:"checks"`
	Healthy  bool             `json:"healthy"`
}

// FailedChecks returns the names of the checks that did not pass.
func (r HealthReport) FailedChecks() []string {
	failed := []string{}
	for _, c := range r.Checks {
		if !c.Passed {
			failed = append(failed, c.Name)
		}
	}
	return failed
}

// -----------------------------
// Query Statistics
// -----------------------------

// SessionStats aggregates per-statement statistics across a session.
type SessionStats struct {
	Queries      int64         `json:"queries"`
	Failures     int64         `json:"failures"`
	Rows         int64         `json:"rows"`
	BytesIn      int64         `json:"bytes_in"`
	TotalLatency time.Duration `json:"total_latency"`
	MinLatency   time.Duration `json:"min_latency"`
	MaxLatency   time.Duration `json:"max_latency"`
}

// MeanLatency is the average statement latency, zero when no statements
// ran.
func (s SessionStats) MeanLatency() time.Duration {
	if s.Queries == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.Queries)
}

// SessionReport is the persisted form of a session's statistics.
type SessionReport struct {
	Metadata EndpointMetadata `json:"metadata"`
	Stats    SessionStats     `json:"stats"`
}

// Collector accumulates statement statistics. Its Record method matches
// the client's stats hook, so a Collector can observe a live handle:
//
//	col := metrics.NewCollector()
//	cl, _ := client.New(endpoint, client.WithStatsHook(col.Record))
//
// Collectors are safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	stats SessionStats
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Record folds one statement's statistics into the session totals.
func (c *Collector) Record(qs core.QueryStats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Queries++
	if qs.Failed {
		c.stats.Failures++
	}
	c.stats.Rows += int64(qs.Rows)
	c.stats.BytesIn += qs.BytesIn
	c.stats.TotalLatency += qs.Duration
	if c.stats.MinLatency == 0 || qs.Duration < c.stats.MinLatency {
		c.stats.MinLatency = qs.Duration
	}
	if qs.Duration > c.stats.MaxLatency {
		c.stats.MaxLatency = qs.Duration
	}
}

// Snapshot returns a copy of the accumulated statistics.
func (c *Collector) Snapshot() SessionStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// -----------------------------
// Stats Storage
// -----------------------------

// StatsStore abstracts session report storage.
type StatsStore interface {
	Save(report SessionReport) error
	SaveWithContext(ctx context.Context, report SessionReport) error
}

// JSONStatsStore stores session reports as JSON, to a file or to stdout
// when no path is set.
type JSONStatsStore struct {
	FilePath string
}

func (j *JSONStatsStore) Save(report SessionReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if j.FilePath != "" {
		return os.WriteFile(j.FilePath, data, 0644)
	}
	fmt.Println(string(data))
	return nil
}

func (j *JSONStatsStore) SaveWithContext(ctx context.Context, report SessionReport) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return j.Save(report)
	}
}
