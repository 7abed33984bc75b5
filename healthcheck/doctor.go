// Package healthcheck diagnoses a DuckDB HTTP endpoint: reachability,
// statement execution, catalog access and server clock, gathered into a
// single health report.
package healthcheck

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/oraichain/duckdb-http/metrics"
	"github.com/oraichain/duckdb-http/pkg/client"
	"github.com/oraichain/duckdb-http/pkg/schema"
)

// Doctor runs a fixed battery of checks against one endpoint.
type Doctor struct {
	// Client is the transport handle under diagnosis.
	Client *client.Client

	// Logger for structured logging.
	Logger *zap.Logger
}

// NewDoctor constructs a Doctor for the given handle.
func NewDoctor(cl *client.Client, logger *zap.Logger) *Doctor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Doctor{Client: cl, Logger: logger}
}

type check struct {
	name string
	fn   func(context.Context) (string, error)
}

// Diagnose runs all checks concurrently and returns a HealthReport. A
// failing check is part of the report, not an error; the error return
// only reflects context cancellation.
func (d *Doctor) Diagnose(ctx context.Context) (metrics.HealthReport, error) {
	startTime := time.Now()
	d.Logger.Info("Starting diagnosis", zap.String("endpoint", d.Client.Endpoint()))

	checks := []check{
		{"ping", d.checkPing},
		{"scalar query", d.checkScalarQuery},
		{"server version", d.checkVersion},
		{"server clock", d.checkClock},
		{"catalog", d.checkCatalog},
	}

	// Each check writes its own slot, so the report order is stable.
	results := make([]metrics.CheckResult, len(checks))
	var wg sync.WaitGroup
	wg.Add(len(checks))
	for i, c := range checks {
		go func(i int, c check) {
			defer wg.Done()
			results[i] = d.run(ctx, c)
		}(i, c)
	}
	wg.Wait()

	healthy := true
	serverVersion := ""
	for _, res := range results {
		if !res.Passed {
			healthy = false
		}
		if res.Name == "server version" && res.Passed {
			serverVersion = res.Detail
		}
	}

	endTime := time.Now()
	report := metrics.HealthReport{
		Metadata: metrics.EndpointMetadata{
			Endpoint:      d.Client.Endpoint(),
			Database:      d.Client.Database(),
			ServerVersion: serverVersion,
			StartTime:     startTime,
			EndTime:       endTime,
			Duration:      endTime.Sub(startTime),
		},
		Checks:  results,
		Healthy: healthy,
	}

	d.Logger.Info("Diagnosis complete",
		zap.Bool("healthy", healthy),
		zap.Duration("duration", report.Metadata.Duration))

	return report, ctx.Err()
}

func (d *Doctor) run(ctx context.Context, c check) metrics.CheckResult {
	start := time.Now()
	detail, err := c.fn(ctx)

	result := metrics.CheckResult{
		Name:     c.name,
		Passed:   err == nil,
		Duration: time.Since(start),
		Detail:   detail,
	}
	if err != nil {
		result.Error = err.Error()
		d.Logger.Warn("Check failed", zap.String("check", c.name), zap.Error(err))
		return result
	}
	d.Logger.Info("Check passed", zap.String("check", c.name), zap.String("detail", detail))
	return result
}

// checkPing verifies the endpoint answers without running a statement.
func (d *Doctor) checkPing(ctx context.Context) (string, error) {
	if err := d.Client.Ping(ctx); err != nil {
		return "", err
	}
	return "endpoint reachable", nil
}

// checkScalarQuery runs the canonical smoke statement and verifies the
// value makes it back intact.
func (d *Doctor) checkScalarQuery(ctx context.Context) (string, error) {
	rs, err := d.Client.Query(ctx, "SELECT 1")
	if err != nil {
		return "", err
	}
	v, ok := rs.Value()
	if !ok {
		return "", fmt.Errorf("expected one row with one column, got %d rows", rs.RowCount())
	}
	switch n := v.(type) {
	case int64:
		if n == 1 {
			return "SELECT 1 returned 1", nil
		}
	case float64:
		if n == 1 {
			return "SELECT 1 returned 1", nil
		}
	}
	return "", fmt.Errorf("SELECT 1 returned %v", v)
}

// checkVersion asks the server for its build version.
func (d *Doctor) checkVersion(ctx context.Context) (string, error) {
	rs, err := d.Client.Query(ctx, "SELECT version()")
	if err != nil {
		return "", err
	}
	if v, ok := rs.Value(); ok {
		if s, ok := v.(string); ok && s != "" {
			return s, nil
		}
	}
	return "", fmt.Errorf("version() returned no value")
}

// checkClock reads the server clock; a readable now() means temporal
// types decode.
func (d *Doctor) checkClock(ctx context.Context) (string, error) {
	rs, err := d.Client.Query(ctx, "SELECT now()")
	if err != nil {
		return "", err
	}
	v, ok := rs.Value()
	if !ok {
		return "", fmt.Errorf("now() returned no value")
	}
	return fmt.Sprintf("server clock %v", v), nil
}

// checkCatalog lists schemas through the same introspection path the
// adapter uses.
func (d *Doctor) checkCatalog(ctx context.Context) (string, error) {
	intr := schema.NewIntrospector(d.Client, d.Client.Database())
	schemas, err := intr.Schemas(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d schemas visible", len(schemas)), nil
}
