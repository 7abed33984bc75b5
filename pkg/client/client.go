// Package client implements the HTTP transport handle of the adapter: one
// POST per statement against a DuckDB HTTP extension endpoint, with the
// credential attached by a RoundTripper wrapper.
//
// A Client holds no per-statement state, so a single Client may be shared
// across goroutines; the result sets it returns are single-consumer.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oraichain/duckdb-http/pkg/core"
	"github.com/oraichain/duckdb-http/pkg/protocol"
	"github.com/oraichain/duckdb-http/version"
)

// Client is a transport handle to one DuckDB HTTP extension endpoint.
type Client struct {
	endpoint string
	queryURL string
	pingURL  string
	database string

	hc        *http.Client
	log       *zap.Logger
	statsHook func(core.QueryStats)
}

// New builds a Client for an http:// or https:// endpoint. The endpoint
// may carry a path prefix; the query and ping paths are appended to it.
func New(endpoint string, opts ...Option) (*Client, error) {
	o := &Options{timeout: defaultTimeout, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("client: invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("client: endpoint %q must use http or https", endpoint)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("client: endpoint %q has no host", endpoint)
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""

	return &Client{
		endpoint: strings.TrimSuffix(u.String(), "/"),
		queryURL: u.JoinPath(protocol.QueryPath).String(),
		pingURL:  u.JoinPath(protocol.PingPath).String(),
		database: o.database,
		hc: &http.Client{
			Timeout:   o.timeout,
			Transport: buildTransport(o),
		},
		log:       o.logger,
		statsHook: o.statsHook,
	}, nil
}

// Endpoint returns the normalized base URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Database returns the target database name, if one was configured.
func (c *Client) Database() string { return c.database }

// Ping probes reachability and credential acceptance without issuing a
// SQL statement. A network failure or an authentication rejection yields
// a ConnectionError; any other HTTP status counts as reachable, since
// older server builds lack the ping route.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pingURL, nil)
	if err != nil {
		return core.NewConnectionError(c.endpoint, err)
	}
	req.Header.Set(protocol.HeaderRequestID, uuid.NewString())
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.hc.Do(req)
	if err != nil {
		return core.NewConnectionError(c.endpoint, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return core.NewConnectionError(c.endpoint, fmt.Errorf("authentication rejected (HTTP %d)", resp.StatusCode))
	}

	c.log.Debug("ping ok", zap.String("endpoint", c.endpoint), zap.Int("status", resp.StatusCode))
	return nil
}

// Query executes one SQL statement and decodes the response into a
// ResultSet. Transport failures yield ConnectionError; non-success
// statuses and undecodable bodies yield QueryError with no partial rows.
func (c *Client) Query(ctx context.Context, sql string) (*core.ResultSet, error) {
	stats := core.QueryStats{SQL: core.TruncateSQL(sql), StartedAt: time.Now()}

	rs, err := c.query(ctx, sql, &stats)

	stats.Duration = time.Since(stats.StartedAt)
	stats.Failed = err != nil
	if rs != nil {
		stats.Rows = rs.RowCount()
	}
	if c.statsHook != nil {
		c.statsHook(stats)
	}

	if err != nil {
		c.log.Debug("query failed",
			zap.String("sql", stats.SQL),
			zap.Int("status", stats.StatusCode),
			zap.Duration("duration", stats.Duration),
			zap.Error(err))
		return nil, err
	}

	c.log.Debug("query ok",
		zap.String("sql", stats.SQL),
		zap.Int("rows", stats.Rows),
		zap.Duration("duration", stats.Duration))
	return rs, nil
}

func (c *Client) query(ctx context.Context, sql string, stats *core.QueryStats) (*core.ResultSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queryURL, strings.NewReader(sql))
	if err != nil {
		return nil, core.NewConnectionError(c.endpoint, err)
	}
	req.Header.Set("Content-Type", protocol.ContentTypeSQL)
	req.Header.Set(protocol.HeaderRequestID, uuid.NewString())
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, core.NewConnectionError(c.endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.NewConnectionError(c.endpoint, err)
	}
	stats.StatusCode = resp.StatusCode
	stats.BytesIn = int64(len(body))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, core.NewConnectionError(c.endpoint, fmt.Errorf("authentication rejected (HTTP %d)", resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, core.NewQueryError(sql, resp.StatusCode, protocol.ServerMessage(body), nil)
	}

	rs, err := protocol.DecodeResult(body)
	if err != nil {
		return nil, core.NewQueryError(sql, 0, "", err)
	}
	return rs, nil
}

// Exec executes a statement whose result the caller does not want, and
// reports affected rows on a best-effort basis: servers that answer with
// a single numeric cell (DuckDB's Count column) have that surfaced,
// everything else reports zero.
func (c *Client) Exec(ctx context.Context, sql string) (int64, error) {
	rs, err := c.Query(ctx, sql)
	if err != nil {
		return 0, err
	}
	if v, ok := rs.Value(); ok {
		switch n := v.(type) {
		case int64:
			return n, nil
		case float64:
			return int64(n), nil
		}
	}
	return 0, nil
}

// Close releases idle transport connections. It is idempotent and the
// Client remains technically usable afterwards, matching the stateless
// protocol.
func (c *Client) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}
