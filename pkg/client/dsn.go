package client

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ParseDSN splits a connection string of the form
//
//	scheme://:secret@host:port[/database][?options]
//
// into a plain HTTP endpoint and client options. Accepted schemes are
// duckhttp, duckdb+http, http and https. The secret rides in the password
// position or in the api_key query parameter; recognized options are
// api_key, timeout (Go duration or whole seconds) and tls (force https).
// Unknown query parameters are ignored.
func ParseDSN(dsn string) (string, []Option, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", nil, fmt.Errorf("client: invalid connection string: %w", err)
	}

	secure := false
	switch u.Scheme {
	case "duckhttp", "duckdb+http", "http":
	case "https":
		secure = true
	default:
		return "", nil, fmt.Errorf("client: unsupported scheme %q in connection string", u.Scheme)
	}
	if u.Host == "" {
		return "", nil, fmt.Errorf("client: connection string has no host")
	}

	var opts []Option

	if u.User != nil {
		if pw, ok := u.User.Password(); ok && pw != "" {
			opts = append(opts, WithAPIKey(pw))
		} else if name := u.User.Username(); name != "" {
			// Tolerate the secret in the username position.
			opts = append(opts, WithAPIKey(name))
		}
	}

	q := u.Query()
	if key := q.Get("api_key"); key != "" {
		opts = append(opts, WithAPIKey(key))
	}
	if raw := q.Get("timeout"); raw != "" {
		d, err := parseTimeout(raw)
		if err != nil {
			return "", nil, fmt.Errorf("client: invalid timeout %q: %w", raw, err)
		}
		opts = append(opts, WithTimeout(d))
	}
	if raw := q.Get("tls"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return "", nil, fmt.Errorf("client: invalid tls value %q: %w", raw, err)
		}
		secure = v
	}

	if db := strings.Trim(u.Path, "/"); db != "" {
		opts = append(opts, WithDatabase(db))
	}

	scheme := "http"
	if secure {
		scheme = "https"
	}
	return scheme + "://" + u.Host, opts, nil
}

// Open is the one-call form of ParseDSN plus New. Options given here are
// applied after those derived from the connection string, so callers can
// override them.
func Open(dsn string, extra ...Option) (*Client, error) {
	endpoint, opts, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	return New(endpoint, append(opts, extra...)...)
}

// BuildDSN is the inverse of ParseDSN: it folds separate connection
// settings back into a single string that ParseDSN round-trips. The
// endpoint may itself be a connection string; its own settings are kept
// unless overridden here.
func BuildDSN(endpoint, apiKey, database string, timeout time.Duration) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("client: invalid endpoint: %w", err)
	}
	switch u.Scheme {
	case "duckhttp", "duckdb+http", "http", "https":
	case "":
		return "", fmt.Errorf("client: endpoint %q has no scheme", endpoint)
	default:
		return "", fmt.Errorf("client: unsupported scheme %q in endpoint", u.Scheme)
	}

	q := u.Query()
	if apiKey != "" {
		u.User = nil
		q.Set("api_key", apiKey)
	}
	if timeout > 0 {
		q.Set("timeout", timeout.String())
	}
	if database != "" {
		u.Path = "/" + database
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// parseTimeout accepts a Go duration ("5s", "1m") or whole seconds ("30").
func parseTimeout(raw string) (time.Duration, error) {
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}
