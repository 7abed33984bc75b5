package client

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/oraichain/duckdb-http/pkg/core"
)

// defaultTimeout bounds each HTTP request when the caller sets none.
const defaultTimeout = 30 * time.Second

// Options holds the client configuration assembled from Option values.
type Options struct {
	apiKey        string
	apiKeyInQuery bool
	apiKeyParam   string

	basicUser string
	basicPass string
	useBasic  bool

	bearerToken string

	oauthTokenURL     string
	oauthClientID     string
	oauthClientSecret string
	oauthScopes       []string

	database  string
	timeout   time.Duration
	transport http.RoundTripper
	logger    *zap.Logger
	statsHook func(core.QueryStats)
}

// Option configures a Client.
type Option func(*Options)

// WithAPIKey authenticates with the X-API-Key header.
func WithAPIKey(key string) Option {
	return func(o *Options) {
		o.apiKey = key
		o.apiKeyInQuery = false
	}
}

// WithAPIKeyInQuery authenticates by appending the key as a URL query
// parameter instead of a header. An empty param selects "api_key".
func WithAPIKeyInQuery(key, param string) Option {
	return func(o *Options) {
		o.apiKey = key
		o.apiKeyInQuery = true
		o.apiKeyParam = param
	}
}

// WithBasicAuth authenticates with HTTP basic credentials.
func WithBasicAuth(user, password string) Option {
	return func(o *Options) {
		o.basicUser = user
		o.basicPass = password
		o.useBasic = true
	}
}

// WithBearerToken authenticates with a static bearer token.
func WithBearerToken(token string) Option {
	return func(o *Options) {
		o.bearerToken = token
	}
}

// WithClientCredentials authenticates with OAuth2 client credentials,
// fetching and refreshing tokens from tokenURL as needed.
func WithClientCredentials(tokenURL, clientID, clientSecret string, scopes ...string) Option {
	return func(o *Options) {
		o.oauthTokenURL = tokenURL
		o.oauthClientID = clientID
		o.oauthClientSecret = clientSecret
		o.oauthScopes = scopes
	}
}

// WithDatabase records the target database, used to scope introspection.
func WithDatabase(name string) Option {
	return func(o *Options) {
		o.database = name
	}
}

// WithTimeout bounds each HTTP request/response cycle.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithTransport replaces the underlying HTTP transport. Auth wrappers are
// applied on top of it.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *Options) {
		o.transport = rt
	}
}

// WithLogger attaches a structured logger; without it the client is
// silent.
func WithLogger(log *zap.Logger) Option {
	return func(o *Options) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithStatsHook registers a callback invoked with the QueryStats of every
// request/response cycle, including failed ones. The hook must be fast;
// it runs on the request path.
func WithStatsHook(hook func(core.QueryStats)) Option {
	return func(o *Options) {
		o.statsHook = hook
	}
}
