package client

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/oraichain/duckdb-http/pkg/protocol"
)

// defaultAPIKeyParam is the query parameter used when the key travels in
// the URL instead of a header.
const defaultAPIKeyParam = "api_key"

// buildTransport stacks the configured auth wrapper onto the base
// transport.
func buildTransport(o *Options) http.RoundTripper {
	base := o.transport
	if base == nil {
		base = http.DefaultTransport
	}

	switch {
	case o.oauthTokenURL != "":
		cfg := &clientcredentials.Config{
			TokenURL:     o.oauthTokenURL,
			ClientID:     o.oauthClientID,
			ClientSecret: o.oauthClientSecret,
			Scopes:       o.oauthScopes,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Transport: base})
		return &oauthTransport{next: base, source: cfg.TokenSource(ctx)}
	case o.bearerToken != "":
		return &bearerTransport{next: base, token: o.bearerToken}
	case o.useBasic:
		return &basicAuthTransport{next: base, user: o.basicUser, password: o.basicPass}
	case o.apiKey != "" && o.apiKeyInQuery:
		param := o.apiKeyParam
		if param == "" {
			param = defaultAPIKeyParam
		}
		return &apiKeyQueryTransport{next: base, key: o.apiKey, param: param}
	case o.apiKey != "":
		return &apiKeyTransport{next: base, key: o.apiKey}
	default:
		return base
	}
}

// apiKeyTransport injects the secret as the X-API-Key header.
type apiKeyTransport struct {
	next http.RoundTripper
	key  string
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set(protocol.HeaderAPIKey, t.key)
	return t.next.RoundTrip(r)
}

// apiKeyQueryTransport injects the secret as a URL query parameter.
type apiKeyQueryTransport struct {
	next  http.RoundTripper
	key   string
	param string
}

func (t *apiKeyQueryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	q := r.URL.Query()
	q.Set(t.param, t.key)
	r.URL.RawQuery = q.Encode()
	return t.next.RoundTrip(r)
}

// basicAuthTransport injects HTTP basic credentials.
type basicAuthTransport struct {
	next     http.RoundTripper
	user     string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.SetBasicAuth(t.user, t.password)
	return t.next.RoundTrip(r)
}

// bearerTransport injects a static bearer token.
type bearerTransport struct {
	next  http.RoundTripper
	token string
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+t.token)
	return t.next.RoundTrip(r)
}

// oauthTransport injects client-credentials tokens; the token source
// caches and refreshes them.
type oauthTransport struct {
	next   http.RoundTripper
	source oauth2.TokenSource
}

func (t *oauthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := t.source.Token()
	if err != nil {
		return nil, err
	}
	r := req.Clone(req.Context())
	tok.SetAuthHeader(r)
	return t.next.RoundTrip(r)
}
