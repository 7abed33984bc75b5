package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "duckhttp.yaml")
	body := `endpoint:
  url: http://localhost:9999
  api_key: secret
  database: analytics
  timeout: 5s
log:
  level: debug
output:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999", cfg.Endpoint.URL)
	assert.Equal(t, "secret", cfg.Endpoint.APIKey)
	assert.Equal(t, "analytics", cfg.Endpoint.Database)
	assert.Equal(t, 5*time.Second, cfg.Endpoint.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "duckhttp.yaml")
	body := `endpoint:
  url: http://localhost:9999
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Endpoint.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "table", cfg.Output.Format)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := &Config{
		Endpoint: EndpointConfig{
			URL:     "duckhttp://:secret@localhost:9999/analytics",
			Timeout: 30 * time.Second,
		},
		Log:    LogConfig{Level: "info"},
		Output: OutputConfig{Format: "table"},
	}
	assert.NoError(t, valid.Validate())

	missing := &Config{}
	err := missing.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint url is required")
}

func TestValidateEndpointConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     EndpointConfig
		wantErr bool
	}{
		{"http url", EndpointConfig{URL: "http://localhost:9999"}, false},
		{"https url", EndpointConfig{URL: "https://duckdb.example.com"}, false},
		{"duckhttp dsn", EndpointConfig{URL: "duckhttp://:key@localhost:9999/analytics"}, false},
		{"legacy scheme", EndpointConfig{URL: "duckdb+http://:key@localhost:9999"}, false},
		{"empty url", EndpointConfig{}, true},
		{"bad scheme", EndpointConfig{URL: "ftp://localhost:9999"}, true},
		{"negative timeout", EndpointConfig{URL: "http://localhost:9999", Timeout: -time.Second}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateLogConfig(t *testing.T) {
	assert.NoError(t, (&LogConfig{}).Validate())
	assert.NoError(t, (&LogConfig{Level: "warn"}).Validate())
	assert.Error(t, (&LogConfig{Level: "loud"}).Validate())
}

func TestValidateOutputConfig(t *testing.T) {
	for _, format := range []string{"", "table", "json", "ndjson", "csv", "parquet", "arrow"} {
		assert.NoError(t, (&OutputConfig{Format: format}).Validate(), format)
	}
	assert.Error(t, (&OutputConfig{Format: "xml"}).Validate())
}
