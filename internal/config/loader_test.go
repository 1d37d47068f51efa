package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadBasic(t *testing.T) {
	path := writeConfig(t, `
service:
  name: sigil
  log_level: DEBUG
listen: "127.0.0.1:9090"
storage:
  path: /tmp/sigil.db
endpoints:
  - path: /webhook/orders
    secret: orders-secret
    tolerance: 2m
    max_body_size: 1MB
    max_signatures: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sigil", cfg.Service.Name)
	assert.Equal(t, "DEBUG", cfg.Service.LogLevel)
	assert.Equal(t, "127.0.0.1:9090", cfg.Listen)
	assert.Equal(t, "/tmp/sigil.db", cfg.Storage.Path)

	require.Len(t, cfg.Endpoints, 1)
	ep := cfg.Endpoints[0]
	assert.Equal(t, "/webhook/orders", ep.Path)
	assert.Equal(t, 2*time.Minute, ep.Tolerance)
	assert.Equal(t, "1MB", ep.MaxBodySize)
	assert.Equal(t, 5, ep.MaxSignatures)

	secret, err := ep.ResolveSecret(cfg.Secrets)
	require.NoError(t, err)
	assert.Equal(t, "orders-secret", secret)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
endpoints:
  - path: /hook
    secret: s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.Service.LogLevel)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, DefaultTolerance, cfg.Endpoints[0].Tolerance)

	size, err := ParseSize(cfg.Endpoints[0].MaxBodySize)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultMaxBodySize), size)
}

func TestLoadSecretRef(t *testing.T) {
	path := writeConfig(t, `
secrets:
  orders: ref-secret
endpoints:
  - path: /hook
    secret: inline-ignored
    secret_ref: orders
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	secret, err := cfg.Endpoints[0].ResolveSecret(cfg.Secrets)
	require.NoError(t, err)
	assert.Equal(t, "ref-secret", secret, "secret_ref takes precedence over inline secret")
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("SIGIL_TEST_SECRET", "from-env")

	path := writeConfig(t, `
secrets:
  hook: ${SIGIL_TEST_SECRET}
endpoints:
  - path: /hook
    secret_ref: hook
  - path: /inline
    secret: ${SIGIL_TEST_SECRET}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Secrets["hook"])
	assert.Equal(t, "from-env", cfg.Endpoints[1].Secret)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "no endpoints",
			content: `listen: ":8080"`,
			wantMsg: "no endpoints",
		},
		{
			name: "missing secret",
			content: `
endpoints:
  - path: /hook
`,
			wantMsg: "no secret",
		},
		{
			name: "unknown secret_ref",
			content: `
endpoints:
  - path: /hook
    secret_ref: nope
`,
			wantMsg: "secret_ref",
		},
		{
			name: "path without slash",
			content: `
endpoints:
  - path: hook
    secret: s
`,
			wantMsg: "must start with /",
		},
		{
			name: "duplicate path",
			content: `
endpoints:
  - path: /hook
    secret: s
  - path: /hook
    secret: s
`,
			wantMsg: "duplicate",
		},
		{
			name: "bad size",
			content: `
endpoints:
  - path: /hook
    secret: s
    max_body_size: lots
`,
			wantMsg: "max_body_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", DefaultMaxBodySize, false},
		{"262144", 262144, false},
		{"256KB", 256 * 1024, false},
		{"1MB", 1024 * 1024, false},
		{"2gb", 2 * 1024 * 1024 * 1024, false},
		{"0", 0, true},
		{"-1KB", 0, true},
		{"lots", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChecksumRoundTrip(t *testing.T) {
	path := writeConfig(t, `
verify_checksum: true
endpoints:
  - path: /hook
    secret: s
`)

	// Unlocked config must not load.
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "integrity")

	require.NoError(t, WriteChecksum(path))
	_, err = Load(path)
	require.NoError(t, err)

	// Any edit invalidates the manifest until re-locked.
	require.NoError(t, os.WriteFile(path, []byte(`
verify_checksum: true
endpoints:
  - path: /hook
    secret: tampered
`), 0600))
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}
