package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 2*time.Minute, cfg.Scan.CheckTimeout)
	assert.Equal(t, time.Second, cfg.Scan.PatternTimeout)
	assert.Equal(t, 2, cfg.Scan.Workers)
	assert.Equal(t, 16, cfg.Scan.QueueSize)
	assert.Equal(t, "6000", cfg.Web.APIPort)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("SECSCAN_SCAN_WORKERS", "4")
	t.Setenv("SECSCAN_KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("SECSCAN_SCAN_CHECK_TIMEOUT", "30s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.Scan.CheckTimeout)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secaudit.yaml")
	content := `
store:
  driver: postgres
  dsn: postgres://u:p@localhost:5432/db
auth:
  tokens:
    - token: s3cret
      identity: ops
      admin: true
tools:
  - name: npm-audit
    command: /usr/local/bin/npm
    args: ["audit", "--json"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	require.Len(t, cfg.Auth.Tokens, 1)
	assert.Equal(t, "ops", cfg.Auth.Tokens[0].Identity)
	assert.True(t, cfg.Auth.Tokens[0].Admin)
	require.Len(t, cfg.Tools, 1)
	assert.Equal(t, []string{"audit", "--json"}, cfg.Tools[0].Args)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "mongo" }, wantErr: true},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Store.Driver = "postgres" }, wantErr: true},
		{name: "no workers", mutate: func(c *Config) { c.Scan.Workers = 0 }, wantErr: true},
		{name: "kafka without brokers", mutate: func(c *Config) {
			c.Kafka.Enabled = true
			c.Kafka.Brokers = nil
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Store: StoreConfig{Driver: "memory"},
				Scan:  ScanConfig{Workers: 1, QueueSize: 1, CheckTimeout: time.Second, PatternTimeout: time.Second},
			}
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
