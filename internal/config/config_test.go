package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, "ledger_path: trades.csv\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "trades.csv", cfg.LedgerPath)
	assert.Equal(t, DefaultEpsilon, cfg.Epsilon)
	assert.Equal(t, DefaultPnLTolerance, cfg.PnLTolerance)
	assert.Equal(t, DefaultMinSampleSize, cfg.MinSampleSize)
	assert.Equal(t, float64(DefaultConfidenceNormalizer), cfg.ConfidenceNormalizer)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
ledger_path: trades.csv
epsilon: 0.05
min_sample_size: 10
output_dir: reports
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.05, cfg.Epsilon)
	assert.Equal(t, 10, cfg.MinSampleSize)
	assert.Equal(t, "reports", cfg.OutputDir)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative epsilon", "epsilon: -0.01\n"},
		{"zero pnl tolerance", "pnl_tolerance: 0\n"},
		{"zero min sample", "min_sample_size: 0\n"},
		{"cap below base", "confidence_base: 0.5\nconfidence_cap: 0.4\n"},
		{"negative cache ttl", "cache_ttl_seconds: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("TRADE_AUDIT_POSTGRES_DSN", "postgres://env-host/audit")

	path := writeConfigFile(t, "postgres_dsn: postgres://file-host/audit\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env-host/audit", cfg.PostgresDSN)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, validate(Default()))
}
