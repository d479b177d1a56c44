package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	portfolio "github.com/venturetk/VenturePortfolio"
	"go.uber.org/zap/zapcore"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// noEnvFile points Load to a .env file that does not exist.
func noEnvFile(t *testing.T) string { return filepath.Join(t.TempDir(), ".env") }

func TestLoadDefaults(t *testing.T) {
	c, err := Load("", noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "portfolio.jsonl", c.Portfolio)
	assert.Equal(t, StoreJSONL, c.Store)
	assert.Equal(t, "USD", c.Quote)
	assert.Equal(t, zapcore.WarnLevel, c.LogLevel)
	assert.Equal(t, portfolio.OpenPrice, c.WithdrawBasis)
	assert.Equal(t, portfolio.TransferIgnore, c.InternalTransfers)
	assert.Equal(t, 5*time.Minute, c.Quotes.TTL)
	assert.Len(t, c.Options(), 2)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"), noEnvFile(t))
	assert.NoError(t, err)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "vpm.yaml", `
portfolio: data/book.db
store: sqlite
name: family
quote: eur
log_level: debug
withdraw_basis: average
internal_transfers: move
quotes:
  file: quotes.json
  path: $.last["{asset}"]
  ttl: 90s
metrics_file: metrics.prom
`)
	c, err := Load(path, noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "data/book.db", c.Portfolio)
	assert.Equal(t, StoreSQLite, c.Store)
	assert.Equal(t, "family", c.Name)
	assert.Equal(t, "EUR", c.Quote)
	assert.Equal(t, zapcore.DebugLevel, c.LogLevel)
	assert.Equal(t, portfolio.AverageCost, c.WithdrawBasis)
	assert.Equal(t, portfolio.TransferMove, c.InternalTransfers)
	assert.Equal(t, Quotes{File: "quotes.json", Path: `$.last["{asset}"]`, TTL: 90 * time.Second}, c.Quotes)
	assert.Equal(t, "metrics.prom", c.MetricsFile)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "vpm.yaml", "store: sqlite\nquote: EUR\n")
	t.Setenv(EnvStore, "jsonl")
	t.Setenv(EnvQuotesTTL, "1h")

	c, err := Load(path, noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, StoreJSONL, c.Store)
	assert.Equal(t, "EUR", c.Quote)
	assert.Equal(t, time.Hour, c.Quotes.TTL)
}

func TestLoadDotEnv(t *testing.T) {
	env := writeFile(t, ".env", "VP_NAME=from-dotenv\nVP_LOG_LEVEL=error\n")
	t.Cleanup(func() {
		os.Unsetenv(EnvName)
		os.Unsetenv(EnvLogLevel)
	})

	c, err := Load("", env)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", c.Name)
	assert.Equal(t, zapcore.ErrorLevel, c.LogLevel)
}

func TestLoadValidation(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"store", "store: postgres"},
		{"quote", "quote: NOPE"},
		{"log level", "log_level: chatty"},
		{"withdraw basis", "withdraw_basis: fifo"},
		{"internal transfers", "internal_transfers: teleport"},
		{"ttl", "quotes:\n  ttl: -1s"},
		{"empty portfolio", "portfolio: ' '"},
		{"bad yaml", "store: [sqlite"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "vpm.yaml", tc.yaml), noEnvFile(t))
			assert.Error(t, err)
		})
	}
}

func TestLoadReportsEveryInvalidParam(t *testing.T) {
	_, err := Load(writeFile(t, "vpm.yaml", "store: postgres\nwithdraw_basis: fifo\n"), noEnvFile(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'store'")
	assert.Contains(t, err.Error(), "'withdraw_basis'")
}

func TestLogger(t *testing.T) {
	c, err := Load("", noEnvFile(t))
	require.NoError(t, err)
	logger, err := c.Logger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}
