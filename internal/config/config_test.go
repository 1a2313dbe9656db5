package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDev, cfg.AppEnv)
	assert.Equal(t, "scorewatch", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, zapcore.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 15*time.Second, cfg.PollFastInterval)
	assert.Equal(t, 60*time.Second, cfg.PollSlowInterval)
	assert.Equal(t, 120*time.Second, cfg.SnapshotCoalesce)
	assert.Equal(t, 4, cfg.ScoreDeferralRetries)
	assert.Equal(t, "./data/events.json", cfg.SnapshotPath)
	assert.Equal(t, "./data/settings.json", cfg.SettingsPath)
	assert.Equal(t, "./data/logos", cfg.LogoDir)
	assert.True(t, cfg.ESPNCircuitEnabled)
	assert.False(t, cfg.WebhookEnabled)
	assert.False(t, cfg.PprofEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("APP_HTTP_ADDR", ":9090")
	t.Setenv("APP_LOG_LEVEL", "debug")
	t.Setenv("APP_DATA_DIR", "/var/lib/scorewatch")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("POLL_FAST_INTERVAL", "5s")
	t.Setenv("POLL_SLOW_INTERVAL", "30s")
	t.Setenv("ESPN_MAX_RETRIES", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvProd, cfg.AppEnv)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, zapcore.DebugLevel, cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "/var/lib/scorewatch/events.json", cfg.SnapshotPath)
	assert.Equal(t, "/var/lib/scorewatch/logos", cfg.LogoDir)
	assert.Equal(t, 5*time.Second, cfg.PollFastInterval)
	assert.Equal(t, 30*time.Second, cfg.PollSlowInterval)
	assert.Equal(t, 3, cfg.ESPNMaxRetries)
}

func TestLoadInvalidAppEnv(t *testing.T) {
	t.Setenv("APP_ENV", "sandbox")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid APP_ENV")
}

func TestLoadSlowIntervalBelowFast(t *testing.T) {
	t.Setenv("POLL_FAST_INTERVAL", "30s")
	t.Setenv("POLL_SLOW_INTERVAL", "10s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POLL_SLOW_INTERVAL")
}

func TestLoadWebhookRequiresURL(t *testing.T) {
	t.Setenv("WEBHOOK_ENABLED", "true")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEBHOOK_URL is required")
}

func TestLoadUptraceRequiresDSN(t *testing.T) {
	t.Setenv("UPTRACE_ENABLED", "true")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UPTRACE_DSN is required")
}

func TestLoadPyroscopeRequiresAddress(t *testing.T) {
	t.Setenv("PYROSCOPE_ENABLED", "true")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PYROSCOPE_SERVER_ADDRESS is required")
}

func TestLoadBadCircuitFailureCount(t *testing.T) {
	t.Setenv("ESPN_CIRCUIT_FAILURE_COUNT", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ESPN_CIRCUIT_FAILURE_COUNT must be >= 1")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLogLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLogLevel("nonsense"))
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitCSV("a, ,b,"))
	assert.Empty(t, splitCSV(" , "))
}
