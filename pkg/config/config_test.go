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
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "flowict", c.App.Name)
	assert.Equal(t, "dev", c.App.Env)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, 8080, c.HTTP.Port)
	assert.Equal(t, 15*time.Second, c.HTTP.ReadTimeout)
	assert.Equal(t, 5*time.Minute, c.Cache.TTL)
	assert.Equal(t, []string{"localhost:9092"}, c.Kafka.Brokers)
	assert.Equal(t, time.Hour, c.Scheduler.Interval)
	assert.Equal(t, []string{"XAUUSD"}, c.Scheduler.Symbols)
	assert.Equal(t, 30*time.Minute, c.Throttle.Cooldown)
	assert.InDelta(t, 2.0, c.Risk.RewardRisk, 1e-9)
	assert.Equal(t, []string{"1d", "4h"}, c.ICT.HTFTimeframes)
	assert.Equal(t, map[string]int{"1d": 30, "4h": 60}, c.ICT.HTFLevelLookbacks)
	assert.Equal(t, []float64{0.5, 0.618, 0.786}, c.ICT.PDRetracementLevels)

	assert.False(t, c.Kafka.Enabled)
	assert.False(t, c.Telegram.Enabled)
	assert.False(t, c.MarketData.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
app:
  env: prod
http:
  port: 9090
  read_timeout: 5s
scheduler:
  interval: 15m
  symbols: ["XAUUSD", "EURUSD"]
ict:
  swing_lookback_periods: 3
  key_level_proximity_pct: 1.5
`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", c.App.Env)
	assert.Equal(t, 9090, c.HTTP.Port)
	assert.Equal(t, 5*time.Second, c.HTTP.ReadTimeout)
	assert.Equal(t, 15*time.Minute, c.Scheduler.Interval)
	assert.Equal(t, []string{"XAUUSD", "EURUSD"}, c.Scheduler.Symbols)
	assert.Equal(t, 3, c.ICT.SwingLookbackPeriods)
	assert.InDelta(t, 1.5, c.ICT.KeyLevelProximityPct, 1e-9)

	// Untouched keys still pick up their defaults.
	assert.Equal(t, "flowict", c.App.Name)
	assert.Equal(t, 30*time.Second, c.HTTP.WriteTimeout)
	assert.InDelta(t, 0.1, c.ICT.FVGThresholdPct, 1e-9)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "app: [broken")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadRequiresAuthSecret(t *testing.T) {
	path := writeConfig(t, `
http:
  auth:
    enabled: true
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http.auth.secret")
}

func TestLoadRequiresTelegramCredentials(t *testing.T) {
	path := writeConfig(t, `
telegram:
  enabled: true
  bot_token: "123:abc"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram.bot_token and telegram.chat_id")
}

func TestLoadRejectsLowCandleLimit(t *testing.T) {
	path := writeConfig(t, `
ict:
  candle_limit: 10
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ict.candle_limit")
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_PORT", "9091")
	t.Setenv("SYMBOLS", "XAUUSD,EURUSD,GBPUSD")

	c, err := LoadWithEnv("")
	require.NoError(t, err)

	assert.Equal(t, "staging", c.App.Env)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, 9091, c.HTTP.Port)
	assert.Equal(t, []string{"XAUUSD", "EURUSD", "GBPUSD"}, c.Scheduler.Symbols)
}

func TestLoadWithEnvIgnoresBadPort(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-port")

	c, err := LoadWithEnv("")
	require.NoError(t, err)
	assert.Equal(t, 8080, c.HTTP.Port)
}
