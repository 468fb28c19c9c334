package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	config := NewConfigManager().GetConfig()

	assert.Equal(t, 8000, config.Server.Port)
	assert.Equal(t, "MoneyPulse", config.Branding.AppName)
	assert.Equal(t, "Consumer Shopping Behaviour Report", config.Branding.ReportTitle)
	assert.True(t, config.Features.Clustering)
	assert.True(t, config.Features.Reviews)
	assert.True(t, config.Features.Sales)
	assert.Equal(t, 24, config.Security.TokenExpiry)
	assert.Equal(t, "@hourly", config.Retention.SessionSweep)
}

func TestTokenExpiryDuration(t *testing.T) {
	config := NewConfigManager().GetConfig()
	assert.Equal(t, 24*time.Hour, config.TokenExpiry())
}

func TestLoadFromYAMLMergesDefaults(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", `
server:
  port: 9090
branding:
  app_name: MarketPro
  company_name: Market Pro Ltd
features:
  clustering: true
  reviews: false
  sales: false
security:
  token_expiry: 48
`)

	cm := NewConfigManager()
	require.NoError(t, cm.LoadFromFile(path))
	config := cm.GetConfig()

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "MarketPro", config.Branding.AppName)
	assert.Equal(t, "Market Pro Ltd", config.Branding.CompanyName)
	assert.True(t, config.Features.Clustering)
	assert.False(t, config.Features.Reviews)
	assert.False(t, config.Features.Sales)
	assert.Equal(t, 48, config.Security.TokenExpiry)

	// Unset fields keep their defaults
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, "Consumer Shopping Behaviour Report", config.Branding.ReportTitle)
	assert.Equal(t, "info", config.Logging.Level)
}

func TestLoadFromJSON(t *testing.T) {
	path := writeConfigFile(t, "config.json", `{
  "branding": {"app_name": "MarketPulse"},
  "server": {"port": 8080}
}`)

	cm := NewConfigManager()
	require.NoError(t, cm.LoadFromFile(path))

	assert.Equal(t, "MarketPulse", cm.GetConfig().Branding.AppName)
	assert.Equal(t, 8080, cm.GetConfig().Server.Port)
}

func TestLoadRejectsUnsupportedFormat(t *testing.T) {
	path := writeConfigFile(t, "config.toml", "port = 8000")
	assert.Error(t, NewConfigManager().LoadFromFile(path))
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad port", "server:\n  port: 700000\n"},
		{"bad log level", "logging:\n  level: verbose\n"},
		{"bad log format", "logging:\n  format: xml\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfigFile(t, "config.yaml", tc.content)
			assert.Error(t, NewConfigManager().LoadFromFile(path))
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	err := NewConfigManager().LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestApplyEnvironment(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("GEMINI_API_KEY", "env-key")

	cm := NewConfigManager()
	cm.ApplyEnvironment()
	config := cm.GetConfig()

	assert.Equal(t, 9999, config.Server.Port)
	assert.Equal(t, "env-secret", config.Security.JWTSecret)
	assert.Equal(t, "env-key", config.Chatbot.APIKey)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")

	cm := NewConfigManager()
	cm.GetConfig().Branding.AppName = "MarketPulse"
	require.NoError(t, cm.SaveToFile(path))

	reloaded := NewConfigManager()
	require.NoError(t, reloaded.LoadFromFile(path))
	assert.Equal(t, "MarketPulse", reloaded.GetConfig().Branding.AppName)
}
