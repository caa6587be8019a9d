package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServerConfig_Defaults(t *testing.T) {
	t.Setenv("HOSTNAME", "api-0")

	cfg, err := NewServerConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Address)
	assert.Equal(t, ":8081", cfg.ScrapeAddress)
	assert.Equal(t, "/metrics", cfg.ScrapePath)
	assert.Equal(t, DefaultOrigin, cfg.MetricOrigin)
	assert.Empty(t, cfg.DatabaseDSN)
	assert.Empty(t, cfg.OTLPEndpoint)
	assert.Equal(t, 10*time.Second, cfg.OTLPInterval)
	assert.Equal(t, 2*time.Second, cfg.KickTimeout)
	assert.Equal(t, "api-0", cfg.Hostname)
}

func TestNewServerConfig_Flags(t *testing.T) {
	cfg, err := NewServerConfig([]string{"-a", ":9090", "-o", "lab", "-kick-timeout", "5"})
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Address)
	assert.Equal(t, "lab", cfg.MetricOrigin)
	assert.Equal(t, 5*time.Second, cfg.KickTimeout)
}

func TestNewServerConfig_EnvOverridesFlags(t *testing.T) {
	t.Setenv("ADDRESS", ":7070")
	t.Setenv("DATABASE_DSN", "postgres://localhost/obs")
	t.Setenv("OTLP_PUSH_INTERVAL", "30")

	cfg, err := NewServerConfig([]string{"-a", ":9090"})
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Address)
	assert.Equal(t, "postgres://localhost/obs", cfg.DatabaseDSN)
	assert.Equal(t, 30*time.Second, cfg.OTLPInterval)
}

func TestNewServerConfig_InvalidEnv(t *testing.T) {
	t.Setenv("KICK_TIMEOUT", "soon")

	_, err := NewServerConfig(nil)
	assert.Error(t, err)
}

func TestNewServerConfig_UnknownFlag(t *testing.T) {
	_, err := NewServerConfig([]string{"-unknown"})
	assert.Error(t, err)
}

func TestNewServerConfig_NonPositiveDurations(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "zero kick timeout flag", args: []string{"-kick-timeout", "0"}},
		{name: "negative otlp interval flag", args: []string{"-otlp-interval", "-5"}},
		{name: "zero kick timeout env", env: map[string]string{"KICK_TIMEOUT": "0"}},
		{name: "negative otlp interval env", env: map[string]string{"OTLP_PUSH_INTERVAL": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := NewServerConfig(tt.args)
			assert.Error(t, err)
		})
	}
}
