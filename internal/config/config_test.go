package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 90, cfg.Engine.DelinquencyCutoffDays)
	assert.Equal(t, 2, cfg.Engine.LoansPerBorrower)
	assert.Equal(t, int64(1), cfg.Engine.SeedSource)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LENDCORE_LOG_LEVEL", "debug")
	t.Setenv("LENDCORE_SERVER_ADDR", ":9090")
	t.Setenv("LENDCORE_ENGINE_SEED_SOURCE", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.Server.Addr, "nested keys must be overridable via env")
	assert.Equal(t, int64(42), cfg.Engine.SeedSource)
}
