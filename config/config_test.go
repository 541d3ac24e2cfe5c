package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 20*time.Millisecond, cfg.FixedStep)
	assert.Equal(t, 5, cfg.MaxFixedSteps)
	assert.Equal(t, "machines", cfg.MachinesDir)
	assert.False(t, cfg.Watch)
	assert.Equal(t, 32, cfg.MaxChainedTransitions)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FSM_LOG_LEVEL", "debug")
	t.Setenv("FSM_LOG_FORMAT", "json")
	t.Setenv("FSM_FIXED_STEP", "10ms")
	t.Setenv("FSM_MAX_FIXED_STEPS", "3")
	t.Setenv("FSM_MACHINES_DIR", "/tmp/defs")
	t.Setenv("FSM_WATCH", "true")
	t.Setenv("FSM_MAX_CHAINED_TRANSITIONS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 10*time.Millisecond, cfg.FixedStep)
	assert.Equal(t, 3, cfg.MaxFixedSteps)
	assert.Equal(t, "/tmp/defs", cfg.MachinesDir)
	assert.True(t, cfg.Watch)
	assert.Equal(t, 8, cfg.MaxChainedTransitions)
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name, key, value string
	}{
		{"bad_duration", "FSM_FIXED_STEP", "soon"},
		{"zero_step", "FSM_FIXED_STEP", "0s"},
		{"bad_steps", "FSM_MAX_FIXED_STEPS", "0"},
		{"bad_level", "FSM_LOG_LEVEL", "loud"},
		{"bad_format", "FSM_LOG_FORMAT", "xml"},
		{"bad_chain", "FSM_MAX_CHAINED_TRANSITIONS", "-1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Setenv(c.key, c.value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{LogLevel: "warn", LogFormat: "json"}
	logger := cfg.Logger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"k":1`)
}
