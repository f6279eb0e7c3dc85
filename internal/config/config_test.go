package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Interview.MaxViolations)
	assert.Equal(t, 2*time.Second, cfg.Interview.ViolationDebounce)
	assert.Equal(t, 5*time.Second, cfg.Interview.TeardownDelay)
	assert.Equal(t, int64(5*1024*1024), cfg.Interview.MaxResumeSize)
	assert.Equal(t, "claude", cfg.LLM.Provider)
	assert.Equal(t, 30, cfg.RateLimit.ViolationsPerMinute)
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9999
interview:
  max_violations: 5
  violation_debounce: 750ms
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Interview.MaxViolations)
	assert.Equal(t, 750*time.Millisecond, cfg.Interview.ViolationDebounce)
	// Untouched sections keep their defaults
	assert.Equal(t, 5*time.Second, cfg.Interview.TeardownDelay)
}

func TestEnvOverridesYAML(t *testing.T) {
	t.Setenv("INTERVIEW_MAX_VIOLATIONS", "4")
	t.Setenv("INTERVIEW_VIOLATION_DEBOUNCE", "3s")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Interview.MaxViolations)
	assert.Equal(t, 3*time.Second, cfg.Interview.ViolationDebounce)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_SECRET_VALUE", "s3cret")

	assert.Equal(t, "key: s3cret", expandEnvVars("key: ${TEST_SECRET_VALUE}"))
	assert.Equal(t, "key: s3cret", expandEnvVars("key: $TEST_SECRET_VALUE"))
	assert.Equal(t, "key: ${UNSET_VALUE_XYZ}", expandEnvVars("key: ${UNSET_VALUE_XYZ}"),
		"unset variables stay literal")
}
