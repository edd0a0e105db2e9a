package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	t.Cleanup(func() {
		_ = os.Unsetenv(key)
	})
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	setEnv(t, "TEST_VAR", "custom-value")
	assert.Equal(t, "custom-value", getEnvOrDefault("TEST_VAR", "default"))

	require := os.Unsetenv("TEST_VAR_MISSING")
	assert.NoError(t, require)
	assert.Equal(t, "default", getEnvOrDefault("TEST_VAR_MISSING", "default"))
}

func TestGetEnvBool(t *testing.T) {
	setEnv(t, "TEST_BOOL", "true")
	assert.True(t, getEnvBool("TEST_BOOL", false))

	setEnv(t, "TEST_BOOL", "false")
	assert.False(t, getEnvBool("TEST_BOOL", true))

	setEnv(t, "TEST_BOOL", "invalid")
	assert.True(t, getEnvBool("TEST_BOOL", true))
}

func TestGetEnvInt(t *testing.T) {
	setEnv(t, "TEST_INT", "42")
	assert.Equal(t, 42, getEnvInt("TEST_INT", 10))

	setEnv(t, "TEST_INT", "invalid")
	assert.Equal(t, 10, getEnvInt("TEST_INT", 10))
}

func TestGetEnvDuration(t *testing.T) {
	setEnv(t, "TEST_DURATION", "45s")
	assert.Equal(t, 45*time.Second, getEnvDuration("TEST_DURATION", 30*time.Second))

	setEnv(t, "TEST_DURATION", "invalid")
	assert.Equal(t, 30*time.Second, getEnvDuration("TEST_DURATION", 30*time.Second))
}
