package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"OWNDROB_ADDR", "OBJECT_STORE", "SESSION_STORE", "UPSTREAM_TIMEOUT", "KAFKA_BROKERS"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":3001", cfg.Addr)
	assert.Equal(t, ObjectStorePinata, cfg.ObjectStore.Backend)
	assert.Equal(t, SessionStorePostgres, cfg.SessionStore)
	assert.Equal(t, 15*time.Second, cfg.ObjectStore.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Admission.WriteTimeout)
	assert.Empty(t, cfg.Audit.Brokers)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("OWNDROB_ADDR", ":9090")
	t.Setenv("OBJECT_STORE", "memory")
	t.Setenv("UPSTREAM_TIMEOUT", "2s")
	t.Setenv("MIRROR_RECONCILE_BATCH", "7")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, ObjectStoreMemory, cfg.ObjectStore.Backend)
	assert.Equal(t, 2*time.Second, cfg.ObjectStore.Timeout)
	assert.Equal(t, 7, cfg.Mirror.BatchSize)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Audit.Brokers)
}

func TestFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("UPSTREAM_TIMEOUT", "soon")
	t.Setenv("MIRROR_RECONCILE_BATCH", "-3")

	cfg := FromEnv()

	assert.Equal(t, 15*time.Second, cfg.ObjectStore.Timeout)
	assert.Equal(t, 50, cfg.Mirror.BatchSize)
}

func TestFromEnvSessionFlags(t *testing.T) {
	t.Setenv("REQUIRE_SESSION", "true")
	t.Setenv("SESSION_COOKIE_SECURE", "maybe")

	cfg := FromEnv()

	assert.True(t, cfg.RequireSession)
	assert.False(t, cfg.SecureCookie)
}

func TestFromEnvLockout(t *testing.T) {
	t.Setenv("SIGNIN_MAX_ATTEMPTS", "")
	t.Setenv("SIGNIN_LOCKOUT", "1h")

	cfg := FromEnv()

	assert.Equal(t, 5, cfg.Lockout.Attempts)
	assert.Equal(t, 15*time.Minute, cfg.Lockout.Window)
	assert.Equal(t, time.Hour, cfg.Lockout.Duration)
}
