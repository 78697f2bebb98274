package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDRESS", "KAFKA_BROKERS", "HEALTH_BACKEND", "STORE_BACKEND", "CONSENT_POLICY", "RATE_LIMIT_RPS", "CONSUMER_TOPICS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddress)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"workout_events", "sleep_events"}, cfg.ConsumerTopics)
	assert.Equal(t, BackendNative, cfg.HealthBackend)
	assert.Equal(t, StorePostgres, cfg.StoreBackend)
	assert.Equal(t, ConsentScopes, cfg.ConsentPolicy)
	assert.Equal(t, 20.0, cfg.RateLimitRPS)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092 ")
	t.Setenv("OUTBOX_POLL_INTERVAL", "250ms")
	t.Setenv("OUTBOX_BATCH_SIZE", "not-a-number")
	t.Setenv("HEALTH_BACKEND", "WEB")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg := Load()
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 250*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, 25, cfg.OutboxBatchSize)
	assert.Equal(t, BackendWeb, cfg.HealthBackend)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	t.Setenv("HEALTH_BACKEND", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("CONSENT_POLICY", "")

	cfg := Load()
	cfg.HealthBackend = "healthkit"
	require.ErrorContains(t, cfg.Validate(), "HEALTH_BACKEND")

	cfg = Load()
	cfg.StoreBackend = "sqlite"
	require.ErrorContains(t, cfg.Validate(), "STORE_BACKEND")

	cfg = Load()
	cfg.ConsentPolicy = "ask"
	require.ErrorContains(t, cfg.Validate(), "CONSENT_POLICY")

	cfg = Load()
	cfg.RateLimitBurst = -1
	require.Error(t, cfg.Validate())
}
