package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://localhost:5000/")
	t.Setenv("STOREFRONT_ADDR", "")
	t.Setenv("SESSION_DSN", "")
	t.Setenv("API_TIMEOUT", "bogus")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := Load()
	assert.Equal(t, "http://localhost:5000", cfg.APIBaseURL)
	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, "storefront-session.db", cfg.SessionDSN)
	assert.Equal(t, 10*time.Second, cfg.APITimeout)
	assert.Equal(t, "product", cfg.ESIndex)
	assert.Nil(t, cfg.KafkaBrokers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg := Load()
	assert.Equal(t, 3*time.Second, cfg.APITimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []byte("s3cret"), cfg.SessionSecret)
}

func TestEnvIntDefault(t *testing.T) {
	t.Setenv("SOME_INT", "42")
	assert.Equal(t, 42, EnvIntDefault("SOME_INT", 1))

	t.Setenv("SOME_INT", "x")
	assert.Equal(t, 1, EnvIntDefault("SOME_INT", 1))
}

func TestNonEmpty(t *testing.T) {
	t.Parallel()

	require.NoError(t, NonEmpty("v", "X"))
	assert.EqualError(t, NonEmpty("", "API_BASE_URL"), "missing required env API_BASE_URL")
}
