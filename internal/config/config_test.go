package config

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	conf, err := parse(flag.NewFlagSet("test", flag.ContinueOnError), []string{})
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", conf.RunAddress)
	assert.Equal(t, []byte("secret"), conf.Secret)
	assert.Equal(t, 30*time.Minute, conf.AccessTokenTTL)
	assert.Equal(t, 168*time.Hour, conf.RefreshTokenTTL)
	assert.Equal(t, "info", conf.LogLevel)
	assert.Empty(t, conf.NATSURL)
}

func TestEnvironmentWinsOverFlags(t *testing.T) {
	t.Setenv("RUN_ADDRESS", ":9000")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")

	conf, err := parse(flag.NewFlagSet("test", flag.ContinueOnError),
		[]string{"-a", ":7000", "-s", "from-flag", "-n", "nats://localhost:4222"})
	require.NoError(t, err)

	assert.Equal(t, ":9000", conf.RunAddress)
	assert.Equal(t, []byte("from-env"), conf.Secret)
	assert.Equal(t, 5*time.Minute, conf.AccessTokenTTL)
	assert.Equal(t, "nats://localhost:4222", conf.NATSURL)
}

func TestBadDuration(t *testing.T) {
	t.Setenv("REFRESH_TOKEN_TTL", "soon")

	_, err := parse(flag.NewFlagSet("test", flag.ContinueOnError), []string{})
	assert.Error(t, err)
}
