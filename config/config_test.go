package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_SECRET", "")

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "development", c.Env)
	assert.Equal(t, "8000", c.Port)
	assert.Equal(t, devJWTSecret, c.JWTSecret)
	assert.Equal(t, 24*time.Hour, c.JWTTTL)
	assert.Equal(t, []string{"*"}, c.CORSOrigins)
	assert.Equal(t, "log", c.MailDriver)
	assert.False(t, c.IsProduction())
}

func TestFromEnvEmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("MAIL_DRIVER", "")

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "development", c.Env)
	assert.Equal(t, "8000", c.Port)
	assert.Equal(t, "log", c.MailDriver)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("MAIL_DRIVER", "postmark")

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins)
	assert.Equal(t, 90*time.Second, c.CacheTTL)
	assert.Equal(t, "postmark", c.MailDriver)
}

func TestProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "s3cret")
	c, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, c.IsProduction())
}

func TestUnknownMailDriver(t *testing.T) {
	t.Setenv("MAIL_DRIVER", "pigeon")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "MAIL_DRIVER")
}
