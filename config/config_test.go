package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "  s3cret  ")

	cfg := LoadConfig()
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 30, cfg.Auth.TokenExpireMinutes)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "roster-events", cfg.MQ.Channel)
	assert.False(t, cfg.IsDev())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("DB_SSL", "yes")
	t.Setenv("MQ_BACKEND", "RabbitMQ")

	cfg := LoadConfig()
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 30, cfg.Auth.TokenExpireMinutes)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.Database.UseSSL)
	assert.Equal(t, "rabbitmq", cfg.MQ.Backend)
}

func TestValidate(t *testing.T) {
	cfg := Config{Auth: AuthConfig{TokenExpireMinutes: 30}}
	assert.EqualError(t, cfg.Validate(), "JWT_SECRET is required")

	cfg.Auth.JWTSecret = "x"
	cfg.MQ.Backend = "kafka"
	assert.Error(t, cfg.Validate())

	cfg.MQ.Backend = "pubsub"
	assert.NoError(t, cfg.Validate())
}

func TestDatabaseURL(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "roster",
		Password: "p@ss word",
		DBName:   "roster_db",
	}
	u := db.URL()
	require.Contains(t, u, "postgres://roster:")
	assert.Contains(t, u, "@db.internal:5433/roster_db")
	assert.Contains(t, u, "sslmode=disable")

	db.UseSSL = true
	assert.Contains(t, db.URL(), "sslmode=require")
}
