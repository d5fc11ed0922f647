package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "http://localhost:5173", cfg.CORSOrigin)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.IsDevelopment())

	// The dev fallback secret is applied, never left empty.
	assert.NotEmpty(t, cfg.Auth.JWTSecret)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "8080")
	t.Setenv("CORS_ORIGIN", "https://app.example.com")
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("JWT_EXPIRES_IN", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "https://app.example.com", cfg.CORSOrigin)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_ProductionRejectsShortSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 characters")
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		User:     "payflow",
		Password: "p@ss/word",
		Name:     "payflow",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "tcp(db.internal:3306)")
	assert.Contains(t, dsn, "/payflow")
	assert.Contains(t, dsn, "parseTime=true")
}

func TestDatabaseConfig_DSNOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "user:pass@tcp(somewhere:3306)/other?parseTime=true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "user:pass@tcp(somewhere:3306)/other?parseTime=true", cfg.Database.DSN())
}

func TestIsDevelopment(t *testing.T) {
	for env, want := range map[string]bool{
		"development": true,
		"dev":         true,
		"Development": true,
		"production":  false,
		"prod":        false,
		"staging":     false,
	} {
		cfg := &Config{Env: env}
		assert.Equal(t, want, cfg.IsDevelopment(), "env %q", env)
	}
}
