package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.EqualError(t, err, "DATABASE_URL is required")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 168, cfg.JWTExpirationHours)
	assert.True(t, cfg.SerializePartyPayments)
	assert.Equal(t, 60, cfg.ReconcileIntervalMinutes)
	assert.Equal(t, "dev-secret-change-in-production", cfg.JWTSecret)
}

func TestLoad_ProductionNeedsSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetEnvAsSlice_TrimsOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:5173/, https://ledger.rkco.app ,")

	origins := getEnvAsSlice("ALLOWED_ORIGINS", nil)
	assert.Equal(t, []string{"http://localhost:5173", "https://ledger.rkco.app"}, origins)
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("SERIALIZE_PARTY_PAYMENTS", "false")
	assert.False(t, getEnvAsBool("SERIALIZE_PARTY_PAYMENTS", true))

	t.Setenv("SERIALIZE_PARTY_PAYMENTS", "not-a-bool")
	assert.True(t, getEnvAsBool("SERIALIZE_PARTY_PAYMENTS", true))
}
