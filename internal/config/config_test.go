package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("RESTORAN_JWT_SECRET", "")
	t.Setenv("JWT_SECRET", "")

	_, _, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("RESTORAN_JWT_SECRET", "short")

	_, _, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32")
}

func TestLoadDefaultsAndWarnings(t *testing.T) {
	t.Setenv("RESTORAN_JWT_SECRET", strings.Repeat("s", 40))

	cfg, warnings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.Audit.BulkTimeout)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Empty(t, cfg.Redis.URL)
	assert.Len(t, warnings, 2)
}

func TestLoadUnprefixedFallback(t *testing.T) {
	t.Setenv("JWT_SECRET", strings.Repeat("x", 32))
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("AUDIT_BULK_TIMEOUT", "5s")

	cfg, _, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 5*time.Second, cfg.Audit.BulkTimeout)
}

func TestLoadDBIgnoresHTTPSettings(t *testing.T) {
	t.Setenv("RESTORAN_JWT_SECRET", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("RESTORAN_DB_DATABASE_DSN", "host=db user=audit dbname=audit")

	db, err := LoadDB()
	require.NoError(t, err)
	assert.Equal(t, "host=db user=audit dbname=audit", db.DSN)
	assert.Equal(t, 20, db.MaxOpenConns)
}
