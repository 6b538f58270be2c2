package database

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAuditMigrationContainsConstraints(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/20250102000000_create_audit_tables.sql")
	require.NoError(t, err)
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS audit_cycles",
		"CHECK (start_date < end_date)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_audit_entries_cycle_item ON audit_entries(audit_cycle_id, item_id)",
		"correction_entry_id BIGINT REFERENCES stock_movements(id)",
		"-- +goose Down",
	}
	for _, sub := range checks {
		assert.True(t, strings.Contains(content, sub), "missing %q", sub)
	}
}

func TestMigrationsHaveUpAndDown(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, e := range entries {
		data, err := fs.ReadFile(migrationsFS, migrationsDir+"/"+e.Name())
		require.NoError(t, err)
		assert.Contains(t, string(data), "-- +goose Up", e.Name())
		assert.Contains(t, string(data), "-- +goose Down", e.Name())
	}
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsSerializationFailure(fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40001"})))
	assert.False(t, IsSerializationFailure(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsDuplicateKey(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	assert.False(t, IsDuplicateKey(errors.New("boom")))
}
