package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/autohub-api/pkg/config"
)

func TestMigrationURL(t *testing.T) {
	pg := migrationURL(config.DatabaseConfig{
		Driver:   config.DriverPostgres,
		Host:     "db",
		Port:     5432,
		User:     "autohub",
		Password: "p@ss word",
		Name:     "autohub",
		SSLMode:  "disable",
	})
	assert.Equal(t, "postgres://autohub:p%40ss%20word@db:5432/autohub?sslmode=disable", pg)

	lite := migrationURL(config.DatabaseConfig{Driver: config.DriverSQLite, Path: "./data/autohub.db"})
	assert.True(t, strings.HasPrefix(lite, "sqlite://./data/autohub.db"))
}

func TestEmbeddedMigrationsPerDriver(t *testing.T) {
	for _, driver := range []string{config.DriverPostgres, config.DriverSQLite} {
		entries, err := fs.ReadDir(migrationFiles, "migrations/"+driver)
		require.NoError(t, err)
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		assert.Contains(t, names, "000001_init_schema.up.sql", driver)
		assert.Contains(t, names, "000001_init_schema.down.sql", driver)

		up, err := fs.ReadFile(migrationFiles, "migrations/"+driver+"/000001_init_schema.up.sql")
		require.NoError(t, err)
		assert.Contains(t, string(up), "WHERE status IN ('PENDING', 'APPROVED')", driver)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"})
	require.Error(t, err)
}
