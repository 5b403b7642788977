package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigl/internal/config"
	"sigl/internal/dialect"
)

func TestLoadProjectFileMissingReturnsBaseUnchanged(t *testing.T) {
	base := config.Default()
	opts, err := loadProjectFile(filepath.Join(t.TempDir(), "nope.toml"), base)
	require.NoError(t, err)
	assert.Equal(t, base, opts)
}

func TestLoadProjectFileOverlaysRecognizedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sigl.toml")
	contents := "migrations_path = \"custom_migrations\"\nledger_path = \"custom.json\"\ndatabase = \"postgres\"\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	opts, err := loadProjectFile(path, config.Default())
	require.NoError(t, err)
	assert.Equal(t, "custom_migrations", opts.MigrationsPath)
	assert.Equal(t, "custom.json", opts.LedgerPath)
	assert.Equal(t, dialect.PostgreSQL, opts.Adapter)
	assert.Equal(t, dialect.PostgreSQL, opts.Generator)
}

func TestLoadProjectFileRejectsUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sigl.toml")
	require.NoError(t, os.WriteFile(path, []byte("bogus_key = \"x\"\n"), 0o644))

	_, err := loadProjectFile(path, config.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized key")
}

func TestLoadProjectFileRejectsUnsupportedDialect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sigl.toml")
	require.NoError(t, os.WriteFile(path, []byte("database = \"oracle\"\n"), 0o644))

	_, err := loadProjectFile(path, config.Default())
	require.Error(t, err)
}
