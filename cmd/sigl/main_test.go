package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mysqladapter "sigl/internal/adapter/mysql"
	postgresadapter "sigl/internal/adapter/postgres"
	sqliteadapter "sigl/internal/adapter/sqlite"
	"sigl/internal/dialect"
)

func TestResolveOptionsAppliesDatabaseFlagOverProjectFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "sigl.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("database = \"mysql\"\n"), 0o644))

	flags := &rootFlags{config: configPath, database: "postgres"}
	opts, err := resolveOptions(flags)
	require.NoError(t, err)
	assert.Equal(t, dialect.PostgreSQL, opts.Adapter)
	assert.Equal(t, dialect.PostgreSQL, opts.Generator)
}

func TestResolveOptionsDefaultsToSQLiteWithoutFlagOrFile(t *testing.T) {
	flags := &rootFlags{config: filepath.Join(t.TempDir(), "sigl.toml")}
	opts, err := resolveOptions(flags)
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLite, opts.Adapter)
}

func TestBuildAdapterSelectsImplementationPerDialect(t *testing.T) {
	a, err := buildAdapter(dialect.SQLite, "test.db")
	require.NoError(t, err)
	assert.IsType(t, &sqliteadapter.Adapter{}, a)

	a, err = buildAdapter(dialect.PostgreSQL, "dsn")
	require.NoError(t, err)
	assert.IsType(t, &postgresadapter.Adapter{}, a)

	a, err = buildAdapter(dialect.MySQL, "dsn")
	require.NoError(t, err)
	assert.IsType(t, &mysqladapter.Adapter{}, a)
}

func TestBuildAdapterRejectsUnsupportedDialect(t *testing.T) {
	_, err := buildAdapter(dialect.Type("oracle"), "dsn")
	require.Error(t, err)
}

func TestVersionCmdPrintsVersion(t *testing.T) {
	cmd := versionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	require.NoError(t, cmd.RunE(cmd, nil))
	assert.Contains(t, buf.String(), version)
}

func TestPullCmdReturnsNotImplementedError(t *testing.T) {
	cmd := pullCmd()
	err := cmd.RunE(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not implemented")
}

func TestCreateCmdWritesStubMigrationFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "sigl.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("migrations_path = \""+filepath.Join(dir, "migrations")+"\"\n"), 0o644))

	flags := &rootFlags{config: configPath}
	cmd := createCmd(flags)
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	require.NoError(t, cmd.RunE(cmd, []string{"add_users"}))
	assert.Contains(t, buf.String(), "add_users")

	entries, err := os.ReadDir(filepath.Join(dir, "migrations"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "add_users.sigl")
}

func TestCreateCmdRejectsInvalidName(t *testing.T) {
	flags := &rootFlags{config: filepath.Join(t.TempDir(), "sigl.toml")}
	cmd := createCmd(flags)
	err := cmd.RunE(cmd, []string{"../escape"})
	require.Error(t, err)
}

func TestInitCmdCreatesMigrationsDirAtConfiguredPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "sigl.toml")
	migrationsDir := filepath.Join(dir, "migrations")
	require.NoError(t, os.WriteFile(configPath, []byte("migrations_path = \""+migrationsDir+"\"\n"), 0o644))

	flags := &rootFlags{config: configPath, database: "sqlite"}
	cmd := initCmd(flags)
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	require.NoError(t, cmd.RunE(cmd, nil))

	_, err := os.Stat(migrationsDir)
	assert.NoError(t, err)
}
