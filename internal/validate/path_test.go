package validate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNameAccepted(t *testing.T) {
	name, err := MigrationName("add_users_table")
	require.NoError(t, err)
	assert.Equal(t, "add_users_table", name)
}

func TestMigrationNameEmptyRejected(t *testing.T) {
	_, err := MigrationName("")
	assert.Error(t, err)
}

func TestMigrationNameTraversalRejected(t *testing.T) {
	_, err := MigrationName("../../etc/passwd")
	assert.Error(t, err)
}

func TestMigrationNameURLEncodedTraversalRejected(t *testing.T) {
	// "%2e%2e%2fetc" decodes (iteratively) to "../etc".
	_, err := MigrationName("%252e%252e%252fetc")
	assert.Error(t, err)
}

func TestMigrationNameTooLongRejected(t *testing.T) {
	long := ""
	for i := 0; i < 101; i++ {
		long += "a"
	}
	_, err := MigrationName(long)
	assert.Error(t, err)
}

func TestMigrationNameDisallowedCharsRejected(t *testing.T) {
	_, err := MigrationName("bad name!")
	assert.Error(t, err)
}

func TestResolveMigrationPathAccepted(t *testing.T) {
	dir := t.TempDir()
	path, err := ResolveMigrationPath(dir, "20260101000000_init.sigl")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20260101000000_init.sigl"), path)
}

func TestResolveMigrationPathRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	_, err := ResolveMigrationPath(dir, "../escape.sigl")
	assert.Error(t, err)
}

func TestResolveMigrationPathRejectsSymlinkDir(t *testing.T) {
	base := t.TempDir()
	real := filepath.Join(base, "real")
	require.NoError(t, os.Mkdir(real, 0o755))

	link := filepath.Join(base, "link")
	require.NoError(t, os.Symlink(real, link))

	_, err := ResolveMigrationPath(link, "x.sigl")
	assert.Error(t, err)
}

func TestResolveMigrationPathMissingDir(t *testing.T) {
	_, err := ResolveMigrationPath(filepath.Join(t.TempDir(), "nope"), "x.sigl")
	assert.Error(t, err)
}
