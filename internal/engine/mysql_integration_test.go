package engine_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	mysqladapter "sigl/internal/adapter/mysql"
	"sigl/internal/config"
	"sigl/internal/dialect"
	mysqlgen "sigl/internal/dialect/mysql"
	"sigl/internal/engine"
	"sigl/internal/ledger"
)

type testMySQLContainer struct {
	container *tcmysql.MySQLContainer
	dsn       string
}

func setupMySQL(t *testing.T) *testMySQLContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mysql:8.0",
		tcmysql.WithDatabase("sigl_test"),
		tcmysql.WithUsername("root"),
		tcmysql.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start MySQL container")

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err, "failed to get connection string")

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err, "failed to open direct DB connection")
	require.NoError(t, db.PingContext(ctx), "failed to ping database")
	require.NoError(t, db.Close())

	return &testMySQLContainer{container: container, dsn: dsn}
}

func TestEngineUpAndDownAgainstRealMySQL(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tc := setupMySQL(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_init.sigl"),
		[]byte("model User {\n  id Serial @pk\n  email VarChar(255) @unique @notnull\n}\n"), 0o644))

	opts := config.Default()
	opts.Adapter = dialect.MySQL
	opts.Generator = dialect.MySQL
	opts.MigrationsPath = dir
	opts.LedgerPath = filepath.Join(t.TempDir(), "ledger.json")

	eng := engine.New(opts, mysqladapter.New(tc.dsn), mysqlgen.NewGenerator(), nil)

	upResult, err := eng.Up(context.Background())
	require.NoError(t, err)
	require.Len(t, upResult.Applied, 1)

	l, err := ledger.Load(opts.LedgerPath)
	require.NoError(t, err)
	require.Len(t, l.Entries, 1)

	downResult, err := eng.Down(context.Background())
	require.NoError(t, err)
	require.Len(t, downResult.RolledBack, 1)

	l, err = ledger.Load(opts.LedgerPath)
	require.NoError(t, err)
	require.Empty(t, l.Entries)
}
