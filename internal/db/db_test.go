package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aTrapDeer/portfolio-backend/internal/config"
	"github.com/aTrapDeer/portfolio-backend/internal/logger"
)

func sqliteConfig(t *testing.T) config.Database {
	return config.Database{
		Engine:     config.EngineSQLite,
		DataDir:    filepath.Join(t.TempDir(), "data"),
		SQLiteFile: "portfolio.db",
	}
}

func TestOpenSQLiteMigrateAndHealth(t *testing.T) {
	cfg := sqliteConfig(t)

	gdb, err := Open(cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })

	require.NoError(t, Migrate(gdb))
	// second run is a no-op
	require.NoError(t, Migrate(gdb))

	for _, table := range []string{"projects", "skills", "experiences", "messages"} {
		assert.True(t, gdb.Migrator().HasTable(table), table)
	}
	assert.FileExists(t, cfg.SQLitePath())

	report := Health(context.Background(), gdb)
	assert.True(t, report.Healthy)
	assert.Equal(t, "sqlite", report.Details["dialect"])
}

func TestRollbackLastDropsTables(t *testing.T) {
	gdb, err := Open(sqliteConfig(t), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })

	require.NoError(t, Migrate(gdb))
	require.NoError(t, RollbackLast(gdb))

	assert.False(t, gdb.Migrator().HasTable("projects"))
}

func TestHealthAfterClose(t *testing.T) {
	gdb, err := Open(sqliteConfig(t), logger.Discard())
	require.NoError(t, err)
	require.NoError(t, Close(gdb))

	report := Health(context.Background(), gdb)
	assert.False(t, report.Healthy)
}

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN(config.Database{
		MySQLHost:     "db.internal",
		MySQLPort:     3307,
		MySQLUser:     "portfolio",
		MySQLPassword: "s3cret",
		MySQLDatabase: "site",
	})

	assert.Contains(t, dsn, "portfolio:s3cret@tcp(db.internal:3307)/site")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestDialectorRejectsUnknownEngine(t *testing.T) {
	_, _, err := Dialector(config.Database{Engine: "oracle"})
	require.Error(t, err)
}
