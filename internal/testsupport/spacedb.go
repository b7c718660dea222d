// Package testsupport provides database fixtures for tests. The PDCR history
// schema is recreated on an in-memory SQLite database so pool construction,
// liveness probes, and the report queries run against a real database/sql
// stack without a warehouse.
package testsupport

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"pdcr/internal/adapters/config"
)

// Attached schemas stand in for the PDCRINFO and DBC databases so the report
// SQL runs with its schema-qualified table names unchanged.
var schemaStatements = []string{
	`ATTACH DATABASE ':memory:' AS PDCRINFO`,
	`ATTACH DATABASE ':memory:' AS DBC`,
	`CREATE TABLE PDCRINFO.TableSpace_Hst (
		LogDate TEXT,
		DatabaseName TEXT,
		Tablename TEXT,
		AccountName TEXT,
		CURRENTPERM REAL,
		PEAKPERM REAL,
		CURRENTPERMSKEW REAL,
		PEAKPERMSKEW REAL
	)`,
	`CREATE TABLE PDCRINFO.DatabaseSpace_Hst (
		LogDate TEXT,
		DatabaseName TEXT,
		AccountName TEXT,
		CURRENTPERM REAL,
		PEAKPERM REAL,
		MAXPERM REAL,
		CURRENTPERMSKEW REAL,
		PERMPCTUSED REAL
	)`,
	`CREATE TABLE PDCRINFO.SpoolSpace_Hst (
		LogDate TEXT,
		UserName TEXT,
		AccountName TEXT,
		CURRENTSPOOL REAL,
		PEAKSPOOL REAL,
		MAXSPOOL REAL,
		PEAKSPOOLSKEW REAL,
		CURRENTTEMP REAL,
		PEAKTEMP REAL,
		MAXTEMP REAL,
		PEAKTEMPSKEW REAL
	)`,
	`CREATE TABLE DBC.DBCInfoV (
		InfoKey TEXT,
		InfoData TEXT
	)`,
}

// NewSpaceDB opens an in-memory database shaped like the PDCR history schema.
// The pool is pinned to a single connection so the attached schemas are
// visible on every checkout. Closed automatically when the test ends.
func NewSpaceDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	for _, stmt := range schemaStatements {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Seed executes one insert/setup statement, failing the test on error
func Seed(t *testing.T, db *sqlx.DB, query string, args ...interface{}) {
	t.Helper()
	_, err := db.Exec(query, args...)
	require.NoError(t, err)
}

// LoadArchiveConfigFromEnv reads ClickHouse settings for integration tests.
// Tests are skipped when the environment is not configured.
func LoadArchiveConfigFromEnv(t *testing.T) config.ArchiveConfig {
	t.Helper()

	host := os.Getenv("CLICKHOUSE_HOST")
	if host == "" {
		t.Skip("integration environment missing, set CLICKHOUSE_HOST to run")
	}

	return config.ArchiveConfig{
		Enabled:  true,
		Host:     host,
		Port:     intValue("CLICKHOUSE_PORT", 9000),
		User:     valueWithDefault("CLICKHOUSE_USER", "default"),
		Password: os.Getenv("CLICKHOUSE_PASSWORD"),
		Database: valueWithDefault("CLICKHOUSE_DB", "pdcr"),
	}
}
