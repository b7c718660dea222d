package pdcr_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdcr/internal/adapters/teradata"
	"pdcr/internal/registry"
	"pdcr/internal/repository/pdcr"
	"pdcr/internal/testsupport"
	"pdcr/pkg/errors"
)

func newTestReports(t *testing.T) (*pdcr.Reports, *sqlx.DB) {
	t.Helper()

	reg, err := registry.Parse([]byte(`
test:
  host: tdtest.example.com
  username: analyst
  password: secret
  database: pdcrdata
`))
	require.NoError(t, err)

	db := testsupport.NewSpaceDB(t)
	cache := teradata.NewCache(reg, teradata.WithOpener(
		func(dsn string, poolSize int) (*sqlx.DB, error) { return db, nil },
	))
	t.Cleanup(func() { _ = cache.ReleaseAll() })

	return pdcr.New(cache), db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTableSpaceHistory(t *testing.T) {
	reports, db := newTestReports(t)
	ctx := context.Background()

	const insert = `INSERT INTO PDCRINFO.TableSpace_Hst VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	testsupport.Seed(t, db, insert, "2024-01-02", "SalesDB ", "Orders", "acct1", 1024.0, 2048.0, 1.5, 2.5)
	testsupport.Seed(t, db, insert, "2024-01-03", "SalesDB ", "Orders", "acct1", 1100.0, 2048.0, 1.6, 2.5)
	testsupport.Seed(t, db, insert, "2024-01-02", "FinanceDB", "Ledger", "acct2", 512.0, 512.0, 0.5, 0.5)
	testsupport.Seed(t, db, insert, "2023-06-01", "SalesDB ", "Orders", "acct1", 900.0, 900.0, 1.0, 1.0)

	t.Run("date range bounds inclusively", func(t *testing.T) {
		rows, err := reports.TableSpaceHistory(ctx, "test", pdcr.HistoryFilter{
			Start: date(2024, 1, 2),
			End:   date(2024, 1, 3),
		})
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "2024-01-02", rows[0].LogDate)
	})

	t.Run("bare name filter gets leading wildcard and ignores padding", func(t *testing.T) {
		rows, err := reports.TableSpaceHistory(ctx, "test", pdcr.HistoryFilter{
			Start:    date(2024, 1, 1),
			End:      date(2024, 1, 31),
			Database: "SalesDB",
		})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		for _, r := range rows {
			assert.Equal(t, "SalesDB ", r.DatabaseName)
		}
	})

	t.Run("explicit wildcard passes through", func(t *testing.T) {
		rows, err := reports.TableSpaceHistory(ctx, "test", pdcr.HistoryFilter{
			Start:    date(2024, 1, 1),
			End:      date(2024, 1, 31),
			Database: "Finance%",
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Ledger", rows[0].TableName)
		assert.InDelta(t, 512.0, rows[0].CurrentPerm, 0.001)
	})

	t.Run("default range reaches back to the epoch", func(t *testing.T) {
		rows, err := reports.TableSpaceHistory(ctx, "test", pdcr.HistoryFilter{})
		require.NoError(t, err)
		assert.Len(t, rows, 4)
	})

	t.Run("ordered by date then database then table", func(t *testing.T) {
		rows, err := reports.TableSpaceHistory(ctx, "test", pdcr.HistoryFilter{})
		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Equal(t, "2023-06-01", rows[0].LogDate)
		assert.Equal(t, "FinanceDB", rows[1].DatabaseName)
		assert.Equal(t, "SalesDB ", rows[2].DatabaseName)
	})
}

func TestDatabaseSpaceHistory(t *testing.T) {
	reports, db := newTestReports(t)
	ctx := context.Background()

	const insert = `INSERT INTO PDCRINFO.DatabaseSpace_Hst VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	testsupport.Seed(t, db, insert, "2024-02-01", "SalesDB", "acct1", 4096.0, 8192.0, 16384.0, 1.2, 25.0)
	testsupport.Seed(t, db, insert, "2024-02-01", "FinanceDB", "acct2", 1024.0, 1024.0, 4096.0, 0.3, 25.0)

	rows, err := reports.DatabaseSpaceHistory(ctx, "test", pdcr.HistoryFilter{
		Start:    date(2024, 2, 1),
		End:      date(2024, 2, 1),
		Database: "SalesDB",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "SalesDB", rows[0].DatabaseName)
	assert.InDelta(t, 16384.0, rows[0].MaxPerm, 0.001)
	assert.InDelta(t, 25.0, rows[0].PermPctUsed, 0.001)
}

func TestSpoolSpaceHistory(t *testing.T) {
	reports, db := newTestReports(t)
	ctx := context.Background()

	const insert = `INSERT INTO PDCRINFO.SpoolSpace_Hst VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	testsupport.Seed(t, db, insert, "2024-03-01", "etl_user", "batch", 100.0, 200.0, 300.0, 1.1, 10.0, 20.0, 30.0, 0.9)
	testsupport.Seed(t, db, insert, "2024-03-01", "analyst", "adhoc", 50.0, 60.0, 70.0, 0.2, 1.0, 2.0, 3.0, 0.1)

	t.Run("user filter", func(t *testing.T) {
		rows, err := reports.SpoolSpaceHistory(ctx, "test", pdcr.SpoolFilter{
			Start: date(2024, 3, 1),
			End:   date(2024, 3, 1),
			User:  "etl_user",
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "etl_user", rows[0].UserName)
		assert.InDelta(t, 30.0, rows[0].MaxTemp, 0.001)
	})

	t.Run("account filter", func(t *testing.T) {
		rows, err := reports.SpoolSpaceHistory(ctx, "test", pdcr.SpoolFilter{
			Start:   date(2024, 3, 1),
			End:     date(2024, 3, 1),
			Account: "adhoc",
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "analyst", rows[0].UserName)
	})

	t.Run("no filters returns everything in range", func(t *testing.T) {
		rows, err := reports.SpoolSpaceHistory(ctx, "test", pdcr.SpoolFilter{
			Start: date(2024, 3, 1),
			End:   date(2024, 3, 1),
		})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})
}

func TestDBCInfo(t *testing.T) {
	reports, db := newTestReports(t)
	ctx := context.Background()

	const insert = `INSERT INTO DBC.DBCInfoV VALUES (?, ?)`
	testsupport.Seed(t, db, insert, "VERSION", "17.20.03.01")
	testsupport.Seed(t, db, insert, "LANGUAGE SUPPORT MODE", "Standard")
	testsupport.Seed(t, db, insert, "RELEASE", "17.20.03.01")

	rows, err := reports.DBCInfo(ctx, "test")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Ordered by InfoKey
	assert.Equal(t, "LANGUAGE SUPPORT MODE", rows[0].InfoKey)
	assert.Equal(t, "RELEASE", rows[1].InfoKey)
	assert.Equal(t, "VERSION", rows[2].InfoKey)
	assert.Equal(t, "17.20.03.01", rows[2].InfoData)
}

func TestReports_UnknownEnvironment(t *testing.T) {
	reports, _ := newTestReports(t)

	_, err := reports.DBCInfo(context.Background(), "staging")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConfig)
	assert.Contains(t, err.Error(), "test", "error must list valid environments")
}
