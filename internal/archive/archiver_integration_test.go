package archive_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chadapter "pdcr/internal/adapters/clickhouse"
	"pdcr/internal/archive"
	"pdcr/internal/repository/pdcr"
	"pdcr/internal/testsupport"
)

func TestSpaceArchiver_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg := testsupport.LoadArchiveConfigFromEnv(t)
	client, err := chadapter.NewClient(cfg)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Conn().Exec(ctx, archive.TableSpaceDDL))
	require.NoError(t, client.Conn().Exec(ctx, archive.DatabaseSpaceDDL))

	archiver := archive.NewSpaceArchiver(client)
	archiver.Start(ctx)

	tableRows := []pdcr.TableSpaceRow{
		{LogDate: "2024-01-02", DatabaseName: "SalesDB", TableName: "Orders", AccountName: "acct1",
			CurrentPerm: 1024, PeakPerm: 2048, CurrentPermSkew: 1.5, PeakPermSkew: 2.5},
		{LogDate: "2024-01-03", DatabaseName: "SalesDB", TableName: "Orders", AccountName: "acct1",
			CurrentPerm: 1100, PeakPerm: 2048, CurrentPermSkew: 1.6, PeakPermSkew: 2.5},
	}
	require.NoError(t, archiver.ArchiveTableSpace(ctx, "integration", tableRows))

	dbRows := []pdcr.DatabaseSpaceRow{
		{LogDate: "2024-01-02", DatabaseName: "SalesDB", AccountName: "acct1",
			CurrentPerm: 4096, PeakPerm: 8192, MaxPerm: 16384, CurrentPermSkew: 1.2, PermPctUsed: 25},
	}
	require.NoError(t, archiver.ArchiveDatabaseSpace(ctx, "integration", dbRows))

	// Stop forces the final flush
	require.NoError(t, archiver.Stop(ctx))

	var count uint64
	row := client.Conn().QueryRow(ctx,
		"SELECT count() FROM pdcr_tablespace_hst WHERE environment = 'integration'")
	require.NoError(t, row.Scan(&count))
	assert.GreaterOrEqual(t, count, uint64(2))

	row = client.Conn().QueryRow(ctx,
		"SELECT count() FROM pdcr_databasespace_hst WHERE environment = 'integration'")
	require.NoError(t, row.Scan(&count))
	assert.GreaterOrEqual(t, count, uint64(1))
}
