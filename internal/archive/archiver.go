// Package archive copies space-history report rows into ClickHouse so they
// survive the warehouse's own PDCR purge cycle.
package archive

import (
	"context"
	"time"

	chadapter "pdcr/internal/adapters/clickhouse"
	"pdcr/internal/metrics"
	"pdcr/internal/repository/pdcr"
	chbatch "pdcr/pkg/clickhouse"
	"pdcr/pkg/errors"
	"pdcr/pkg/logger"
)

const (
	tableSpaceTable    = "pdcr_tablespace_hst"
	databaseSpaceTable = "pdcr_databasespace_hst"
)

// DDL for the archive tables. Applied out-of-band (or by integration tests);
// the archiver assumes the tables exist.
const (
	TableSpaceDDL = `
CREATE TABLE IF NOT EXISTS pdcr_tablespace_hst (
    environment       String,
    log_date          String,
    database_name     String,
    table_name        String,
    account_name      String,
    current_perm      Float64,
    peak_perm         Float64,
    current_perm_skew Float64,
    peak_perm_skew    Float64,
    archived_at       DateTime
) ENGINE = MergeTree()
ORDER BY (environment, log_date, database_name, table_name)`

	DatabaseSpaceDDL = `
CREATE TABLE IF NOT EXISTS pdcr_databasespace_hst (
    environment       String,
    log_date          String,
    database_name     String,
    account_name      String,
    current_perm      Float64,
    peak_perm         Float64,
    max_perm          Float64,
    current_perm_skew Float64,
    perm_pct_used     Float64,
    archived_at       DateTime
) ENGINE = MergeTree()
ORDER BY (environment, log_date, database_name)`
)

type tableSpaceItem struct {
	Environment string
	Row         pdcr.TableSpaceRow
}

type databaseSpaceItem struct {
	Environment string
	Row         pdcr.DatabaseSpaceRow
}

// SpaceArchiver batches report rows and writes them to ClickHouse
type SpaceArchiver struct {
	client        *chadapter.Client
	tableSpace    *chbatch.BatchWriter
	databaseSpace *chbatch.BatchWriter
	log           *logger.Logger
}

// NewSpaceArchiver creates an archiver on top of a connected ClickHouse client
func NewSpaceArchiver(client *chadapter.Client) *SpaceArchiver {
	a := &SpaceArchiver{
		client: client,
		log:    logger.Get().With("component", "space_archiver"),
	}

	a.tableSpace = chbatch.NewBatchWriter(chbatch.BatchWriterConfig{
		FlushFunc: a.flushTableSpace,
		Table:     tableSpaceTable,
	})
	a.databaseSpace = chbatch.NewBatchWriter(chbatch.BatchWriterConfig{
		FlushFunc: a.flushDatabaseSpace,
		Table:     databaseSpaceTable,
	})

	return a
}

// Start enables periodic age-based flushing on both writers
func (a *SpaceArchiver) Start(ctx context.Context) {
	a.tableSpace.Start(ctx)
	a.databaseSpace.Start(ctx)
}

// Stop flushes outstanding rows and shuts both writers down
func (a *SpaceArchiver) Stop(ctx context.Context) error {
	var merr errors.MultiError
	merr.Add(a.tableSpace.Stop(ctx))
	merr.Add(a.databaseSpace.Stop(ctx))
	return merr.ToError()
}

// ArchiveTableSpace buffers table-space rows for the named environment
func (a *SpaceArchiver) ArchiveTableSpace(ctx context.Context, env string, rows []pdcr.TableSpaceRow) error {
	for _, row := range rows {
		if err := a.tableSpace.Add(ctx, tableSpaceItem{Environment: env, Row: row}); err != nil {
			return err
		}
	}
	return nil
}

// ArchiveDatabaseSpace buffers database-space rows for the named environment
func (a *SpaceArchiver) ArchiveDatabaseSpace(ctx context.Context, env string, rows []pdcr.DatabaseSpaceRow) error {
	for _, row := range rows {
		if err := a.databaseSpace.Add(ctx, databaseSpaceItem{Environment: env, Row: row}); err != nil {
			return err
		}
	}
	return nil
}

func (a *SpaceArchiver) flushTableSpace(ctx context.Context, batch []interface{}) (err error) {
	defer func() { metrics.RecordArchiveFlush(tableSpaceTable, len(batch), err) }()

	b, err := a.client.Conn().PrepareBatch(ctx, "INSERT INTO "+tableSpaceTable)
	if err != nil {
		return errors.Newf("%w: preparing %s batch: %w", errors.ErrArchive, tableSpaceTable, err)
	}

	now := time.Now()
	for _, item := range batch {
		it := item.(tableSpaceItem)
		r := it.Row
		if err := b.Append(
			it.Environment, r.LogDate, r.DatabaseName, r.TableName, r.AccountName,
			r.CurrentPerm, r.PeakPerm, r.CurrentPermSkew, r.PeakPermSkew, now,
		); err != nil {
			return errors.Newf("%w: appending to %s batch: %w", errors.ErrArchive, tableSpaceTable, err)
		}
	}

	if err := b.Send(); err != nil {
		return errors.Newf("%w: sending %s batch: %w", errors.ErrArchive, tableSpaceTable, err)
	}
	return nil
}

func (a *SpaceArchiver) flushDatabaseSpace(ctx context.Context, batch []interface{}) (err error) {
	defer func() { metrics.RecordArchiveFlush(databaseSpaceTable, len(batch), err) }()

	b, err := a.client.Conn().PrepareBatch(ctx, "INSERT INTO "+databaseSpaceTable)
	if err != nil {
		return errors.Newf("%w: preparing %s batch: %w", errors.ErrArchive, databaseSpaceTable, err)
	}

	now := time.Now()
	for _, item := range batch {
		it := item.(databaseSpaceItem)
		r := it.Row
		if err := b.Append(
			it.Environment, r.LogDate, r.DatabaseName, r.AccountName,
			r.CurrentPerm, r.PeakPerm, r.MaxPerm, r.CurrentPermSkew, r.PermPctUsed, now,
		); err != nil {
			return errors.Newf("%w: appending to %s batch: %w", errors.ErrArchive, databaseSpaceTable, err)
		}
	}

	if err := b.Send(); err != nil {
		return errors.Newf("%w: sending %s batch: %w", errors.ErrArchive, databaseSpaceTable, err)
	}
	return nil
}
