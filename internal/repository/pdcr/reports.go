// Package pdcr exposes the parameterized read queries over the PDCR
// performance-history tables. Every report resolves its environment through
// the connection cache; filters are always bound, never interpolated.
package pdcr

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"pdcr/internal/adapters/teradata"
	"pdcr/internal/metrics"
	"pdcr/pkg/logger"
)

// Reports runs the PDCR report queries against named environments
type Reports struct {
	cache *teradata.Cache
	log   *logger.Logger
}

// New creates the report runner on top of a connection cache
func New(cache *teradata.Cache) *Reports {
	return &Reports{
		cache: cache,
		log:   logger.Get().With("component", "pdcr_reports"),
	}
}

// HistoryFilter bounds a space-history report. Zero dates default to the epoch
// and yesterday respectively; Database is a name pattern, empty matching all.
type HistoryFilter struct {
	Start    time.Time
	End      time.Time
	Database string
}

// SpoolFilter bounds the spool-space report
type SpoolFilter struct {
	Start   time.Time
	End     time.Time
	User    string
	Account string
}

const tableSpaceQuery = `
SELECT
    LogDate,
    DatabaseName,
    Tablename,
    AccountName,
    CURRENTPERM,
    PEAKPERM,
    CURRENTPERMSKEW,
    PEAKPERMSKEW
FROM PDCRINFO.TableSpace_Hst
WHERE LogDate BETWEEN ? AND ?
  AND TRIM(DatabaseName) LIKE ?
ORDER BY 1, 2, 3`

// TableSpaceHistory retrieves table-level space history from
// PDCRINFO.TableSpace_Hst
func (r *Reports) TableSpaceHistory(ctx context.Context, env string, f HistoryFilter) (rows []TableSpaceRow, err error) {
	start, end := normalizeRange(f.Start, f.End)

	defer func(begin time.Time) { metrics.RecordReportQuery("tablespace", time.Since(begin), err) }(time.Now())

	r.log.Infof("fetching TableSpace history for %q between %s and %s", env, start, end)
	err = r.cache.WithConnection(ctx, env, func(db *sqlx.DB) error {
		return db.SelectContext(ctx, &rows, tableSpaceQuery, start, end, likePattern(f.Database))
	})
	return rows, err
}

const databaseSpaceQuery = `
SELECT
    LogDate,
    DatabaseName,
    AccountName,
    CURRENTPERM,
    PEAKPERM,
    MAXPERM,
    CURRENTPERMSKEW,
    PERMPCTUSED
FROM PDCRINFO.DatabaseSpace_Hst
WHERE LogDate BETWEEN ? AND ?
  AND TRIM(DatabaseName) LIKE ?
ORDER BY 1, 2, 3`

// DatabaseSpaceHistory retrieves database-level space history from
// PDCRINFO.DatabaseSpace_Hst
func (r *Reports) DatabaseSpaceHistory(ctx context.Context, env string, f HistoryFilter) (rows []DatabaseSpaceRow, err error) {
	start, end := normalizeRange(f.Start, f.End)

	defer func(begin time.Time) { metrics.RecordReportQuery("databasespace", time.Since(begin), err) }(time.Now())

	r.log.Infof("fetching DatabaseSpace history for %q between %s and %s", env, start, end)
	err = r.cache.WithConnection(ctx, env, func(db *sqlx.DB) error {
		return db.SelectContext(ctx, &rows, databaseSpaceQuery, start, end, likePattern(f.Database))
	})
	return rows, err
}

const spoolSpaceQuery = `
SELECT
    LogDate,
    UserName,
    AccountName,
    CURRENTSPOOL,
    PEAKSPOOL,
    MAXSPOOL,
    PEAKSPOOLSKEW,
    CURRENTTEMP,
    PEAKTEMP,
    MAXTEMP,
    PEAKTEMPSKEW
FROM PDCRINFO.SpoolSpace_Hst
WHERE LogDate BETWEEN ? AND ?
  AND TRIM(UserName) LIKE ?
  AND TRIM(AccountName) LIKE ?
ORDER BY 1, 2, 3`

// SpoolSpaceHistory retrieves per-user spool and temp space history from
// PDCRINFO.SpoolSpace_Hst
func (r *Reports) SpoolSpaceHistory(ctx context.Context, env string, f SpoolFilter) (rows []SpoolSpaceRow, err error) {
	start, end := normalizeRange(f.Start, f.End)

	defer func(begin time.Time) { metrics.RecordReportQuery("spoolspace", time.Since(begin), err) }(time.Now())

	r.log.Infof("fetching SpoolSpace history for %q between %s and %s", env, start, end)
	err = r.cache.WithConnection(ctx, env, func(db *sqlx.DB) error {
		return db.SelectContext(ctx, &rows, spoolSpaceQuery,
			start, end, likePattern(f.User), likePattern(f.Account))
	})
	return rows, err
}

const dbcInfoQuery = `
SELECT
    InfoKey,
    InfoData
FROM DBC.DBCInfoV
ORDER BY InfoKey`

// DBCInfo retrieves system metadata from DBC.DBCInfoV
func (r *Reports) DBCInfo(ctx context.Context, env string) (rows []DBCInfoRow, err error) {
	defer func(begin time.Time) { metrics.RecordReportQuery("dbcinfo", time.Since(begin), err) }(time.Now())

	r.log.Infof("fetching DBC info for %q", env)
	err = r.cache.WithConnection(ctx, env, func(db *sqlx.DB) error {
		return db.SelectContext(ctx, &rows, dbcInfoQuery)
	})
	return rows, err
}
