package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	chadapter "pdcr/internal/adapters/clickhouse"
	"pdcr/internal/adapters/config"
	"pdcr/internal/adapters/errors/noop"
	"pdcr/internal/adapters/errors/sentry"
	"pdcr/internal/adapters/teradata"
	"pdcr/internal/archive"
	"pdcr/internal/metrics"
	"pdcr/internal/registry"
	"pdcr/internal/repository/pdcr"
	"pdcr/pkg/errors"
	"pdcr/pkg/logger"
)

var (
	reportName = flag.String("report", "tablespace", "report to run: tablespace|databasespace|spoolspace|dbcinfo")
	envName    = flag.String("env", "", "environment name from the registry")
	startDate  = flag.String("start", "", "inclusive start date (YYYY-MM-DD), defaults to the epoch")
	endDate    = flag.String("end", "", "inclusive end date (YYYY-MM-DD), defaults to yesterday")
	database   = flag.String("database", "", "database name pattern (tablespace, databasespace)")
	userName   = flag.String("user", "", "user name pattern (spoolspace)")
	account    = flag.String("account", "", "account name pattern (spoolspace)")
	listEnvs   = flag.Bool("list", false, "list configured environments and exit")
	doArchive  = flag.Bool("archive", false, "archive fetched space rows to ClickHouse")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	if cfg.Metrics.Enabled {
		metrics.Init()
		go func() {
			http.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Addr, nil); err != nil {
				log.Warnf("metrics server stopped: %v", err)
			}
		}()
	}

	if err := run(cfg, log); err != nil {
		log.ErrorWithContext(context.Background(), err, map[string]string{"report": *reportName})
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	reg, err := registry.Load(cfg.Environments.File)
	if err != nil {
		return err
	}

	cache := teradata.NewCache(reg,
		teradata.WithDriver(cfg.Environments.Driver),
		teradata.WithPoolSize(cfg.Environments.PoolSize),
	)
	defer func() {
		if err := cache.ReleaseAll(); err != nil {
			log.Warnf("releasing connection pools: %v", err)
		}
	}()

	if *listEnvs {
		for _, name := range cache.ListKnownEnvironments() {
			fmt.Println(name)
		}
		return nil
	}

	if *envName == "" {
		return errors.Wrap(errors.ErrConfig, "missing -env flag")
	}

	ctx := context.Background()
	reports := pdcr.New(cache)

	switch *reportName {
	case "tablespace":
		return runTableSpace(ctx, cfg, reports, log)
	case "databasespace":
		return runDatabaseSpace(ctx, cfg, reports, log)
	case "spoolspace":
		return runSpoolSpace(ctx, reports)
	case "dbcinfo":
		return runDBCInfo(ctx, reports)
	default:
		return errors.Newf("%w: unknown report %q", errors.ErrConfig, *reportName)
	}
}

func runTableSpace(ctx context.Context, cfg *config.Config, reports *pdcr.Reports, log *logger.Logger) error {
	start, end, err := parseDates()
	if err != nil {
		return err
	}

	rows, err := reports.TableSpaceHistory(ctx, *envName, pdcr.HistoryFilter{
		Start:    start,
		End:      end,
		Database: *database,
	})
	if err != nil {
		return err
	}

	w := newTable("LogDate", "Database", "Table", "Account", "CurrentPerm", "PeakPerm", "CurrSkew", "PeakSkew")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%.1f\t%.1f\n",
			r.LogDate, r.DatabaseName, r.TableName, r.AccountName,
			humanize.Bytes(uint64(r.CurrentPerm)), humanize.Bytes(uint64(r.PeakPerm)),
			r.CurrentPermSkew, r.PeakPermSkew)
	}
	w.Flush()
	fmt.Printf("%s rows\n", humanize.Comma(int64(len(rows))))

	if *doArchive {
		archiver, err := newArchiver(cfg, log)
		if err != nil {
			return err
		}
		if err := archiver.ArchiveTableSpace(ctx, *envName, rows); err != nil {
			return err
		}
		return archiver.Stop(ctx)
	}
	return nil
}

func runDatabaseSpace(ctx context.Context, cfg *config.Config, reports *pdcr.Reports, log *logger.Logger) error {
	start, end, err := parseDates()
	if err != nil {
		return err
	}

	rows, err := reports.DatabaseSpaceHistory(ctx, *envName, pdcr.HistoryFilter{
		Start:    start,
		End:      end,
		Database: *database,
	})
	if err != nil {
		return err
	}

	w := newTable("LogDate", "Database", "Account", "CurrentPerm", "PeakPerm", "MaxPerm", "CurrSkew", "PctUsed")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%.1f\t%.1f\n",
			r.LogDate, r.DatabaseName, r.AccountName,
			humanize.Bytes(uint64(r.CurrentPerm)), humanize.Bytes(uint64(r.PeakPerm)),
			humanize.Bytes(uint64(r.MaxPerm)), r.CurrentPermSkew, r.PermPctUsed)
	}
	w.Flush()
	fmt.Printf("%s rows\n", humanize.Comma(int64(len(rows))))

	if *doArchive {
		archiver, err := newArchiver(cfg, log)
		if err != nil {
			return err
		}
		if err := archiver.ArchiveDatabaseSpace(ctx, *envName, rows); err != nil {
			return err
		}
		return archiver.Stop(ctx)
	}
	return nil
}

func runSpoolSpace(ctx context.Context, reports *pdcr.Reports) error {
	start, end, err := parseDates()
	if err != nil {
		return err
	}

	rows, err := reports.SpoolSpaceHistory(ctx, *envName, pdcr.SpoolFilter{
		Start:   start,
		End:     end,
		User:    *userName,
		Account: *account,
	})
	if err != nil {
		return err
	}

	w := newTable("LogDate", "User", "Account", "CurrentSpool", "PeakSpool", "MaxSpool", "CurrentTemp", "PeakTemp")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.LogDate, r.UserName, r.AccountName,
			humanize.Bytes(uint64(r.CurrentSpool)), humanize.Bytes(uint64(r.PeakSpool)),
			humanize.Bytes(uint64(r.MaxSpool)),
			humanize.Bytes(uint64(r.CurrentTemp)), humanize.Bytes(uint64(r.PeakTemp)))
	}
	w.Flush()
	fmt.Printf("%s rows\n", humanize.Comma(int64(len(rows))))
	return nil
}

func runDBCInfo(ctx context.Context, reports *pdcr.Reports) error {
	rows, err := reports.DBCInfo(ctx, *envName)
	if err != nil {
		return err
	}

	w := newTable("InfoKey", "InfoData")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\n", r.InfoKey, r.InfoData)
	}
	w.Flush()
	return nil
}

func parseDates() (start, end time.Time, err error) {
	if *startDate != "" {
		start, err = time.Parse("2006-01-02", *startDate)
		if err != nil {
			return start, end, errors.Newf("%w: invalid -start date %q", errors.ErrConfig, *startDate)
		}
	}
	if *endDate != "" {
		end, err = time.Parse("2006-01-02", *endDate)
		if err != nil {
			return start, end, errors.Newf("%w: invalid -end date %q", errors.ErrConfig, *endDate)
		}
	}
	return start, end, nil
}

func newTable(headers ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	return w
}

func newArchiver(cfg *config.Config, log *logger.Logger) (*archive.SpaceArchiver, error) {
	if !cfg.Archive.Enabled {
		return nil, errors.Wrap(errors.ErrConfig, "archiving requested but ARCHIVE_ENABLED is false")
	}

	client, err := chadapter.NewClient(cfg.Archive)
	if err != nil {
		return nil, errors.Newf("%w: %w", errors.ErrArchive, err)
	}

	log.Info("archive connection established")
	return archive.NewSpaceArchiver(client), nil
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("error tracking initialized (Sentry)")
	return tracker
}
